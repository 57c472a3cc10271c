package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arielwu/deskpulse/config"
	"github.com/arielwu/deskpulse/internal/models"
)

func testThresholds() config.Thresholds {
	return config.Thresholds{
		LowConfidence:         60,
		LowConfidenceDelaySec: 5,
		NegativeDelaySec:      30,
		NeckAngleMin:          15,
		NeckAngleMax:          35,
		ScreenDistanceMin:     50,
		SitDurationMin:        45,
		SitResetGraceMin:      10,
		AttentionDistracted:   40,
		AttentionLow:          10,
	}
}

// healthyState returns a state no rule fires on.
func healthyState() *models.UserState {
	return &models.UserState{
		UserID: "u1",
		Emotion: models.EmotionState{
			Current:    "neutral",
			Confidence: 80,
		},
		Posture: models.PostureState{
			NeckAngle:      25,
			ScreenDistance: 60,
			SitDurationMin: 5,
		},
		Attention: models.AttentionState{Current: 75},
	}
}

func ofType(alerts []models.Alert, typ string) []models.Alert {
	var out []models.Alert
	for _, a := range alerts {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

func TestLowConfidence_BriefDipNeverAlerts(t *testing.T) {
	e := NewEngine(testThresholds())
	st := healthyState()
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	// The dip stays below the 5s delay before recovering, so no alert at
	// all, and recovery clears the timer.
	var total []models.Alert
	for i, conf := range []float64{70, 55, 55, 55, 70} {
		st.Emotion.Confidence = conf
		now := start.Add(time.Duration(i) * time.Second)
		total = append(total, ofType(e.Evaluate(st, now), models.AlertEmotionLowConfidence)...)
	}
	assert.Empty(t, total)
	assert.Nil(t, st.Emotion.LowConfidence.Since)
}

func TestLowConfidence_SustainedDipAlertsOnce(t *testing.T) {
	e := NewEngine(testThresholds())
	st := healthyState()
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	// [70,55,55,55,55,55,55] at 1s spacing: the timer arms at the first
	// low sample (t=1s) and reaches the 5s delay exactly at the final
	// sample (t=6s), producing exactly one alert.
	var total []models.Alert
	for i, conf := range []float64{70, 55, 55, 55, 55, 55, 55} {
		st.Emotion.Confidence = conf
		now := start.Add(time.Duration(i) * time.Second)
		got := ofType(e.Evaluate(st, now), models.AlertEmotionLowConfidence)
		if i < 6 {
			assert.Empty(t, got, "sample %d must not alert", i)
		}
		total = append(total, got...)
	}
	require.Len(t, total, 1)
	assert.Equal(t, models.SeverityLow, total[0].Severity)
}

func TestLowConfidence_RecoveryClearsTimer(t *testing.T) {
	e := NewEngine(testThresholds())
	st := healthyState()
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	st.Emotion.Confidence = 50
	e.Evaluate(st, now)
	require.NotNil(t, st.Emotion.LowConfidence.Since)

	st.Emotion.Confidence = 70
	e.Evaluate(st, now.Add(2*time.Second))
	assert.Nil(t, st.Emotion.LowConfidence.Since)

	// A new dip starts a fresh timer; 4s in, still no alert.
	st.Emotion.Confidence = 50
	e.Evaluate(st, now.Add(4*time.Second))
	got := ofType(e.Evaluate(st, now.Add(8*time.Second)), models.AlertEmotionLowConfidence)
	assert.Empty(t, got)
}

func TestNegativeEmotion_AlertsSpacedByDelay(t *testing.T) {
	e := NewEngine(testThresholds())
	st := healthyState()
	st.Emotion.Current = "sad"
	st.Emotion.Confidence = 90
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	var fired []time.Time
	// One evaluation every 5s for 2 minutes of continuous sadness.
	for i := 0; i <= 24; i++ {
		now := start.Add(time.Duration(i) * 5 * time.Second)
		for _, a := range ofType(e.Evaluate(st, now), models.AlertEmotionNegative) {
			fired = append(fired, a.Timestamp)
		}
	}

	require.NotEmpty(t, fired)
	for i := 1; i < len(fired); i++ {
		assert.GreaterOrEqual(t, fired[i].Sub(fired[i-1]), 30*time.Second,
			"consecutive negative-emotion alerts must be spaced by the full delay")
	}
}

func TestNegativeEmotion_ClearsOnLabelChange(t *testing.T) {
	e := NewEngine(testThresholds())
	st := healthyState()
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	st.Emotion.Current = "angry"
	e.Evaluate(st, now)
	require.NotNil(t, st.Emotion.NegativeStreak.Since)

	st.Emotion.Current = "happy"
	e.Evaluate(st, now.Add(5*time.Second))
	assert.Nil(t, st.Emotion.NegativeStreak.Since)
}

func TestPosture_NeckAngleVariants(t *testing.T) {
	e := NewEngine(testThresholds())
	now := time.Now()

	st := healthyState()
	st.Posture.NeckAngle = 10
	got := ofType(e.Evaluate(st, now), models.AlertPostureNeckAngle)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "drooping")
	assert.Equal(t, models.SeverityMedium, got[0].Severity)

	st = healthyState()
	st.Posture.NeckAngle = 40
	got = ofType(e.Evaluate(st, now), models.AlertPostureNeckAngle)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "adjust")
}

func TestPosture_ScreenDistanceImmediate(t *testing.T) {
	e := NewEngine(testThresholds())
	st := healthyState()
	st.Posture.ScreenDistance = 42

	got := ofType(e.Evaluate(st, time.Now()), models.AlertPostureScreenDistance)
	require.Len(t, got, 1)
	assert.Equal(t, models.SeverityMedium, got[0].Severity)
}

func TestPosture_SitDurationHigh(t *testing.T) {
	e := NewEngine(testThresholds())
	st := healthyState()
	st.Posture.SitDurationMin = 47

	got := ofType(e.Evaluate(st, time.Now()), models.AlertPostureSitDuration)
	require.Len(t, got, 1)
	assert.Equal(t, models.SeverityHigh, got[0].Severity)
	assert.Contains(t, got[0].Message, "47 minutes")
}

func TestAttention_SeverityBands(t *testing.T) {
	e := NewEngine(testThresholds())
	now := time.Now()

	st := healthyState()
	st.Attention.Current = 55
	assert.Empty(t, ofType(e.Evaluate(st, now), models.AlertAttentionLow))

	st.Attention.Current = 35
	got := ofType(e.Evaluate(st, now), models.AlertAttentionLow)
	require.Len(t, got, 1)
	assert.Equal(t, models.SeverityLow, got[0].Severity)

	st.Attention.Current = 5
	got = ofType(e.Evaluate(st, now), models.AlertAttentionLow)
	require.Len(t, got, 1)
	assert.Equal(t, models.SeverityMedium, got[0].Severity)
}

func TestHysteresis_ArmDisarm(t *testing.T) {
	var h models.Hysteresis
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	assert.Zero(t, h.ActiveFor(now))

	h.Arm(now)
	h.Arm(now.Add(10 * time.Second)) // arming again must not restart
	assert.Equal(t, 30*time.Second, h.ActiveFor(now.Add(30*time.Second)))

	h.Rearm(now.Add(30 * time.Second))
	assert.Equal(t, 5*time.Second, h.ActiveFor(now.Add(35*time.Second)))

	h.Disarm()
	assert.Zero(t, h.ActiveFor(now.Add(40*time.Second)))
}
