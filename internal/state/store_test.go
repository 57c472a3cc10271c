package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arielwu/deskpulse/config"
	"github.com/arielwu/deskpulse/internal/models"
)

func testStore(eval Evaluator) (*Store, func(time.Time)) {
	cfg := &config.Config{
		Thresholds: config.Thresholds{
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
		},
		HeatmapPoints: 30,
		HeatmapRadius: 0.3,
	}
	s := NewStore(cfg, eval)
	setNow := func(t time.Time) {
		s.now = func() time.Time { return t }
	}
	return s, setNow
}

func reading(label string, conf float64) models.RawReading {
	return models.RawReading{
		Emotion:   models.EmotionReading{Label: label, Confidence: conf},
		Posture:   models.PostureReading{NeckAngle: 25, ScreenDistance: 60},
		Attention: models.AttentionReading{Score: 75, GazeRegion: "center"},
	}
}

func TestMerge_EmotionDurationAccumulatesAndResets(t *testing.T) {
	s, setNow := testStore(nil)
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	setNow(start)
	st, _ := s.Merge("u1", reading("happy", 80))
	assert.Equal(t, "happy", st.Emotion.Current)
	assert.Zero(t, st.Emotion.DurationSec)

	setNow(start.Add(3 * time.Second))
	st, _ = s.Merge("u1", reading("happy", 82))
	assert.Equal(t, 3.0, st.Emotion.DurationSec)

	setNow(start.Add(7 * time.Second))
	st, _ = s.Merge("u1", reading("happy", 85))
	assert.Equal(t, 7.0, st.Emotion.DurationSec)

	// A label change restarts the counter at the elapsed interval.
	setNow(start.Add(10 * time.Second))
	st, _ = s.Merge("u1", reading("sad", 85))
	assert.Equal(t, "sad", st.Emotion.Current)
	assert.Equal(t, 3.0, st.Emotion.DurationSec)
}

func TestMerge_FirstReadingHasNoElapsedTime(t *testing.T) {
	s, setNow := testStore(nil)
	setNow(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC))

	st, _ := s.Merge("u1", reading("neutral", 80))
	assert.Zero(t, st.Emotion.DurationSec)
	assert.Zero(t, st.Posture.SitDurationMin)
}

func TestMerge_SitDurationAccumulatesThenResets(t *testing.T) {
	e := &recordingEval{}
	s, setNow := testStore(e)
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	setNow(start)
	s.Merge("u1", reading("neutral", 80))

	setNow(start.Add(50 * time.Minute))
	st, _ := s.Merge("u1", reading("neutral", 80))
	assert.Equal(t, 50.0, st.Posture.SitDurationMin)

	// Crossing threshold plus grace resets the counter, but the evaluator
	// must have seen the accumulated value on that same merge.
	setNow(start.Add(56 * time.Minute))
	st, _ = s.Merge("u1", reading("neutral", 80))
	assert.Zero(t, st.Posture.SitDurationMin)
	assert.Equal(t, 56.0, e.lastSitMin)

	// Fresh countdown after the reset.
	setNow(start.Add(58 * time.Minute))
	st, _ = s.Merge("u1", reading("neutral", 80))
	assert.Equal(t, 2.0, st.Posture.SitDurationMin)
}

type recordingEval struct {
	lastSitMin float64
	alerts     []models.Alert
}

func (r *recordingEval) Evaluate(st *models.UserState, now time.Time) []models.Alert {
	r.lastSitMin = st.Posture.SitDurationMin
	return r.alerts
}

func TestMerge_ReturnsEvaluatorAlerts(t *testing.T) {
	want := []models.Alert{{Type: models.AlertAttentionLow, Severity: models.SeverityLow}}
	s, setNow := testStore(&recordingEval{alerts: want})
	setNow(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC))

	_, alerts := s.Merge("u1", reading("neutral", 80))
	assert.Equal(t, want, alerts)
}

func TestMerge_TimeSlotAveraging(t *testing.T) {
	s, setNow := testStore(nil)
	// 10:17 falls in the 15-20min slot.
	at := time.Date(2026, 8, 29, 10, 17, 0, 0, time.UTC)

	r := reading("neutral", 80)
	r.Attention.Score = 80
	setNow(at)
	st, _ := s.Merge("u1", r)
	assert.Equal(t, 80.0, st.Attention.TimeSlots["15-20min"])

	r.Attention.Score = 60
	setNow(at.Add(time.Minute))
	st, _ = s.Merge("u1", r)
	assert.Equal(t, 70.0, st.Attention.TimeSlots["15-20min"])
}

func TestMerge_HeatmapShape(t *testing.T) {
	s, setNow := testStore(nil)
	setNow(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC))

	r := reading("neutral", 80)
	r.Attention.Score = 80
	r.Attention.GazeRegion = "top-left"
	st, _ := s.Merge("u1", r)

	require.Len(t, st.Attention.Heatmap, 31)
	center := st.Attention.Heatmap[0]
	assert.Equal(t, 0.17, center[0])
	assert.Equal(t, 0.17, center[1])
	assert.Equal(t, 0.8, center[2])

	for _, p := range st.Attention.Heatmap {
		for _, v := range p {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestRegionCenter_Tokens(t *testing.T) {
	cases := []struct {
		gaze string
		x, y float64
	}{
		{"top-left", 0.17, 0.17},
		{"bottom right", 0.83, 0.83},
		{"左上", 0.17, 0.17},
		{"右下", 0.83, 0.83},
		{"center", 0.5, 0.5},
		{"looking at the upper part of the screen", 0.5, 0.17},
		{"", 0.5, 0.5},
		{"somewhere else entirely", 0.5, 0.5},
	}
	for _, tc := range cases {
		x, y := regionCenter(tc.gaze)
		assert.Equal(t, tc.x, x, "gaze %q", tc.gaze)
		assert.Equal(t, tc.y, y, "gaze %q", tc.gaze)
	}
}

func TestGetAndRemove(t *testing.T) {
	s, setNow := testStore(nil)
	setNow(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC))

	_, ok := s.Get("u1")
	assert.False(t, ok)

	s.Merge("u1", reading("happy", 80))
	st, ok := s.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "happy", st.Emotion.Current)

	s.Remove("u1")
	_, ok = s.Get("u1")
	assert.False(t, ok)
}

func TestMerge_SnapshotIsDetached(t *testing.T) {
	s, setNow := testStore(nil)
	setNow(time.Date(2026, 8, 29, 10, 17, 0, 0, time.UTC))

	st, _ := s.Merge("u1", reading("happy", 80))
	st.Attention.TimeSlots["15-20min"] = -1
	st.Emotion.Current = "mutated"

	fresh, ok := s.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "happy", fresh.Emotion.Current)
	assert.Equal(t, 75.0, fresh.Attention.TimeSlots["15-20min"])
}
