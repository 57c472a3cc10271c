// Package alerts decides which alerts a state transition produces, with
// hysteresis so transient noise never flaps an alert.
package alerts

import (
	"fmt"
	"time"

	"github.com/arielwu/deskpulse/config"
	"github.com/arielwu/deskpulse/internal/models"
)

// Engine evaluates threshold rules against a freshly merged user state. It
// carries no per-user state of its own: the debounce timers live on the
// UserState it is handed, so evaluation stays inside the state store's
// mutation path.
type Engine struct {
	t config.Thresholds
}

func NewEngine(t config.Thresholds) *Engine {
	return &Engine{t: t}
}

// Evaluate runs all rules and returns the alerts this cycle emits. It arms,
// disarms, and re-arms the state's debounce timers as a side effect.
func (e *Engine) Evaluate(st *models.UserState, now time.Time) []models.Alert {
	var out []models.Alert
	out = append(out, e.emotionAlerts(st, now)...)
	out = append(out, e.postureAlerts(st, now)...)
	out = append(out, e.attentionAlerts(st, now)...)
	return out
}

func (e *Engine) emotionAlerts(st *models.UserState, now time.Time) []models.Alert {
	var out []models.Alert
	em := &st.Emotion

	// Low confidence: only after the dip has persisted; brief dips clear
	// the timer without ever alerting.
	if em.Confidence < e.t.LowConfidence {
		em.LowConfidence.Arm(now)
		if em.LowConfidence.ActiveFor(now) >= secs(e.t.LowConfidenceDelaySec) {
			out = append(out, models.Alert{
				Type:      models.AlertEmotionLowConfidence,
				Message:   "Emotion detection confidence is low; adjust your camera or lighting",
				Severity:  models.SeverityLow,
				Timestamp: now,
			})
		}
	} else {
		em.LowConfidence.Disarm()
	}

	// Negative streak: the timer re-arms on emission so repeated alerts
	// stay spaced by the full delay.
	if models.NegativeEmotions[em.Current] {
		em.NegativeStreak.Arm(now)
		if em.NegativeStreak.ActiveFor(now) >= secs(e.t.NegativeDelaySec) {
			msg := "You seem upset. How about a deep breath and a short pause?"
			if em.Current == "sad" {
				msg = "You look a little sad. Need a break?"
			}
			out = append(out, models.Alert{
				Type:      models.AlertEmotionNegative,
				Message:   msg,
				Severity:  models.SeverityMedium,
				Timestamp: now,
			})
			em.NegativeStreak.Rearm(now)
		}
	} else {
		em.NegativeStreak.Disarm()
	}

	return out
}

// Posture readings are far less noisy than emotion inference, so these rules
// fire immediately.
func (e *Engine) postureAlerts(st *models.UserState, now time.Time) []models.Alert {
	var out []models.Alert
	p := st.Posture

	if p.NeckAngle < e.t.NeckAngleMin || p.NeckAngle > e.t.NeckAngleMax {
		msg := "Your neck angle looks off; adjust your sitting position"
		if p.NeckAngle < e.t.NeckAngleMin {
			msg = "Your head is drooping; lift your chin and straighten up"
		}
		out = append(out, models.Alert{
			Type:      models.AlertPostureNeckAngle,
			Message:   msg,
			Severity:  models.SeverityMedium,
			Timestamp: now,
		})
	}

	if p.ScreenDistance < e.t.ScreenDistanceMin {
		out = append(out, models.Alert{
			Type:      models.AlertPostureScreenDistance,
			Message:   fmt.Sprintf("You are too close to the screen; keep at least %.0f cm away", e.t.ScreenDistanceMin),
			Severity:  models.SeverityMedium,
			Timestamp: now,
		})
	}

	if p.SitDurationMin >= e.t.SitDurationMin {
		out = append(out, models.Alert{
			Type:      models.AlertPostureSitDuration,
			Message:   fmt.Sprintf("You have been sitting for %d minutes; stand up and move around", int(p.SitDurationMin)),
			Severity:  models.SeverityHigh,
			Timestamp: now,
		})
	}

	return out
}

// Attention uses the raw instantaneous score: evaluation already happens at
// most once per capture tick.
func (e *Engine) attentionAlerts(st *models.UserState, now time.Time) []models.Alert {
	score := st.Attention.Current
	if score >= e.t.AttentionDistracted {
		return nil
	}

	a := models.Alert{
		Type:      models.AlertAttentionLow,
		Message:   "Your attention is drifting; want help refocusing?",
		Severity:  models.SeverityLow,
		Timestamp: now,
	}
	if score < e.t.AttentionLow {
		a.Message = "You seem to have zoned out. Time for a break?"
		a.Severity = models.SeverityMedium
	}
	return []models.Alert{a}
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
