package models

import "time"

// UserState is the smoothed per-user view derived from successive readings.
// It is owned by the state store; nothing outside its Merge path writes it.
type UserState struct {
	UserID     string         `json:"user_id"`
	Emotion    EmotionState   `json:"emotion"`
	Posture    PostureState   `json:"posture"`
	Attention  AttentionState `json:"attention"`
	LastUpdate time.Time      `json:"last_update"`
}

type EmotionState struct {
	Current     string  `json:"current"`
	Confidence  float64 `json:"confidence"`
	DurationSec float64 `json:"duration_sec"` // time spent in the current label

	LowConfidence  Hysteresis `json:"low_confidence"`
	NegativeStreak Hysteresis `json:"negative_streak"`
}

type PostureState struct {
	NeckAngle      float64 `json:"neck_angle"`
	ScreenDistance float64 `json:"screen_distance"`
	SitDurationMin float64 `json:"sit_duration_min"`
}

type AttentionState struct {
	Current   float64            `json:"current"`
	TimeSlots map[string]float64 `json:"time_slots"` // "15-20min" -> averaged score
	Heatmap   []HeatmapPoint     `json:"heatmap"`
}

// HeatmapPoint is [x, y, intensity], all in [0,1].
type HeatmapPoint [3]float64

// Hysteresis is a debounce timer shared by all delayed alert rules: a rule
// arms it when its condition first holds, keeps it armed while the condition
// persists, and disarms it the moment the condition clears.
type Hysteresis struct {
	Since *time.Time `json:"since,omitempty"`
}

// Arm starts the timer if it is not already running.
func (h *Hysteresis) Arm(now time.Time) {
	if h.Since == nil {
		t := now
		h.Since = &t
	}
}

// Rearm restarts the timer unconditionally (used to space repeated alerts).
func (h *Hysteresis) Rearm(now time.Time) {
	t := now
	h.Since = &t
}

func (h *Hysteresis) Disarm() { h.Since = nil }

// ActiveFor reports how long the timer has been armed; zero when disarmed.
func (h *Hysteresis) ActiveFor(now time.Time) time.Duration {
	if h.Since == nil {
		return 0
	}
	return now.Sub(*h.Since)
}

// Clone returns a deep copy safe to hand outside the state store.
func (s *UserState) Clone() UserState {
	out := *s
	if s.Emotion.LowConfidence.Since != nil {
		t := *s.Emotion.LowConfidence.Since
		out.Emotion.LowConfidence.Since = &t
	}
	if s.Emotion.NegativeStreak.Since != nil {
		t := *s.Emotion.NegativeStreak.Since
		out.Emotion.NegativeStreak.Since = &t
	}
	if s.Attention.TimeSlots != nil {
		out.Attention.TimeSlots = make(map[string]float64, len(s.Attention.TimeSlots))
		for k, v := range s.Attention.TimeSlots {
			out.Attention.TimeSlots[k] = v
		}
	}
	if s.Attention.Heatmap != nil {
		out.Attention.Heatmap = make([]HeatmapPoint, len(s.Attention.Heatmap))
		copy(out.Attention.Heatmap, s.Attention.Heatmap)
	}
	return out
}
