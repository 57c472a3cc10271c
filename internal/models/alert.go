package models

import "time"

const (
	SeverityLow    = 1
	SeverityMedium = 2
	SeverityHigh   = 3
)

// Alert types, one per rule in the engine.
const (
	AlertEmotionLowConfidence  = "emotion_low_confidence"
	AlertEmotionNegative       = "emotion_negative"
	AlertPostureNeckAngle      = "posture_neck_angle"
	AlertPostureScreenDistance = "posture_screen_distance"
	AlertPostureSitDuration    = "posture_sit_duration"
	AlertAttentionLow          = "attention_low"
)

// Alert is emitted by the alert engine; immutable, never retried or deduped
// beyond the debouncing that gated its creation.
type Alert struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Severity  int       `json:"severity"` // 1-3
	Timestamp time.Time `json:"timestamp"`
}
