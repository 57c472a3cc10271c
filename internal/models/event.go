package models

import "time"

const (
	EventVoice  = "voice"
	EventAlert  = "alert"
	EventAction = "action"
)

// InteractionEvent is an append-only history entry; retained until evicted
// by the capacity policy, never mutated.
type InteractionEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"` // voice|alert|action
	Content   string    `json:"content"`
	Severity  int       `json:"severity"` // 1-3
}

// Report is the flat daily digest served to the presentation layer.
type Report struct {
	UserID      string    `json:"user_id"`
	Date        string    `json:"date"` // 2006-01-02
	GeneratedAt time.Time `json:"generated_at"`

	TotalEvents      int            `json:"total_events"`
	CountsByType     map[string]int `json:"counts_by_type"`
	CountsBySeverity map[int]int    `json:"counts_by_severity"`

	RecentAlerts []InteractionEvent `json:"recent_alerts"`
	RecentVoice  []InteractionEvent `json:"recent_voice"`

	PeakActionHour  int `json:"peak_action_hour"`
	PeakActionCount int `json:"peak_action_count"`
}
