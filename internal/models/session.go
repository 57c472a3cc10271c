package models

import "time"

// Capture session lifecycle states.
const (
	SessionJoining   = "joining"
	SessionReady     = "ready"
	SessionCapturing = "capturing"
	SessionClosed    = "closed"
)

// CaptureSession is a point-in-time snapshot of a session, safe to serialize.
// The live session (tickers, in-flight guard) is owned by the capture manager.
type CaptureSession struct {
	UserID        string    `json:"user_id"`
	State         string    `json:"state"`
	ConnectedAt   time.Time `json:"connected_at"`
	FrameCount    int64     `json:"frame_count"`
	LastCaptureAt time.Time `json:"last_capture_at,omitempty"`
	InFlight      bool      `json:"in_flight"`
}

// AnalysisResult is what one completed capture cycle pushes back to the
// client: the merged state, the alerts the cycle produced, and the stored
// frame URL when uploading is enabled.
type AnalysisResult struct {
	Timestamp time.Time `json:"timestamp"`
	State     UserState `json:"state"`
	Alerts    []Alert   `json:"alerts"`
	ImageURL  string    `json:"image_url,omitempty"`
}
