package models

// RawReading is one normalized snapshot for one user at one instant, as
// produced by the inference gateway. It is immutable once created and never
// outlives the processing cycle that produced it.
type RawReading struct {
	Emotion   EmotionReading   `json:"emotion"`
	Posture   PostureReading   `json:"posture"`
	Attention AttentionReading `json:"attention"`
}

type EmotionReading struct {
	Label      string  `json:"emotion"`    // happy|neutral|sad|angry
	Confidence float64 `json:"confidence"` // 0-100
}

type PostureReading struct {
	NeckAngle      float64 `json:"neck_angle"`      // degrees, 0-90
	ScreenDistance float64 `json:"screen_distance"` // centimeters
}

type AttentionReading struct {
	Score      float64 `json:"attention_score"` // 0-100
	GazeRegion string  `json:"gaze_region,omitempty"`
}

// NegativeEmotions are the labels that feed the negative-streak debounce.
var NegativeEmotions = map[string]bool{
	"sad":   true,
	"angry": true,
}
