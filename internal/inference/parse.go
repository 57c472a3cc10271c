package inference

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/arielwu/deskpulse/internal/models"
)

// Numeric defaults used when a field cannot be recovered from the model
// output at any parse stage.
const (
	defaultConfidence     = 50
	defaultNeckAngle      = 25
	defaultScreenDistance = 60
	defaultAttention      = 60
)

var (
	reEmotionLabel = regexp.MustCompile(`(?i)(happy|neutral|sad|angry)`)
	reConfidence   = regexp.MustCompile(`(?i)confidence[^0-9]*([0-9]+(?:\.[0-9]+)?)`)
	reNeckAngle    = regexp.MustCompile(`(?i)neck[_ ]?angle[^0-9]*([0-9]+(?:\.[0-9]+)?)`)
	reScreenDist   = regexp.MustCompile(`(?i)screen[_ ]?distance[^0-9]*([0-9]+(?:\.[0-9]+)?)`)
	reAttention    = regexp.MustCompile(`(?i)attention[_ ]?score[^0-9]*([0-9]+(?:\.[0-9]+)?)`)
	reGazeRegion   = regexp.MustCompile(`(?i)gaze[_ ]?region[^"]*"([^"]*)"`)
)

// decodeStaged runs the first two parse stages: a structured parse of the
// full payload, then a structured parse of the largest brace-delimited
// substring. It reports whether either stage produced a JSON object.
func decodeStaged(raw string, dst any) bool {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") && json.Unmarshal([]byte(trimmed), dst) == nil {
		return true
	}
	i := strings.Index(raw, "{")
	j := strings.LastIndex(raw, "}")
	if i >= 0 && j > i {
		if json.Unmarshal([]byte(raw[i:j+1]), dst) == nil {
			return true
		}
	}
	return false
}

func matchString(re *regexp.Regexp, raw string) string {
	if m := re.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

func matchNumber(re *regexp.Regexp, raw string) float64 {
	if m := re.FindStringSubmatch(raw); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return f
		}
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseEmotion recovers {label, confidence} from unstructured model output.
// Never fails: missing fields fall back to neutral/50.
func ParseEmotion(raw string) models.EmotionReading {
	var p struct {
		Emotion    string  `json:"emotion"`
		Confidence float64 `json:"confidence"`
	}
	if !decodeStaged(raw, &p) {
		p.Emotion = matchString(reEmotionLabel, raw)
		p.Confidence = matchNumber(reConfidence, raw)
	}

	label := strings.ToLower(strings.TrimSpace(p.Emotion))
	if label == "" {
		label = "neutral"
	}
	conf := p.Confidence
	if conf <= 0 {
		conf = defaultConfidence
	}
	return models.EmotionReading{
		Label:      label,
		Confidence: clamp(conf, 0, 100),
	}
}

// ParsePosture recovers {neckAngle, screenDistance}, clamped to the ranges
// the rest of the pipeline expects.
func ParsePosture(raw string) models.PostureReading {
	var p struct {
		NeckAngle      float64 `json:"neck_angle"`
		ScreenDistance float64 `json:"screen_distance"`
	}
	if !decodeStaged(raw, &p) {
		p.NeckAngle = matchNumber(reNeckAngle, raw)
		p.ScreenDistance = matchNumber(reScreenDist, raw)
	}

	angle := p.NeckAngle
	if angle <= 0 {
		angle = defaultNeckAngle
	}
	dist := p.ScreenDistance
	if dist <= 0 {
		dist = defaultScreenDistance
	}
	return models.PostureReading{
		NeckAngle:      clamp(angle, 0, 90),
		ScreenDistance: clamp(dist, 30, 150),
	}
}

// ParseAttention recovers {score, gazeRegion}.
func ParseAttention(raw string) models.AttentionReading {
	var p struct {
		Score      float64 `json:"attention_score"`
		GazeRegion string  `json:"gaze_region"`
	}
	if !decodeStaged(raw, &p) {
		p.Score = matchNumber(reAttention, raw)
		p.GazeRegion = matchString(reGazeRegion, raw)
	}

	score := p.Score
	if score <= 0 {
		score = defaultAttention
	}
	return models.AttentionReading{
		Score:      clamp(score, 0, 100),
		GazeRegion: strings.TrimSpace(p.GazeRegion),
	}
}
