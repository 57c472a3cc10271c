package config

import (
	"os"
	"strconv"
	"time"
)

// Thresholds gates the alert engine. Every constant the rules compare
// against lives here; the defaults mirror the tuning the product shipped
// with, including the sit-reset grace margin.
type Thresholds struct {
	LowConfidence         float64 // below this, emotion confidence is "low"
	LowConfidenceDelaySec float64 // seconds a low-confidence streak must persist
	NegativeDelaySec      float64 // seconds a sad/angry streak must persist, also the re-alert spacing

	NeckAngleMin      float64 // degrees
	NeckAngleMax      float64
	ScreenDistanceMin float64 // centimeters

	SitDurationMin   float64 // minutes of sitting before the high alert
	SitResetGraceMin float64 // extra minutes before the counter resets to 0

	AttentionDistracted float64 // below this, low-severity attention alert
	AttentionLow        float64 // below this, medium-severity attention alert
}

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string // json|text
	JWTSecret string

	// Capture pacing.
	Cadence     time.Duration // interval between scheduled capture ticks
	MinInterval time.Duration // minimum spacing between inference starts per user

	// History retention.
	HistoryCapPerUser int
	VoiceCapPerUser   int

	// Ephemeral artifacts.
	ArtifactDir    string
	ArtifactMaxAge time.Duration

	// Heatmap synthesis.
	HeatmapPoints int
	HeatmapRadius float64

	Thresholds Thresholds

	// Vision provider: "qwen" or "vertex".
	VisionProvider  string
	QwenBaseURL     string
	QwenAPIKey      string
	QwenModel       string
	VertexProject   string
	VertexLocation  string
	VertexModel     string
	VertexCredsFile string

	// Optional collaborators.
	RedisAddr string // empty disables realtime fan-out
	GCSBucket string // empty disables frame upload
}

func Load() *Config {
	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		JWTSecret: getEnv("JWT_SECRET", ""),

		Cadence:     time.Duration(getEnvInt("CAPTURE_CADENCE_MS", 3000)) * time.Millisecond,
		MinInterval: time.Duration(getEnvInt("MIN_INFERENCE_INTERVAL_MS", 3000)) * time.Millisecond,

		HistoryCapPerUser: getEnvInt("HISTORY_CAP_PER_USER", 25),
		VoiceCapPerUser:   getEnvInt("VOICE_CAP_PER_USER", 20),

		ArtifactDir:    getEnv("ARTIFACT_DIR", os.TempDir()+"/deskpulse-frames"),
		ArtifactMaxAge: time.Duration(getEnvInt("ARTIFACT_MAX_AGE_SEC", 300)) * time.Second,

		HeatmapPoints: getEnvInt("HEATMAP_POINTS", 30),
		HeatmapRadius: getEnvFloat("HEATMAP_RADIUS", 0.3),

		VisionProvider:  getEnv("VISION_PROVIDER", "qwen"),
		QwenBaseURL:     getEnv("QWEN_BASE_URL", ""),
		QwenAPIKey:      getEnv("QWEN_API_KEY", ""),
		QwenModel:       getEnv("QWEN_MODEL", "qwen-vl-plus"),
		VertexProject:   getEnv("VERTEX_PROJECT_ID", ""),
		VertexLocation:  getEnv("VERTEX_LOCATION", "us-central1"),
		VertexModel:     getEnv("VERTEX_MODEL", "gemini-1.5-flash"),
		VertexCredsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		GCSBucket: getEnv("GCS_BUCKET", ""),
	}

	cfg.Thresholds = Thresholds{
		LowConfidence:         getEnvFloat("THRESHOLD_LOW_CONFIDENCE", 60),
		LowConfidenceDelaySec: getEnvFloat("THRESHOLD_LOW_CONFIDENCE_DELAY_SEC", 5),
		NegativeDelaySec:      getEnvFloat("THRESHOLD_NEGATIVE_DELAY_SEC", 30),
		NeckAngleMin:          getEnvFloat("THRESHOLD_NECK_ANGLE_MIN", 15),
		NeckAngleMax:          getEnvFloat("THRESHOLD_NECK_ANGLE_MAX", 35),
		ScreenDistanceMin:     getEnvFloat("THRESHOLD_SCREEN_DISTANCE_MIN", 50),
		SitDurationMin:        getEnvFloat("THRESHOLD_SIT_DURATION_MIN", 45),
		SitResetGraceMin:      getEnvFloat("THRESHOLD_SIT_RESET_GRACE_MIN", 10),
		AttentionDistracted:   getEnvFloat("THRESHOLD_ATTENTION_DISTRACTED", 40),
		AttentionLow:          getEnvFloat("THRESHOLD_ATTENTION_LOW", 10),
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
