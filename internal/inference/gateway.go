package inference

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/arielwu/deskpulse/internal/models"
	"github.com/arielwu/deskpulse/internal/providers/vision"
	"github.com/arielwu/deskpulse/internal/utils"
)

const (
	emotionPrompt = `Analyze the facial expression of the person in this image. Pick the single best match from these four emotions: happy, neutral, sad, angry. Reply in JSON with the emotion and a confidence from 0 to 100, for example: {"emotion": "happy", "confidence": 85}`

	posturePrompt = `Analyze the sitting posture of the person in this image. Estimate their neck angle in degrees (0 means head hanging straight down, 90 means looking straight ahead) and their distance from the screen in centimeters. Reply in JSON: {"neck_angle": <degrees>, "screen_distance": <centimeters>}`

	attentionPrompt = `Analyze how focused the person in this image is. Score their attention from 0 to 100 and name the screen region they appear to be looking at (top/middle/bottom combined with left/center/right). Reply in JSON: {"attention_score": <score>, "gaze_region": "<region>"}`
)

// Gateway wraps the opaque vision provider and normalizes its output into a
// typed reading. Malformed output degrades through the staged parsers and
// never surfaces as an error; only transport failures and timeouts do.
type Gateway struct {
	provider vision.Provider
	log      *logrus.Logger
}

func NewGateway(p vision.Provider, log *logrus.Logger) *Gateway {
	return &Gateway{provider: p, log: log}
}

func (g *Gateway) Analyze(ctx context.Context, image []byte) (models.RawReading, error) {
	const op = "InferenceGateway.Analyze"

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		reading  models.RawReading
	)

	run := func(prompt string, apply func(raw string)) {
		defer wg.Done()
		raw, err := g.provider.Describe(ctx, image, prompt)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		apply(raw)
	}

	wg.Add(3)
	go run(emotionPrompt, func(raw string) { reading.Emotion = ParseEmotion(raw) })
	go run(posturePrompt, func(raw string) { reading.Posture = ParsePosture(raw) })
	go run(attentionPrompt, func(raw string) { reading.Attention = ParseAttention(raw) })
	wg.Wait()

	if firstErr != nil {
		g.log.WithError(firstErr).Warn("inference call failed")
		code := utils.CodeUnavailable
		if errors.Is(firstErr, context.DeadlineExceeded) {
			code = utils.CodeTimeout
		}
		return models.RawReading{}, utils.E(code, op, "inference call failed", firstErr)
	}
	return reading, nil
}
