package vision

import "context"

// Provider is the opaque multimodal inference call: send one frame plus an
// instruction, get the model's raw text back. Output format is NOT
// contractually guaranteed; the inference gateway normalizes it.
type Provider interface {
	Describe(ctx context.Context, image []byte, prompt string) (string, error)
	Close() error
}
