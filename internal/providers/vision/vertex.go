package vision

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

type VertexVision struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexVision(ctx context.Context, projectID, location, modelName, credsFile string) (*VertexVision, error) {
	var opts []option.ClientOption
	if credsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credsFile))
	}

	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	return &VertexVision{client: c, model: m}, nil
}

func (v *VertexVision) Close() error { return v.client.Close() }

func (v *VertexVision) Describe(ctx context.Context, image []byte, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx,
		vertexgenai.ImageData("jpeg", image),
		vertexgenai.Text(prompt),
	)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}

	if sb.Len() == 0 {
		return "", errors.New("vertex: empty response")
	}
	return sb.String(), nil
}
