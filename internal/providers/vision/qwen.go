package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// QwenVision talks to a Qwen-VL (OpenAI-compatible) chat completions
// endpoint. This is the model the product originally shipped against.
type QwenVision struct {
	http  *resty.Client
	model string
}

func NewQwenVision(baseURL, apiKey, model string) (*QwenVision, error) {
	if baseURL == "" || apiKey == "" {
		return nil, errors.New("qwen: base URL and API key are required")
	}
	if model == "" {
		model = "qwen-vl-plus"
	}

	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(30 * time.Second)

	return &QwenVision{http: c, model: model}, nil
}

func (q *QwenVision) Close() error { return nil }

type qwenMessagePart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type qwenChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	// Some deployments nest the choices under "output".
	Output *struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"output,omitempty"`
}

func (q *QwenVision) Describe(ctx context.Context, image []byte, prompt string) (string, error) {
	imagePart := qwenMessagePart{Type: "image_url"}
	imagePart.ImageURL = &struct {
		URL string `json:"url"`
	}{URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)}

	body := map[string]any{
		"model": q.model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []qwenMessagePart{
					{Type: "text", Text: prompt},
					imagePart,
				},
			},
		},
		"max_tokens": 1000,
	}

	var out qwenChatResponse
	resp, err := q.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("qwen: status %d: %s", resp.StatusCode(), resp.String())
	}

	if len(out.Choices) > 0 && out.Choices[0].Message.Content != "" {
		return out.Choices[0].Message.Content, nil
	}
	if out.Output != nil && len(out.Output.Choices) > 0 && out.Output.Choices[0].Message.Content != "" {
		return out.Output.Choices[0].Message.Content, nil
	}
	return "", errors.New("qwen: no content in response")
}
