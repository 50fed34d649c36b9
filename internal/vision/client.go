package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const maxResponseBytes = 1 << 20

type Client struct {
	httpClient  *http.Client
	endpointURL string
	timeout     time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{},
		endpointURL: cfg.EndpointURL,
		timeout:     timeout,
	}
}

type RequestPayload struct {
	Instances []Instance `json:"instances"`
}

type Instance struct {
	RequestFormat string    `json:"@requestFormat"`
	Messages      []Message `json:"messages"`
	MaxTokens     int       `json:"max_tokens"`
	Temperature   float64   `json:"temperature"`
	TopP          float64   `json:"top_p"`
	TopK          int       `json:"top_k"`
}

type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type predictResponse struct {
	Predictions json.RawMessage `json:"predictions"`
}

type listPrediction struct {
	Content string `json:"content"`
}

type choicesPrediction struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// BuildRequest wraps a JPEG frame and the condition prompt into a chat completions instance.
func BuildRequest(frame []byte, condition string, params ModelParams) (*RequestPayload, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}

	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(frame)

	return &RequestPayload{
		Instances: []Instance{{
			RequestFormat: "chatCompletions",
			Messages: []Message{{
				Role: "user",
				Content: []ContentPart{
					{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
					{Type: "text", Text: BuildPrompt(condition)},
				},
			}},
			MaxTokens:   params.MaxTokens,
			Temperature: params.Temperature,
			TopP:        params.TopP,
			TopK:        params.TopK,
		}},
	}, nil
}

func (c *Client) Send(ctx context.Context, payload *RequestPayload, credential string) (string, error) {
	if c.endpointURL == "" {
		return "", &EndpointError{Message: "endpoint url not configured"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.authorized(credential).Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &NetworkError{Err: fmt.Errorf("request timed out after %s", c.timeout)}
		}
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &AuthError{Status: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", &EndpointError{Status: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}

	var predict predictResponse
	if err := json.Unmarshal(raw, &predict); err != nil {
		return "", &EndpointError{Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}

	return predictionText(predict.Predictions), nil
}

// IsAvailable only reports whether an endpoint is configured; probing it would need a credential.
func (c *Client) IsAvailable() bool {
	return c.endpointURL != ""
}

func (c *Client) EndpointURL() string {
	return c.endpointURL
}

func (c *Client) authorized(credential string) *http.Client {
	source := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: credential,
		TokenType:   "Bearer",
	})

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: source,
			Base:   c.httpClient.Transport,
		},
	}
}

func predictionText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}

	if trimmed[0] == '[' {
		var list []listPrediction
		if err := json.Unmarshal(trimmed, &list); err == nil && len(list) > 0 {
			return list[0].Content
		}
		return ""
	}

	var choices choicesPrediction
	if err := json.Unmarshal(trimmed, &choices); err == nil && len(choices.Choices) > 0 {
		return choices.Choices[0].Message.Content
	}
	return ""
}

func errorMessage(body []byte, status int) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(payload.Error, &nested); err == nil && nested.Message != "" {
				return nested.Message
			}
			var plain string
			if err := json.Unmarshal(payload.Error, &plain); err == nil && plain != "" {
				return plain
			}
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}
