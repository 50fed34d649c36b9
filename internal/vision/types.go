package vision

import (
	"fmt"
	"time"
)

type Config struct {
	EndpointURL    string
	Timeout        time.Duration
	MaxFrameWidth  int
	MaxFramePixels int
	FrameMaxAge    time.Duration
}

// DedicatedEndpointURL builds the predict URL of a Vertex AI dedicated endpoint.
func DedicatedEndpointURL(project, region, endpoint string) string {
	return fmt.Sprintf(
		"https://%s.%s-%s.prediction.vertexai.goog/v1/projects/%s/locations/%s/endpoints/%s:predict",
		endpoint, region, project, project, region, endpoint,
	)
}

type ModelParams struct {
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	TopP        float64 `json:"top_p" yaml:"top_p"`
	TopK        int     `json:"top_k" yaml:"top_k"`
}

func DefaultModelParams() ModelParams {
	return ModelParams{
		MaxTokens:   150,
		Temperature: 0.2,
		TopP:        0.9,
		TopK:        40,
	}
}

type AlertSignal string

const (
	AlertYes     AlertSignal = "YES"
	AlertNo      AlertSignal = "NO"
	AlertUnknown AlertSignal = "UNKNOWN"
)

type ParsedResult struct {
	Description string      `json:"description"`
	Alert       AlertSignal `json:"alert"`
}

type AnalyzeRequest struct {
	Condition  string
	Credential string
	Quality    float64
	Params     ModelParams
}

type Analysis struct {
	Result     ParsedResult
	Raw        string
	FrameBytes int
	Latency    time.Duration
}
