package dto

import "time"

type StartRequest struct {
	Condition  string `json:"condition"`
	Credential string `json:"credential"`
	IntervalMs int    `json:"interval_ms,omitempty"`
}

type ConditionRequest struct {
	Condition string `json:"condition"`
}

// SettingsRequest is a partial update; nil fields keep their current value.
type SettingsRequest struct {
	IntervalMs       *int     `json:"interval_ms,omitempty"`
	JPEGQuality      *float64 `json:"jpeg_quality,omitempty"`
	MaxAlerts        *int     `json:"max_alerts,omitempty"`
	DynamicCondition *bool    `json:"dynamic_condition,omitempty"`
	HeartbeatRate    *float64 `json:"heartbeat_rate,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	TopK             *int     `json:"top_k,omitempty"`
}

type SettingsResponse struct {
	IntervalMs       int     `json:"interval_ms"`
	AllowedIntervals []int   `json:"allowed_intervals_ms"`
	JPEGQuality      float64 `json:"jpeg_quality"`
	MaxAlerts        int     `json:"max_alerts"`
	DynamicCondition bool    `json:"dynamic_condition"`
	HeartbeatRate    float64 `json:"heartbeat_rate"`
	MaxTokens        int     `json:"max_tokens"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	TopK             int     `json:"top_k"`
}

type StatusResponse struct {
	Status     string           `json:"status"`
	Condition  string           `json:"condition"`
	Scene      string           `json:"scene"`
	Ticks      uint64           `json:"ticks"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	LastTickAt *time.Time       `json:"last_tick_at,omitempty"`
	LastError  string           `json:"last_error,omitempty"`
	AlertCount int              `json:"alert_count"`
	Settings   SettingsResponse `json:"settings"`
}

type AlertResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type AlertsResponse struct {
	Total  int             `json:"total"`
	Alerts []AlertResponse `json:"alerts"`
}
