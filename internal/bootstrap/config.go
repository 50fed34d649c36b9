package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/falcrise/omnivision/internal/monitor"
	"github.com/falcrise/omnivision/internal/vision"
	"gopkg.in/yaml.v3"
)

const (
	FrameSourceIngest  = "ingest"
	FrameSourcePattern = "pattern"
)

type Config struct {
	ServerAddr string `yaml:"server_addr"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`

	EndpointURL      string        `yaml:"endpoint_url"`
	ProjectID        string        `yaml:"project_id"`
	Region           string        `yaml:"region"`
	EndpointID       string        `yaml:"endpoint_id"`
	InferenceTimeout time.Duration `yaml:"inference_timeout"`

	AnalysisIntervalMs int                `yaml:"analysis_interval_ms"`
	Condition          string             `yaml:"condition"`
	DynamicCondition   bool               `yaml:"dynamic_condition"`
	JPEGQuality        float64            `yaml:"jpeg_quality"`
	MaxAlerts          int                `yaml:"max_alerts"`
	HeartbeatRate      float64            `yaml:"heartbeat_rate"`
	Model              vision.ModelParams `yaml:"model"`

	FrameSource    string        `yaml:"frame_source"`
	FrameMaxAge    time.Duration `yaml:"frame_max_age"`
	FrameMaxWidth  int           `yaml:"frame_max_width"`
	FrameMaxPixels int           `yaml:"frame_max_pixels"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisChannel  string `yaml:"redis_channel"`

	MQTTBroker   string `yaml:"mqtt_broker"`
	MQTTTopic    string `yaml:"mqtt_topic"`
	MQTTClientID string `yaml:"mqtt_client_id"`
}

func DefaultConfig() *Config {
	settings := monitor.DefaultSettings()
	return &Config{
		ServerAddr: ":8080",
		LogLevel:   "info",
		LogFormat:  "json",

		InferenceTimeout: 30 * time.Second,

		AnalysisIntervalMs: int(settings.Interval.Milliseconds()),
		DynamicCondition:   settings.DynamicCondition,
		JPEGQuality:        settings.JPEGQuality,
		MaxAlerts:          settings.MaxAlerts,
		HeartbeatRate:      settings.HeartbeatRate,
		Model:              settings.Model,

		FrameSource:    FrameSourceIngest,
		FrameMaxAge:    10 * time.Second,
		FrameMaxWidth:  1280,
		FrameMaxPixels: vision.DefaultMaxFramePixels,

		RedisChannel: "omnivision:events",

		MQTTTopic:    "omnivision",
		MQTTClientID: "omnivision",
	}
}

// LoadConfig layers defaults, the optional CONFIG_FILE and environment variables, in that order.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddr = getEnv("SERVER_ADDR", c.ServerAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	c.EndpointURL = getEnv("ENDPOINT_URL", c.EndpointURL)
	c.ProjectID = getEnv("PROJECT_ID", c.ProjectID)
	c.Region = getEnv("REGION", c.Region)
	c.EndpointID = getEnv("ENDPOINT_ID", c.EndpointID)
	c.InferenceTimeout = getEnvDuration("INFERENCE_TIMEOUT", c.InferenceTimeout)

	c.AnalysisIntervalMs = getEnvInt("ANALYSIS_INTERVAL_MS", c.AnalysisIntervalMs)
	c.Condition = getEnv("CONDITION", c.Condition)
	c.DynamicCondition = getEnvBool("DYNAMIC_CONDITION", c.DynamicCondition)
	c.JPEGQuality = getEnvFloat("JPEG_QUALITY", c.JPEGQuality)
	c.MaxAlerts = getEnvInt("MAX_ALERTS", c.MaxAlerts)
	c.HeartbeatRate = getEnvFloat("HEARTBEAT_RATE", c.HeartbeatRate)
	c.Model.MaxTokens = getEnvInt("MODEL_MAX_TOKENS", c.Model.MaxTokens)
	c.Model.Temperature = getEnvFloat("MODEL_TEMPERATURE", c.Model.Temperature)
	c.Model.TopP = getEnvFloat("MODEL_TOP_P", c.Model.TopP)
	c.Model.TopK = getEnvInt("MODEL_TOP_K", c.Model.TopK)

	c.FrameSource = getEnv("FRAME_SOURCE", c.FrameSource)
	c.FrameMaxAge = getEnvDuration("FRAME_MAX_AGE", c.FrameMaxAge)
	c.FrameMaxWidth = getEnvInt("FRAME_MAX_WIDTH", c.FrameMaxWidth)
	c.FrameMaxPixels = getEnvInt("FRAME_MAX_PIXELS", c.FrameMaxPixels)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.RedisChannel = getEnv("REDIS_CHANNEL", c.RedisChannel)

	c.MQTTBroker = getEnv("MQTT_BROKER", c.MQTTBroker)
	c.MQTTTopic = getEnv("MQTT_TOPIC", c.MQTTTopic)
	c.MQTTClientID = getEnv("MQTT_CLIENT_ID", c.MQTTClientID)
}

// Validate resolves the endpoint URL and rejects values the loop would refuse later.
func (c *Config) Validate() error {
	if c.EndpointURL == "" && c.ProjectID != "" && c.Region != "" && c.EndpointID != "" {
		c.EndpointURL = vision.DedicatedEndpointURL(c.ProjectID, c.Region, c.EndpointID)
	}

	switch strings.ToLower(c.FrameSource) {
	case FrameSourceIngest, FrameSourcePattern:
		c.FrameSource = strings.ToLower(c.FrameSource)
	default:
		return fmt.Errorf("frame_source must be %q or %q, got %q", FrameSourceIngest, FrameSourcePattern, c.FrameSource)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", c.LogFormat)
	}

	if c.InferenceTimeout <= 0 {
		return fmt.Errorf("inference_timeout must be positive")
	}
	if c.FrameMaxWidth < 0 {
		return fmt.Errorf("frame_max_width must not be negative")
	}
	if c.FrameMaxPixels <= 0 {
		return fmt.Errorf("frame_max_pixels must be positive")
	}

	return c.Settings().Validate()
}

func (c *Config) Settings() monitor.Settings {
	return monitor.Settings{
		Interval:         time.Duration(c.AnalysisIntervalMs) * time.Millisecond,
		JPEGQuality:      c.JPEGQuality,
		MaxAlerts:        c.MaxAlerts,
		DynamicCondition: c.DynamicCondition,
		HeartbeatRate:    c.HeartbeatRate,
		Model:            c.Model,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
