// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port"` // 0 disables the admin server
}

type SharedConfig struct {
	Dir string `yaml:"dir"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type AIConfig struct {
	Provider        string `yaml:"provider"` // gemini|openai|noop; empty picks by available key
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	DiseaseModel    string `yaml:"disease_model"`
	ChatModel       string `yaml:"chat_model"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"` // 0 retries forever
	BaseBackoff time.Duration `yaml:"base_backoff"` // 0 retries on the next cycle
	MaxBackoff  time.Duration `yaml:"max_backoff"`
}

type ConsumerConfig struct {
	Interval          time.Duration `yaml:"interval"`
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
	Retry             RetryConfig   `yaml:"retry"`
}

type ProducerConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Interval    time.Duration `yaml:"interval"`
}

// PromptConfig overrides the built-in prompt templates (text/template syntax).
type PromptConfig struct {
	Disease     string `yaml:"disease"`
	Chat        string `yaml:"chat"`
	ChatContext string `yaml:"chat_context"`
}

type ClassifierConfig struct {
	URL       string        `yaml:"url"` // TF-Serving REST base URL
	Model     string        `yaml:"model"`
	ImageSize int           `yaml:"image_size"`
	Timeout   time.Duration `yaml:"timeout"`
	Labels    []string      `yaml:"labels"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Admin      AdminConfig      `yaml:"admin"`
	Shared     SharedConfig     `yaml:"shared"`
	Redis      RedisConfig      `yaml:"redis"`
	AI         AIConfig         `yaml:"ai"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
	Producer   ProducerConfig   `yaml:"producer"`
	Prompts    PromptConfig     `yaml:"prompts"`
	Classifier ClassifierConfig `yaml:"classifier"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, overlays secrets from the
// environment (and a .env file when present) and fills defaults. A missing
// file at the default path is not an error.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path == "" {
		path = DefaultPath
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		// run on defaults
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	_ = godotenv.Load()
	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.AI.GeminiKey == "" {
		cfg.AI.GeminiKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.AI.OpenAIKey == "" {
		cfg.AI.OpenAIKey = v
	}
	if v := os.Getenv("PLANT_SHARED_DIR"); v != "" {
		cfg.Shared.Dir = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Shared.Dir == "" {
		cfg.Shared.Dir = "shared"
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "plant-advisor:results"
	}
	if cfg.AI.DiseaseModel == "" {
		cfg.AI.DiseaseModel = "gemini-2.0-flash"
	}
	if cfg.AI.ChatModel == "" {
		cfg.AI.ChatModel = "gemini-1.5-pro"
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 2048
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 1
	}
	if cfg.Consumer.Interval <= 0 {
		cfg.Consumer.Interval = 2 * time.Second
	}
	if cfg.Consumer.GenerationTimeout <= 0 {
		cfg.Consumer.GenerationTimeout = 90 * time.Second
	}
	if cfg.Consumer.Retry.BaseBackoff > 0 && cfg.Consumer.Retry.MaxBackoff <= 0 {
		cfg.Consumer.Retry.MaxBackoff = 5 * time.Minute
	}
	if cfg.Producer.MaxAttempts <= 0 {
		cfg.Producer.MaxAttempts = 10
	}
	if cfg.Producer.Interval <= 0 {
		cfg.Producer.Interval = time.Second
	}
	if cfg.Classifier.Model == "" {
		cfg.Classifier.Model = "plant_disease"
	}
	if cfg.Classifier.ImageSize <= 0 {
		cfg.Classifier.ImageSize = 128
	}
	if cfg.Classifier.Timeout <= 0 {
		cfg.Classifier.Timeout = 30 * time.Second
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(c.AI.Provider) {
	case "", "gemini", "openai", "noop":
	default:
		return fmt.Errorf("ai.provider %q is not one of gemini|openai|noop", c.AI.Provider)
	}
	if c.Consumer.Retry.MaxAttempts < 0 {
		return errors.New("consumer.retry.max_attempts must not be negative")
	}
	if c.Consumer.Retry.MaxBackoff > 0 && c.Consumer.Retry.MaxBackoff < c.Consumer.Retry.BaseBackoff {
		return errors.New("consumer.retry.max_backoff must be >= base_backoff")
	}
	return nil
}
