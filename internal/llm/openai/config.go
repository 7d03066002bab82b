package openai

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/joseph-ayodele/licita-control/internal/llm"
)

const (
	DefaultModel       = "gpt-4.1-mini"
	DefaultTemperature = 0.2
	DefaultTimeout     = 90 * time.Second
)

// Config for the OpenAI chat-completion client.
type Config struct {
	APIKey      string
	BaseURL     string // empty keeps the SDK default (https://api.openai.com/v1)
	Model       string
	Temperature *float64      // nil uses DefaultTemperature; 0 is a valid setting
	Timeout     time.Duration // http client timeout
	JSONMode    bool          // ask for response_format json_object
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature == nil {
		t := DefaultTemperature
		c.Temperature = &t
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// NewModel builds the langchaingo chat model used by Client. Requests go
// through llm.LoggingDoer so each provider round trip is logged.
func NewModel(cfg Config, logger *slog.Logger) (llms.Model, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(llm.NewLoggingDoer(nil, cfg.Timeout, logger)),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai: new client: %w", err)
	}
	return model, nil
}
