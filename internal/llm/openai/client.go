package openai

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/joseph-ayodele/licita-control/internal/llm"
)

// Client implements llm.StructuredExtractor on top of a langchaingo chat model.
type Client struct {
	model  llms.Model
	tmpl   *llm.Template
	cfg    Config
	logger *slog.Logger
}

var _ llm.StructuredExtractor = (*Client)(nil)

// NewClient wires a chat model and a prompt template. A nil template uses
// llm.DefaultTemplate.
func NewClient(model llms.Model, tmpl *llm.Template, cfg Config, logger *slog.Logger) *Client {
	if tmpl == nil {
		tmpl = llm.DefaultTemplate()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		model:  model,
		tmpl:   tmpl,
		cfg:    cfg.withDefaults(),
		logger: logger.With("component", "openai-extractor"),
	}
}

// Extract sends the consolidated notice text to the model and parses the
// reply. Failures are reported through the Result, never as a Go error.
func (c *Client) Extract(ctx context.Context, text string) llm.Result {
	rid := uuid.New().String()
	start := time.Now()

	prompt := c.tmpl.Render(text)
	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", *c.cfg.Temperature,
		"text_len", len(text),
		"prompt_len", len(prompt),
		"json_mode", c.cfg.JSONMode,
	)

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, llm.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	opts := []llms.CallOption{
		llms.WithModel(c.cfg.Model),
		llms.WithTemperature(*c.cfg.Temperature),
	}
	if c.cfg.JSONMode {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := c.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		kind := llm.ClassifyProviderError(err)
		c.logger.Error("llm.extract.provider_error",
			"req_id", rid, "kind", kind, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Failed(kind, err.Error(), "")
	}
	if resp == nil || len(resp.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid, "elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Failed(llm.KindProviderError, "no choices in model response", "")
	}

	raw := resp.Choices[0].Content
	fields, err := llm.ParseReply(raw, c.logger.With("req_id", rid))
	if err != nil {
		c.logger.Error("llm.extract.invalid_json",
			"req_id", rid, "error", err, "content", llm.Truncate(raw, 2000),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Failed(llm.KindJSONInvalid, err.Error(), raw)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"numero_edital", deref(fields.NumeroEdital),
		"modalidade", deref(fields.Modalidade),
		"itens", len(fields.Itens),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.Succeeded(fields, raw)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
