package llm

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

const (
	// Placeholder is replaced with the consolidated document text.
	Placeholder = "{{TEXTO}}"

	// MaxInputChars caps the text sent to the model; the tail is dropped.
	MaxInputChars = 120_000

	// SystemPrompt is the fixed system role of every extraction request.
	SystemPrompt = "Você é um especialista em licitações públicas."
)

//go:embed prompts/licitacao_prompt.txt
var defaultTemplate string

// ErrTemplateMissingPlaceholder is returned for templates without Placeholder.
var ErrTemplateMissingPlaceholder = errors.New("prompt template has no " + Placeholder + " placeholder")

// Template is the user-prompt template sent with every extraction request.
type Template struct {
	text string
}

// DefaultTemplate returns the template compiled into the binary.
func DefaultTemplate() *Template {
	return &Template{text: defaultTemplate}
}

// NewTemplate validates text and wraps it as a Template.
func NewTemplate(text string) (*Template, error) {
	if !strings.Contains(text, Placeholder) {
		return nil, ErrTemplateMissingPlaceholder
	}
	return &Template{text: text}, nil
}

// LoadTemplate reads a template from path; an empty path yields DefaultTemplate.
func LoadTemplate(path string) (*Template, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTemplate(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	return NewTemplate(string(b))
}

// Render substitutes the (truncated) document text into the template.
func (t *Template) Render(text string) string {
	return strings.ReplaceAll(t.text, Placeholder, Truncate(text, MaxInputChars))
}

// Truncate keeps at most max characters (runes) of s.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
