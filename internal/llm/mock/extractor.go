package mock

import (
	"context"
	"sync"

	"github.com/joseph-ayodele/licita-control/internal/entity"
	"github.com/joseph-ayodele/licita-control/internal/llm"
)

// MockExtractor is a test double for llm.StructuredExtractor.
type MockExtractor struct {
	// ExtractFunc is called by Extract if set.
	ExtractFunc func(ctx context.Context, text string) llm.Result

	mu    sync.Mutex
	texts []string
}

var _ llm.StructuredExtractor = (*MockExtractor)(nil)

// NewMockExtractor creates a mock extractor with default success behavior.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// WithExtractFunc sets custom behavior and returns the mock for chaining.
func (m *MockExtractor) WithExtractFunc(fn func(ctx context.Context, text string) llm.Result) *MockExtractor {
	m.ExtractFunc = fn
	return m
}

// Extract records text and returns the configured result.
func (m *MockExtractor) Extract(ctx context.Context, text string) llm.Result {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, text)
	}
	return llm.Succeeded(&entity.LicitacaoFields{Itens: []entity.Item{}}, "{}")
}

// CallCount returns the number of Extract calls.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

// Texts returns the texts passed to Extract, in call order.
func (m *MockExtractor) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}
