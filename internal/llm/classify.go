package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Error codes OpenAI puts in the body of a 429 that the langchaingo mapper
// does not know about.
var quotaCodes = []string{
	"insufficient_quota",
	"rate_limit_exceeded",
}

// ClassifyProviderError maps an error returned by the completion provider to
// an ErrorKind. Rate limits and exhausted credits are both QUOTA.
func ClassifyProviderError(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrInvalidReply) {
		return KindJSONInvalid
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindProviderError
	}
	mapped := openai.MapError(err)
	if llms.IsRateLimitError(mapped) || llms.IsQuotaExceededError(mapped) {
		return KindQuota
	}
	if llms.IsInvalidRequestError(mapped) || llms.IsAuthenticationError(mapped) {
		return KindProviderError
	}
	msg := strings.ToLower(err.Error())
	for _, code := range quotaCodes {
		if strings.Contains(msg, code) {
			return KindQuota
		}
	}
	return KindProviderError
}
