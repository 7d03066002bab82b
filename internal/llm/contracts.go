package llm

import (
	"context"

	"github.com/joseph-ayodele/licita-control/internal/entity"
)

// ErrorKind tags why structured extraction failed.
type ErrorKind string

// Stable values; they are surfaced to API clients in the "details" field.
const (
	KindJSONInvalid   ErrorKind = "JSON_INVALID"   // reply is not the expected JSON structure
	KindQuota         ErrorKind = "QUOTA"          // provider rate/usage limit
	KindProviderError ErrorKind = "PROVIDER_ERROR" // any other provider-side failure
)

// Failure describes a failed extraction. Detail is diagnostic text for logs.
type Failure struct {
	Kind   ErrorKind
	Detail string
}

// Result is either a success carrying Fields or a failure; exactly one of
// Fields and Failure is non-nil.
type Result struct {
	Fields  *entity.LicitacaoFields
	Failure *Failure
	Raw     string // model reply as received, for logging
}

// Ok reports whether the extraction succeeded.
func (r Result) Ok() bool { return r.Failure == nil && r.Fields != nil }

// Succeeded builds a success Result.
func Succeeded(fields *entity.LicitacaoFields, raw string) Result {
	return Result{Fields: fields, Raw: raw}
}

// Failed builds a failure Result.
func Failed(kind ErrorKind, detail, raw string) Result {
	return Result{Failure: &Failure{Kind: kind, Detail: detail}, Raw: raw}
}

// StructuredExtractor is stage 2 of the pipeline: consolidated text -> licitação fields.
// Implementations never return provider or parse errors as Go errors; they are
// reported through Result.Failure.
type StructuredExtractor interface {
	Extract(ctx context.Context, text string) Result
}

// DetailNotConfigured is the failure detail reported when no provider
// credential was supplied.
const DetailNotConfigured = "api key not configured"

// Unconfigured is the extractor wired when the service starts without a
// provider credential. Every call fails with PROVIDER_ERROR.
type Unconfigured struct{}

var _ StructuredExtractor = Unconfigured{}

// Extract implements StructuredExtractor.
func (Unconfigured) Extract(context.Context, string) Result {
	return Failed(KindProviderError, DetailNotConfigured, "")
}
