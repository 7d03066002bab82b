// Package mock provides a test double for llm.StructuredExtractor.
//
// The mock lets orchestrator and handler tests run without a completion
// provider:
//
//	ext := mock.NewMockExtractor().
//	    WithExtractFunc(func(ctx context.Context, text string) llm.Result {
//	        return llm.Failed(llm.KindQuota, "429", "")
//	    })
//
// Without a custom function it returns a success carrying an empty item list.
package mock
