package llm

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

var WithChatCompleter = withChatCompleter

var (
	ClassifyError = classifyError
	IsRetryable   = isRetryable
)
