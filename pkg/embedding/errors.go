package embedding

import (
	"errors"
	"fmt"
	"strings"
)

// ErrContextLengthExceeded signals the provider rejected the input for
// being too large for a single call. Always handled locally by splitting;
// never surfaced to callers of the Embedder.
var ErrContextLengthExceeded = errors.New("embedding input exceeds provider context length")

// ProviderError is a fatal provider failure after retries are exhausted.
// This is the only error class the Embedder surfaces.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s unavailable: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// isContextLengthBody sniffs provider error bodies for the context-length
// failure class. Providers phrase it differently; this covers the shapes
// seen from Ollama, Gemini and OpenAI-compatible APIs.
func isContextLengthBody(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range []string{
		"context length",
		"maximum context",
		"input is too large",
		"input too long",
		"token limit",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
