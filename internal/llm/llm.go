// Package llm wraps the outbound completion-provider calls behind a single
// interface with two interchangeable bindings, selected once at startup.
package llm

import (
	"context"
	"fmt"

	"eco-menu/internal/history"
	"eco-menu/internal/media"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	Model            string
}

// Completion contains the raw generated text and usage metadata.
// The text is untrusted model output; decoding lives in the menu package.
type Completion struct {
	Text  string
	Usage TokenUsage
}

// Provider is a completion-provider binding. Implementations share the same
// logical contract and differ only in request shaping.
type Provider interface {
	Name() string

	// RecognizeIngredients asks the model to list the food items visible in
	// the image, returning the raw response text.
	RecognizeIngredients(ctx context.Context, image media.EncodedImage) (Completion, error)

	// GenerateMenu asks the model for a three-day plan consuming the given
	// ingredients while avoiding the dishes in recent history.
	GenerateMenu(ctx context.Context, ingredients []string, recent []history.Entry) (Completion, error)

	// SeedsResponseWithOpeningBrace reports whether this binding prefills
	// the assistant reply with "{", in which case the decoder must
	// re-prepend it before parsing.
	SeedsResponseWithOpeningBrace() bool
}

// ProviderError is a network or provider failure: retryable from the user's
// point of view, surfaced as a generic message.
type ProviderError struct {
	Provider string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s api error: status=%d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s api error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
