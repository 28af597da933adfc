package menu

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates the model output could not be parsed as
// JSON of the expected shape. No salvage is attempted; the caller retries
// the generation from scratch.
var ErrMalformedResponse = errors.New("could not parse model response")

// ShapeError indicates syntactically valid JSON whose day count violates
// the three-day invariant. Distinct from a parse failure: the model
// produced a plan, just not a usable one.
type ShapeError struct {
	Got int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("menu plan has %d days, want %d", e.Got, PlanDays)
}

// Decoder turns raw completion text into validated domain objects. It is
// the sole gate between untrusted model output and the typed model.
//
// When the provider seeds the assistant reply with an opening brace, the
// returned text starts after that brace and the decoder re-prepends it
// before parsing.
type Decoder struct {
	seeded bool
}

// NewDecoder creates a Decoder. seededWithOpeningBrace must match the
// provider's SeedsResponseWithOpeningBrace capability.
func NewDecoder(seededWithOpeningBrace bool) *Decoder {
	return &Decoder{seeded: seededWithOpeningBrace}
}

func (d *Decoder) reassemble(raw string) string {
	if d.seeded {
		return "{" + raw
	}
	return raw
}

// DecodeIngredients parses recognition output into an ingredient list.
func (d *Decoder) DecodeIngredients(raw string) ([]string, error) {
	text := d.reassemble(raw)

	var payload struct {
		Ingredients *[]string `json:"ingredients"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrMalformedResponse, err, text)
	}
	if payload.Ingredients == nil {
		return nil, fmt.Errorf("%w: missing ingredients field: %s", ErrMalformedResponse, text)
	}

	return *payload.Ingredients, nil
}

// DecodeMenuPlan parses generation output into a MenuPlan and enforces the
// PlanDays invariant. A wrong day count is a *ShapeError, not a parse error.
func (d *Decoder) DecodeMenuPlan(raw string) (*MenuPlan, error) {
	text := d.reassemble(raw)

	var plan MenuPlan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrMalformedResponse, err, text)
	}

	if len(plan.Days) != PlanDays {
		return nil, &ShapeError{Got: len(plan.Days)}
	}

	return &plan, nil
}
