package optimizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/carbon-assistant/server/internal/agent/model"
)

// ErrFallbackRequired marks backend output that cannot be used as-is.
var ErrFallbackRequired = errors.New("fallback required")

const maxPayloadLen = 64 * 1024

type suggestionPayload struct {
	Category          *string  `json:"category"`
	Suggestion        *string  `json:"suggestion"`
	PotentialSavingKG *float64 `json:"potential_saving_kg"`
}

// StripCodeFences removes a leading ``` or ```json marker and a trailing ```.
func StripCodeFences(text string) string {
	s := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = rest
		if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
			s = s[4:]
		}
	}
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutSuffix(s, "```"); ok {
		s = rest
	}
	return strings.TrimSpace(s)
}

// ParseSuggestions decodes a JSON array of suggestions. Any defect (bad JSON,
// unknown or missing field, wrong type, blank text, empty array, trailing
// data) rejects the whole payload with an error wrapping ErrFallbackRequired.
func ParseSuggestions(text string) ([]model.OptimizationSuggestion, error) {
	body := StripCodeFences(text)
	if body == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrFallbackRequired)
	}
	if len(body) > maxPayloadLen {
		return nil, fmt.Errorf("%w: payload too large (%d bytes)", ErrFallbackRequired, len(body))
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var items []*suggestionPayload
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrFallbackRequired, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after array", ErrFallbackRequired)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no suggestions", ErrFallbackRequired)
	}

	out := make([]model.OptimizationSuggestion, 0, len(items))
	for i, item := range items {
		s, err := item.validate()
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrFallbackRequired, i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (p *suggestionPayload) validate() (model.OptimizationSuggestion, error) {
	if p == nil {
		return model.OptimizationSuggestion{}, errors.New("null item")
	}
	if p.Category == nil || strings.TrimSpace(*p.Category) == "" {
		return model.OptimizationSuggestion{}, errors.New("missing category")
	}
	if p.Suggestion == nil || strings.TrimSpace(*p.Suggestion) == "" {
		return model.OptimizationSuggestion{}, errors.New("missing suggestion")
	}
	if p.PotentialSavingKG == nil {
		return model.OptimizationSuggestion{}, errors.New("missing potential_saving_kg")
	}
	if math.IsNaN(*p.PotentialSavingKG) || math.IsInf(*p.PotentialSavingKG, 0) {
		return model.OptimizationSuggestion{}, errors.New("potential_saving_kg is not finite")
	}
	return model.OptimizationSuggestion{
		Category:          strings.TrimSpace(*p.Category),
		Suggestion:        strings.TrimSpace(*p.Suggestion),
		PotentialSavingKG: *p.PotentialSavingKG,
	}, nil
}
