package services

import (
	"fmt"

	"github.com/mindscreen/mindscreen/internal/instrument"
)

// ScoreResult is the outcome of scoring one set of responses.
type ScoreResult struct {
	Instrument instrument.ID `json:"instrument"`
	Total      int           `json:"total"`
	MaxTotal   int           `json:"max_total"`
	Severity   string        `json:"severity"` // band word, e.g. "Mild"
	Label      string        `json:"label"`    // rendered label, e.g. "Mild Anxiety"
}

// ReverseScore flips a raw value within the inclusive [min, max] item range.
// Raw is expected to be in range already; Score validates before flipping.
func ReverseScore(raw, min, max int) int {
	return max + min - raw
}

// Score computes the total and severity label for responses against def.
// Responses must match the instrument's item count and every value must lie
// within the declared bounds; violations are rejected, never clamped.
// Reverse-scored items are flipped before summation. Band lookup is
// first-match-wins over the ascending bands; a gap in the bands (which the
// registered instruments do not have) yields an "Unknown" label rather than
// an error.
func Score(responses []int, def *instrument.Definition) (*ScoreResult, error) {
	if def == nil {
		return nil, NewInvalidError("instrument required")
	}
	if len(responses) != len(def.Items) {
		return nil, NewInvalidError(fmt.Sprintf("expected %d responses for %s, got %d", len(def.Items), def.ID, len(responses)))
	}
	total := 0
	for i, raw := range responses {
		if raw < def.MinValue || raw > def.MaxValue {
			return nil, NewInvalidError(fmt.Sprintf("response %d out of range [%d,%d]: %d", i+1, def.MinValue, def.MaxValue, raw))
		}
		v := raw
		if def.Items[i].ReverseScored {
			v = ReverseScore(raw, def.MinValue, def.MaxValue)
		}
		total += v
	}
	severity := def.Severity(total)
	return &ScoreResult{
		Instrument: def.ID,
		Total:      total,
		MaxTotal:   def.MaxTotal(),
		Severity:   severity,
		Label:      def.Label(severity),
	}, nil
}
