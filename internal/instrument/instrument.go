// Package instrument holds the declarative definitions of the screening
// questionnaires the service administers. Scoring rules (bounds, reverse
// flags, severity bands) live here as data so that no component ever needs
// to inspect question text to decide how an item is scored.
package instrument

import (
	"errors"
	"fmt"
)

// ErrUnknownInstrument reports a lookup of an unregistered instrument id.
var ErrUnknownInstrument = errors.New("unknown instrument")

// ID identifies a screening instrument.
type ID string

const (
	GAD7  ID = "gad7"
	PHQ9  ID = "phq9"
	PSS10 ID = "pss10"
)

// Item is a single question of an instrument.
type Item struct {
	Code          string            `json:"code"`
	StemI18n      map[string]string `json:"stem_i18n"`
	ReverseScored bool              `json:"reverse_scored"`
}

// Band maps an inclusive total-score range to a severity word.
type Band struct {
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Severity string `json:"severity"`
}

// Definition describes one instrument: its items, per-item value bounds and
// severity cut-off bands. Bands are kept in ascending order; lookup is
// first-match-wins.
type Definition struct {
	ID       ID                `json:"id"`
	Target   string            `json:"target"` // condition name used in labels, e.g. "Anxiety"
	NameI18n map[string]string `json:"name_i18n"`
	MinValue int               `json:"min_value"`
	MaxValue int               `json:"max_value"`
	Items    []Item            `json:"items"`
	Bands    []Band            `json:"bands"`
}

// MaxTotal returns the highest total score the instrument can produce.
func (d *Definition) MaxTotal() int { return d.MaxValue * len(d.Items) }

// Severity resolves total into the severity word of the first matching band,
// or "" when no band matches.
func (d *Definition) Severity(total int) string {
	for _, b := range d.Bands {
		if total >= b.Min && total <= b.Max {
			return b.Severity
		}
	}
	return ""
}

// Label renders the user-facing severity label, e.g. "Mild Anxiety".
func (d *Definition) Label(severity string) string {
	if severity == "" {
		return "Unknown"
	}
	return severity + " " + d.Target
}

// GenericSeverity is the fallback banding for instruments without published
// cut-offs: quartiles of the achievable range.
func GenericSeverity(total, maxTotal int) string {
	if maxTotal <= 0 {
		return ""
	}
	pct := float64(total) / float64(maxTotal)
	switch {
	case pct <= 0.25:
		return "Minimal"
	case pct <= 0.5:
		return "Mild"
	case pct <= 0.75:
		return "Moderate"
	default:
		return "Severe"
	}
}

// Lookup returns the definition for id, or ErrUnknownInstrument.
func Lookup(id ID) (*Definition, error) {
	d, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstrument, id)
	}
	return d, nil
}

// MustLookup is Lookup for callers that know the id is registered.
func MustLookup(id ID) *Definition {
	d, ok := registry[id]
	if !ok {
		panic(fmt.Sprintf("instrument %q not registered", id))
	}
	return d
}

// All lists the registered definitions in a fixed order.
func All() []*Definition {
	out := make([]*Definition, 0, len(order))
	for _, id := range order {
		out = append(out, registry[id])
	}
	return out
}

var (
	registry = map[ID]*Definition{}
	order    []ID
)

func register(d *Definition) {
	registry[d.ID] = d
	order = append(order, d.ID)
}
