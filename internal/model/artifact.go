// Package model loads serialized linear-classifier artifacts and decodes
// their predictions into severity labels. An artifact is a JSON file holding
// per-class weight vectors and intercepts, exported from the training
// pipeline; the service never trains models itself.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrModelUnavailable marks a missing or corrupt artifact. Callers must
// treat it as a hard stop rather than guessing a label.
var ErrModelUnavailable = errors.New("model artifact unavailable")

// Artifact is the on-disk model format.
type Artifact struct {
	Target     string      `json:"target"`            // condition name, informational
	Features   []string    `json:"features"`          // expected feature order, e.g. GAD1..GAD7
	Classes    []string    `json:"classes,omitempty"` // label-encoder classes, index-aligned
	Weights    [][]float64 `json:"weights"`           // one row per class (one row total for binary)
	Intercepts []float64   `json:"intercepts"`
}

// DecodeStrategy says how a raw class index becomes a label. It is chosen
// once at load time, never by runtime probing.
type DecodeStrategy int

const (
	// DecodeIdentity stringifies the class index.
	DecodeIdentity DecodeStrategy = iota
	// DecodeEncoder uses the artifact's embedded class list.
	DecodeEncoder
	// DecodeClassIndex indexes into labels supplied by the caller.
	DecodeClassIndex
)

func (s DecodeStrategy) String() string {
	switch s {
	case DecodeEncoder:
		return "encoder"
	case DecodeClassIndex:
		return "class_index"
	default:
		return "identity"
	}
}

// Classifier predicts a class for a feature vector and decodes it to a
// label according to the strategy fixed at load time.
type Classifier struct {
	art    *Artifact
	decode DecodeStrategy
	labels []string // used by DecodeClassIndex
}

// Load reads and validates an artifact. fallbackLabels, when non-empty,
// provide class-index decoding for artifacts without an embedded class
// list. Strategy selection is deterministic: embedded classes win, then
// fallback labels, then identity.
func Load(path string, fallbackLabels []string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrModelUnavailable, path, err)
	}
	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrModelUnavailable, path, err)
	}
	if err := validate(&art); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, path, err)
	}

	decode := DecodeIdentity
	var labels []string
	switch {
	case len(art.Classes) > 0:
		decode = DecodeEncoder
	case len(fallbackLabels) > 0:
		decode = DecodeClassIndex
		labels = fallbackLabels
	}
	return &Classifier{art: &art, decode: decode, labels: labels}, nil
}

func validate(art *Artifact) error {
	if len(art.Weights) == 0 {
		return errors.New("no weight rows")
	}
	if len(art.Intercepts) != len(art.Weights) {
		return fmt.Errorf("%d intercepts for %d weight rows", len(art.Intercepts), len(art.Weights))
	}
	width := len(art.Weights[0])
	if width == 0 {
		return errors.New("empty weight row")
	}
	for i, row := range art.Weights {
		if len(row) != width {
			return fmt.Errorf("weight row %d has %d values, want %d", i, len(row), width)
		}
	}
	if len(art.Features) > 0 && len(art.Features) != width {
		return fmt.Errorf("%d feature names for %d weights", len(art.Features), width)
	}
	if len(art.Classes) > 0 {
		want := len(art.Weights)
		if want == 1 {
			want = 2 // binary model: one row, two classes
		}
		if len(art.Classes) != want {
			return fmt.Errorf("%d classes for %d-row model", len(art.Classes), len(art.Weights))
		}
	}
	return nil
}

// FeatureCount reports how many inputs the model expects.
func (c *Classifier) FeatureCount() int { return len(c.art.Weights[0]) }

// Decode reports the strategy fixed at load time.
func (c *Classifier) Decode() DecodeStrategy { return c.decode }

// Predict returns the winning class index for features. For a single-row
// model the decision is the sign of the linear score (binary logistic
// regression); otherwise it is the argmax over class scores.
func (c *Classifier) Predict(features []float64) (int, error) {
	if len(features) != c.FeatureCount() {
		return 0, fmt.Errorf("got %d features, model expects %d", len(features), c.FeatureCount())
	}
	if len(c.art.Weights) == 1 {
		if linearScore(c.art.Weights[0], c.art.Intercepts[0], features) > 0 {
			return 1, nil
		}
		return 0, nil
	}
	best, bestScore := 0, linearScore(c.art.Weights[0], c.art.Intercepts[0], features)
	for i := 1; i < len(c.art.Weights); i++ {
		if s := linearScore(c.art.Weights[i], c.art.Intercepts[i], features); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, nil
}

// PredictLabel predicts and decodes in one step.
func (c *Classifier) PredictLabel(features []float64) (string, error) {
	class, err := c.Predict(features)
	if err != nil {
		return "", err
	}
	return c.DecodeLabel(class), nil
}

// DecodeLabel turns a raw class index into a label using the strategy
// chosen at load time. Out-of-range indexes fall back to identity.
func (c *Classifier) DecodeLabel(class int) string {
	switch c.decode {
	case DecodeEncoder:
		if class >= 0 && class < len(c.art.Classes) {
			return c.art.Classes[class]
		}
	case DecodeClassIndex:
		if class >= 0 && class < len(c.labels) {
			return c.labels[class]
		}
	}
	return strconv.Itoa(class)
}

func linearScore(weights []float64, intercept float64, features []float64) float64 {
	s := intercept
	for i, w := range weights {
		s += w * features[i]
	}
	return s
}
