package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
)

// defaultBoostWeight applies when an entry carries no weight.
const defaultBoostWeight = 1.0

// BoostTerm is a personal keyword with a confidence weight, roughly 0.8 to 1.8.
type BoostTerm struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// BoostSpec holds the personal boost terms loaded from sales feedback.
type BoostSpec struct {
	Terms []BoostTerm `json:"boost_terms"`
}

// UnmarshalJSON skips malformed entries instead of failing the whole spec.
func (b *BoostSpec) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	b.Terms = nil
	var entries []json.RawMessage
	if raw, ok := doc["boost_terms"]; !ok || json.Unmarshal(raw, &entries) != nil {
		return nil
	}

	for _, raw := range entries {
		if term, ok := parseBoostTerm(raw); ok {
			b.Terms = append(b.Terms, term)
		}
	}
	return nil
}

func parseBoostTerm(raw json.RawMessage) (BoostTerm, bool) {
	var entry map[string]any
	if err := json.Unmarshal(raw, &entry); err != nil {
		return BoostTerm{}, false
	}

	term, ok := entry["term"].(string)
	if !ok {
		return BoostTerm{}, false
	}

	weight := defaultBoostWeight
	switch w := entry["weight"].(type) {
	case nil:
	case float64:
		weight = w
	case string:
		v, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return BoostTerm{}, false
		}
		weight = v
	default:
		return BoostTerm{}, false
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return BoostTerm{}, false
	}

	return BoostTerm{Term: term, Weight: weight}, true
}

// SalesFeedback loads the private sales feedback file holding boost terms.
type SalesFeedback struct {
	path string
}

// NewSalesFeedback creates a loader for the given JSON file.
func NewSalesFeedback(path string) *SalesFeedback {
	return &SalesFeedback{path: path}
}

// Load reads the boost spec. A missing file returns nil with no error; a
// malformed file returns an error and callers treat the spec as absent.
func (s *SalesFeedback) Load() (*BoostSpec, error) {
	if s.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sales feedback %s: %w", s.path, err)
	}

	var spec BoostSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse sales feedback %s: %w", s.path, err)
	}
	return &spec, nil
}
