package trend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/elonfeng/nicheradar/pkg/source"
	"github.com/google/uuid"
)

// Result is the output of one aggregation run.
type Result struct {
	RunID     string          `json:"run_id"`
	Source    map[string]bool `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
	Items     []source.Item   `json:"items"`
}

// NewResult assembles a result with a fresh run id. Items must already be sorted.
func NewResult(flags map[string]bool, items []source.Item, fetchedAt time.Time) *Result {
	if flags == nil {
		flags = map[string]bool{}
	}
	if items == nil {
		items = []source.Item{}
	}
	return &Result{
		RunID:     uuid.NewString(),
		Source:    flags,
		FetchedAt: fetchedAt.UTC(),
		Items:     items,
	}
}

// FilterOpts selects items from a result.
type FilterOpts struct {
	Niche    string
	MinScore float64
	Limit    int
}

// Filter returns items matching opts, keeping the result's order.
func (r *Result) Filter(opts FilterOpts) []source.Item {
	out := make([]source.Item, 0)
	for _, it := range r.Items {
		if opts.Niche != "" && it.Niche != opts.Niche {
			continue
		}
		if it.Score < opts.MinScore {
			continue
		}
		out = append(out, it)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out
}

// WriteFile replaces path with the JSON encoding of r. The file is written
// to a temporary sibling first and renamed into place.
func WriteFile(path string, r *Result) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".trends-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a result written by WriteFile.
func ReadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result %s: %w", path, err)
	}

	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse result %s: %w", path, err)
	}
	if r.Items == nil {
		r.Items = []source.Item{}
	}
	return &r, nil
}
