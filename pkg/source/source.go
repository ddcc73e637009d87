package source

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SourceType identifies which adapter an item came from. The value is also
// the provenance tag stored in Item.Sources.
type SourceType string

const (
	SourceGoogleTrends SourceType = "GoogleTrends"
	SourceTikTokCSV    SourceType = "TikTokCSV"
)

// Flag returns the key used for this source in a result's source map.
func (st SourceType) Flag() string {
	switch st {
	case SourceGoogleTrends:
		return "google"
	case SourceTikTokCSV:
		return "tiktok_csv"
	}
	return strings.ToLower(string(st))
}

// Item is a scored trend candidate. Title, Niche, Score and Sources form the
// fixed schema; origin-specific fields live in Extra and are flattened into
// the JSON object next to the fixed fields.
type Item struct {
	Title   string         `json:"title"`
	Niche   string         `json:"niche"`
	Score   float64        `json:"score"`
	Sources []string       `json:"sources"`
	Extra   map[string]any `json:"-"`
}

var fixedFields = []string{"title", "niche", "score", "sources"}

// Source is the interface every adapter must implement.
type Source interface {
	Name() SourceType
	Collect(ctx context.Context) ([]Item, error)
}

// Key returns the identity of a title: NFC-normalized, trimmed, lowercased.
func Key(title string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(title)))
}

// Clone returns a copy that shares no maps or slices with it.
func (it Item) Clone() Item {
	out := it
	out.Sources = slices.Clone(it.Sources)
	if it.Extra != nil {
		out.Extra = maps.Clone(it.Extra)
	}
	return out
}

// UnionSources adds tags to the item's source set, keeping it sorted and unique.
func (it *Item) UnionSources(tags ...string) {
	set := append(slices.Clone(it.Sources), tags...)
	slices.Sort(set)
	it.Sources = slices.Compact(set)
}

func (it Item) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(it.Extra)+len(fixedFields))
	for k, v := range it.Extra {
		obj[k] = v
	}

	sources := it.Sources
	if sources == nil {
		sources = []string{}
	}
	obj["title"] = it.Title
	obj["niche"] = it.Niche
	obj["score"] = it.Score
	obj["sources"] = sources
	return json.Marshal(obj)
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode item: %w", err)
	}

	type fixed struct {
		Title   string   `json:"title"`
		Niche   string   `json:"niche"`
		Score   float64  `json:"score"`
		Sources []string `json:"sources"`
	}
	var f fixed
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode item fields: %w", err)
	}

	*it = Item{Title: f.Title, Niche: f.Niche, Score: f.Score, Sources: f.Sources}
	for k, v := range raw {
		if slices.Contains(fixedFields, k) {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("decode item field %s: %w", k, err)
		}
		if it.Extra == nil {
			it.Extra = make(map[string]any)
		}
		it.Extra[k] = val
	}
	return nil
}

// DedupBest collapses items sharing a key, keeping the highest score.
// Items with an empty key are dropped; first-seen order is preserved.
func DedupBest(items []Item) []Item {
	index := make(map[string]int, len(items))
	out := make([]Item, 0, len(items))

	for _, it := range items {
		k := Key(it.Title)
		if k == "" {
			continue
		}
		if i, ok := index[k]; ok {
			if it.Score > out[i].Score {
				out[i] = it
			}
			continue
		}
		index[k] = len(out)
		out = append(out, it)
	}
	return out
}
