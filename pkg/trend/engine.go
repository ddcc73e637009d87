package trend

import (
	"math"
	"sort"

	"github.com/elonfeng/nicheradar/pkg/score"
	"github.com/elonfeng/nicheradar/pkg/source"
)

// Engine merges scored items from several sources into one ranked list.
type Engine struct {
	personalWeight float64
}

// NewEngine creates a merge engine. personalWeight scales the boost each
// matching personal term can add.
func NewEngine(personalWeight float64) *Engine {
	if personalWeight < 0 {
		personalWeight = 0
	}
	return &Engine{personalWeight: personalWeight}
}

// Merge deduplicates items across lists by title key. Scores of repeated
// titles are added and capped at 100, so corroboration across sources ranks
// higher than any single source. Source tags are unioned; extra fields come
// from the first occurrence. Every merged item is then boosted from spec,
// clamped to [0,100] and the result sorted by score descending, ties by title.
func (e *Engine) Merge(lists [][]source.Item, spec *source.BoostSpec) []source.Item {
	index := make(map[string]int)
	var out []source.Item

	for _, list := range lists {
		for _, it := range list {
			k := source.Key(it.Title)
			if k == "" {
				continue
			}

			if i, ok := index[k]; ok {
				out[i].Score = math.Min(100, out[i].Score+it.Score)
				out[i].UnionSources(it.Sources...)
				continue
			}

			merged := it.Clone()
			merged.UnionSources()
			index[k] = len(out)
			out = append(out, merged)
		}
	}

	for i := range out {
		out[i].Score = score.Clamp(Boost(out[i].Score, out[i].Title, spec, e.personalWeight))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return source.Key(out[i].Title) < source.Key(out[j].Title)
	})

	if out == nil {
		out = []source.Item{}
	}
	return out
}
