package niche

import "strings"

// Fallback is the category for titles that match no niche keyword.
const Fallback = "Sonstiges"

// Niche is a named product category with its keyword list.
type Niche struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// DefaultNiches is the built-in niche table in classification order.
var DefaultNiches = []Niche{
	{
		Name: "Kleidung",
		Keywords: []string{
			"jacke", "lederjacke", "hose", "jeans", "shirt", "t-shirt", "sneaker",
			"pullover", "hoodie", "trikot", "kleid", "vintage", "mode", "fashion",
			"stiefel", "schuhe", "cap", "mütze", "mantel", "gürtel",
		},
	},
	{
		Name: "Elektronik",
		Keywords: []string{
			"iphone", "samsung", "xiaomi", "huawei", "smartphone", "konsole", "ps5",
			"playstation", "xbox", "nintendo", "switch", "kopfhörer", "airpods",
			"tablet", "laptop", "grafikkarte", "rtx", "ssd", "ram", "fernseher",
			"tv", "monitor", "kamera", "drohne", "router",
		},
	},
	{
		Name: "Motorrad",
		Keywords: []string{
			"motorrad", "helm", "lederkombi", "handschuh", "auspuff", "kettenkit",
			"reifen", "bmw gs", "r nine t", "ducati", "yamaha", "ktm", "honda",
			"suzuki", "kawasaki", "harley", "harley-davidson", "touring", "enduro",
			"topcase", "navihalter",
		},
	},
}

// Table maps titles to niches. A Table is never modified after construction.
type Table struct {
	niches   []Niche
	fallback string
}

// NewTable creates a table from niches in the given order. Keywords are
// lowercased; empty keywords are dropped because they would match every title.
func NewTable(niches []Niche, fallback string) *Table {
	if fallback == "" {
		fallback = Fallback
	}

	own := make([]Niche, 0, len(niches))
	for _, n := range niches {
		if n.Name == "" {
			continue
		}
		keywords := make([]string, 0, len(n.Keywords))
		for _, kw := range n.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		own = append(own, Niche{Name: n.Name, Keywords: keywords})
	}

	return &Table{niches: own, fallback: fallback}
}

// DefaultTable returns the built-in table with the Sonstiges fallback.
func DefaultTable() *Table {
	return NewTable(DefaultNiches, Fallback)
}

// Classify returns the niche with the most keyword hits in title.
// Ties keep the niche listed first; no hits at all yields the fallback.
func (t *Table) Classify(title string) string {
	lower := strings.ToLower(title)

	best, bestHits := "", 0
	for _, n := range t.niches {
		if h := countHits(n.Keywords, lower); h > bestHits {
			best, bestHits = n.Name, h
		}
	}

	if best == "" {
		return t.fallback
	}
	return best
}

// Hits counts the keywords of the named niche that occur in title.
// Unknown niches, including the fallback, have no keywords.
func (t *Table) Hits(name, title string) int {
	for _, n := range t.niches {
		if n.Name == name {
			return countHits(n.Keywords, strings.ToLower(title))
		}
	}
	return 0
}

// Names returns the niche names in table order, fallback last.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.niches)+1)
	for _, n := range t.niches {
		names = append(names, n.Name)
	}
	return append(names, t.fallback)
}

// Fallback returns the category used for unmatched titles.
func (t *Table) Fallback() string {
	return t.fallback
}

func countHits(keywords []string, lower string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits
}
