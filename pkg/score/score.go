// Package score normalizes raw trend signals into bounded 0-100 scores.
//
// Two formulas are provided: one for primary search-trend signals (traffic,
// media coverage, niche keyword density, news penalty) and one for social
// platform signals (views, growth rate). Both clamp their result.
package score

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/elonfeng/nicheradar/pkg/niche"
)

// Saturation caps for the primary formula.
const (
	trafficDivisor = 16.0
	mediaCap       = 10.0
	keywordCap     = 4.0
	viewsDivisor   = 30.0
)

// Weights are linear blend coefficients. They are not required to sum to 1.
type Weights struct {
	Traffic     float64 `yaml:"traffic" json:"traffic"`
	Media       float64 `yaml:"media" json:"media"`
	Keywords    float64 `yaml:"keywords" json:"keywords"`
	NewsPenalty float64 `yaml:"news_penalty" json:"news_penalty"`
	TikTok      float64 `yaml:"tiktok" json:"tiktok"`
	Personal    float64 `yaml:"personal" json:"personal"`
}

// DefaultWeights returns the stock weight table.
func DefaultWeights() Weights {
	return Weights{
		Traffic:     0.55,
		Media:       0.15,
		Keywords:    0.20,
		NewsPenalty: 0.10,
		TikTok:      0.30,
		Personal:    0.25,
	}
}

// Validate rejects negative and non-finite weights.
func (w Weights) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"traffic", w.Traffic},
		{"media", w.Media},
		{"keywords", w.Keywords},
		{"news_penalty", w.NewsPenalty},
		{"tiktok", w.TikTok},
		{"personal", w.Personal},
	}
	for _, f := range fields {
		if f.v < 0 || math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("weight %s must be finite and non-negative, got %v", f.name, f.v)
		}
	}
	return nil
}

// DefaultNewsTerms flag politics and sports titles that trend for reasons
// unrelated to products.
var DefaultNewsTerms = []string{
	"bundestag", "wahl", "kanzler", "minister", "bundesliga",
	"em", "wm", "spiel", "tor", "transfer",
}

// NewsPattern compiles terms into a whole-word matcher for lowercased titles.
// Word boundaries are Unicode aware so "tor" does not match inside "motör".
func NewsPattern(terms []string) (*regexp.Regexp, error) {
	var quoted []string
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			quoted = append(quoted, regexp.QuoteMeta(t))
		}
	}
	if len(quoted) == 0 {
		return nil, nil
	}

	expr := `(?:^|[^\p{L}\p{N}_])(?:` + strings.Join(quoted, "|") + `)(?:[^\p{L}\p{N}_]|$)`
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile news pattern: %w", err)
	}
	return re, nil
}

// Scorer applies the weight table, niche table and news pattern to titles.
type Scorer struct {
	weights Weights
	table   *niche.Table
	news    *regexp.Regexp
}

// New creates a scorer. A nil table uses the default niches; an empty
// newsTerms list disables the news penalty.
func New(weights Weights, table *niche.Table, newsTerms []string) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		table = niche.DefaultTable()
	}
	news, err := NewsPattern(newsTerms)
	if err != nil {
		return nil, err
	}
	return &Scorer{weights: weights, table: table, news: news}, nil
}

// Default returns a scorer with all stock tables.
func Default() *Scorer {
	s, err := New(DefaultWeights(), niche.DefaultTable(), DefaultNewsTerms)
	if err != nil {
		panic(err)
	}
	return s
}

// Weights returns the weight table the scorer was built with.
func (s *Scorer) Weights() Weights { return s.weights }

// Table returns the niche table used for classification.
func (s *Scorer) Table() *niche.Table { return s.table }

// Classify delegates to the niche table.
func (s *Scorer) Classify(title string) string {
	return s.table.Classify(title)
}

// IsNews reports whether title matches the news pattern.
func (s *Scorer) IsNews(title string) bool {
	if s.news == nil {
		return false
	}
	return s.news.MatchString(strings.ToLower(title))
}

// Primary classifies a search-trend title and scores it from its traffic
// magnitude and media mention count.
func (s *Scorer) Primary(title string, traffic float64, media int) (string, float64) {
	n := s.table.Classify(title)
	hits := s.table.Hits(n, title)
	return n, PrimaryScore(s.weights, traffic, float64(media), float64(hits), s.IsNews(title))
}

// Social classifies a social-platform title and scores it from views and
// growth percentage.
func (s *Scorer) Social(title string, views, growth float64) (string, float64) {
	return s.table.Classify(title), SocialScore(s.weights, views, growth)
}

// PrimaryScore blends traffic T, media mentions M and keyword hits K, minus
// the news penalty, into [0,100].
func PrimaryScore(w Weights, traffic, media, keywords float64, news bool) float64 {
	penalty := 0.0
	if news {
		penalty = 1
	}
	v := 100 * (w.Traffic*Log2p1(traffic)/trafficDivisor +
		w.Media*math.Min(1, media/mediaCap) +
		w.Keywords*math.Min(1, keywords/keywordCap) -
		w.NewsPenalty*penalty)
	return Clamp(v)
}

// SocialScore combines log-compressed reach with growth momentum.
func SocialScore(w Weights, views, growth float64) float64 {
	v := 100 * w.TikTok * math.Min(1, Log2p1(views)/viewsDivisor+growth/100)
	return Clamp(v)
}

// Log2p1 returns log2(max(1,x)+1), defined for every input.
func Log2p1(x float64) float64 {
	if math.IsNaN(x) {
		x = 0
	}
	return math.Log2(math.Max(1, x) + 1)
}

// Clamp bounds v to [0,100]. NaN maps to 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

var leadingDigits = regexp.MustCompile(`\d+`)

// ParseTraffic reads a localized traffic string such as "500.000+" or
// "2,000+". Thousands separators are dropped and the first digit run is
// parsed. Anything unparseable is 0.
func ParseTraffic(s string) float64 {
	if s == "" {
		return 0
	}
	s = strings.NewReplacer("\u202f", "", ".", "", ",", "").Replace(s)
	m := leadingDigits.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseCount keeps only the digits of s, so "1,2M views" reads as 12.
func ParseCount(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseRate keeps digits, dots and minus signs, so "+35.5%" reads as 35.5.
func ParseRate(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsInf(v, 0) {
		return 0
	}
	return v
}
