package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/elonfeng/nicheradar/pkg/score"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// DefaultTrendsRSSURL is the German trending searches RSS feed.
const DefaultTrendsRSSURL = "https://trends.google.com/trending/rss?geo=DE"

// trendsNS is the prefix Google uses for its trend extension elements.
const trendsNS = "ht"

// TrendsRSS collects trending searches from the Google Trends RSS feed.
// It produces the same item shape as GoogleTrends: traffic comes from
// ht:approx_traffic and media mentions from ht:news_item.
type TrendsRSS struct {
	client *http.Client
	parser *gofeed.Parser
	url    string
	scorer *score.Scorer
}

// NewTrendsRSS creates a new RSS trends collector.
func NewTrendsRSS(url string, timeout time.Duration, scorer *score.Scorer) *TrendsRSS {
	if url == "" {
		url = DefaultTrendsRSSURL
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &TrendsRSS{
		client: &http.Client{Timeout: timeout},
		parser: gofeed.NewParser(),
		url:    url,
		scorer: scorer,
	}
}

func (r *TrendsRSS) Name() SourceType { return SourceGoogleTrends }

func (r *TrendsRSS) Collect(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create trends rss request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch trends rss: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trends rss status %d", resp.StatusCode)
	}

	feed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse trends rss: %w", err)
	}

	var items []Item
	for _, entry := range feed.Items {
		items = append(items, r.toItem(entry))
	}
	return DedupBest(items), nil
}

func (r *TrendsRSS) toItem(entry *gofeed.Item) Item {
	trend := entry.Extensions[trendsNS]

	formatted := extValue(trend, "approx_traffic")
	articles := make([]Article, 0)
	for _, news := range trend["news_item"] {
		articles = append(articles, Article{
			Title: extValue(news.Children, "news_item_title"),
			URL:   extValue(news.Children, "news_item_url"),
		})
	}

	n, s := r.scorer.Primary(entry.Title, score.ParseTraffic(formatted), len(articles))

	return Item{
		Title:   entry.Title,
		Niche:   n,
		Score:   s,
		Sources: []string{string(SourceGoogleTrends)},
		Extra: map[string]any{
			"formattedTraffic": formatted,
			"articles":         articles,
			"shareUrl":         entry.Link,
		},
	}
}

func extValue(m map[string][]ext.Extension, name string) string {
	if vals := m[name]; len(vals) > 0 {
		return vals[0].Value
	}
	return ""
}
