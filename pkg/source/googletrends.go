package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elonfeng/nicheradar/pkg/score"
)

// DefaultDailyTrendsURL is the German daily trending searches endpoint.
const DefaultDailyTrendsURL = "https://trends.google.com/trends/api/dailytrends?hl=de-DE&tz=120&geo=DE"

// xssiPrefix guards Google JSON responses against script inclusion.
const xssiPrefix = ")]}',"

// Article is a news link attached to a trending search.
type Article struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// GoogleTrends collects daily trending searches from the Google Trends JSON API.
type GoogleTrends struct {
	client *http.Client
	url    string
	scorer *score.Scorer
}

// NewGoogleTrends creates a new daily trends collector.
func NewGoogleTrends(url string, timeout time.Duration, scorer *score.Scorer) *GoogleTrends {
	if url == "" {
		url = DefaultDailyTrendsURL
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &GoogleTrends{
		client: &http.Client{Timeout: timeout},
		url:    url,
		scorer: scorer,
	}
}

func (g *GoogleTrends) Name() SourceType { return SourceGoogleTrends }

type dailyTrendsResponse struct {
	Default struct {
		TrendingSearchesDays []struct {
			TrendingSearches []dailySearch `json:"trendingSearches"`
		} `json:"trendingSearchesDays"`
	} `json:"default"`
}

type dailySearch struct {
	Title struct {
		Query string `json:"query"`
	} `json:"title"`
	FormattedTraffic string    `json:"formattedTraffic"`
	Articles         []Article `json:"articles"`
	ShareURL         string    `json:"shareUrl"`
}

func (g *GoogleTrends) Collect(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create google trends request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch google trends: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google trends status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read google trends: %w", err)
	}

	var data dailyTrendsResponse
	body := strings.TrimPrefix(string(raw), xssiPrefix)
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil, fmt.Errorf("decode google trends: %w", err)
	}

	var items []Item
	for _, day := range data.Default.TrendingSearchesDays {
		for _, tr := range day.TrendingSearches {
			items = append(items, g.toItem(tr))
		}
	}

	return DedupBest(items), nil
}

func (g *GoogleTrends) toItem(tr dailySearch) Item {
	title := tr.Title.Query
	traffic := score.ParseTraffic(tr.FormattedTraffic)
	n, s := g.scorer.Primary(title, traffic, len(tr.Articles))

	articles := make([]Article, 0, len(tr.Articles))
	articles = append(articles, tr.Articles...)

	return Item{
		Title:   title,
		Niche:   n,
		Score:   s,
		Sources: []string{string(SourceGoogleTrends)},
		Extra: map[string]any{
			"formattedTraffic": tr.FormattedTraffic,
			"articles":         articles,
			"shareUrl":         tr.ShareURL,
		},
	}
}
