package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elonfeng/nicheradar/pkg/score"
)

const trendsRSSBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:ht="https://trends.google.com/trending/rss" version="2.0">
  <channel>
    <title>Daily Search Trends</title>
    <item>
      <title>PS5 Pro</title>
      <ht:approx_traffic>50.000+</ht:approx_traffic>
      <link>https://trends.google.com/trending/rss?geo=DE</link>
      <ht:news_item>
        <ht:news_item_title>PS5 Pro im Test</ht:news_item_title>
        <ht:news_item_url>https://example.com/ps5</ht:news_item_url>
      </ht:news_item>
      <ht:news_item>
        <ht:news_item_title>Preis gesenkt</ht:news_item_title>
        <ht:news_item_url>https://example.com/preis</ht:news_item_url>
      </ht:news_item>
    </item>
    <item>
      <title>Wetter</title>
      <ht:approx_traffic>nope</ht:approx_traffic>
    </item>
  </channel>
</rss>`

func TestTrendsRSSCollect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(trendsRSSBody))
	}))
	defer srv.Close()

	r := NewTrendsRSS(srv.URL, 0, score.Default())
	items, err := r.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	ps5 := items[0]
	if ps5.Title != "PS5 Pro" || ps5.Niche != "Elektronik" {
		t.Errorf("unexpected item: %+v", ps5)
	}
	want := score.PrimaryScore(score.DefaultWeights(), 50000, 2, 1, false)
	if ps5.Score != want {
		t.Errorf("score = %v, want %v", ps5.Score, want)
	}
	arts, ok := ps5.Extra["articles"].([]Article)
	if !ok || len(arts) != 2 || arts[0].URL != "https://example.com/ps5" {
		t.Errorf("articles = %#v", ps5.Extra["articles"])
	}
	if ps5.Extra["formattedTraffic"] != "50.000+" {
		t.Errorf("formattedTraffic = %v", ps5.Extra["formattedTraffic"])
	}

	// Unparseable traffic degrades to zero, not an error.
	if got, want := items[1].Score, score.PrimaryScore(score.DefaultWeights(), 0, 0, 0, false); got != want {
		t.Errorf("weather score = %v, want %v", got, want)
	}
}
