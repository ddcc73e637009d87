package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/elonfeng/nicheradar/pkg/score"
)

// titleColumns are tried in order to find a row's title.
var titleColumns = []string{"keyword", "hashtag", "term"}

// TikTokCSV reads an exported TikTok keyword CSV. A missing file yields no
// items rather than an error.
type TikTokCSV struct {
	path   string
	scorer *score.Scorer
}

// NewTikTokCSV creates a new CSV keyword collector.
func NewTikTokCSV(path string, scorer *score.Scorer) *TikTokCSV {
	return &TikTokCSV{path: path, scorer: scorer}
}

func (t *TikTokCSV) Name() SourceType { return SourceTikTokCSV }

func (t *TikTokCSV) Collect(ctx context.Context) ([]Item, error) {
	f, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open tiktok csv %s: %w", t.path, err)
	}
	defer f.Close()

	items, err := t.parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("parse tiktok csv %s: %w", t.path, err)
	}
	return DedupBest(items), nil
}

func (t *TikTokCSV) parse(ctx context.Context, r io.Reader) ([]Item, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var items []Item
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}

		title := ""
		for _, col := range titleColumns {
			if v := row[col]; v != "" {
				title = v
				break
			}
		}
		if title == "" {
			continue
		}

		views := score.ParseCount(row["views"])
		growth := score.ParseRate(row["growthRate"])
		n, s := t.scorer.Social(title, views, growth)

		items = append(items, Item{
			Title:   title,
			Niche:   n,
			Score:   s,
			Sources: []string{string(SourceTikTokCSV)},
			Extra: map[string]any{
				"tiktokViews":  views,
				"tiktokGrowth": growth,
			},
		})
	}
	return items, nil
}
