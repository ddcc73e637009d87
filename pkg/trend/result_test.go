package trend

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/elonfeng/nicheradar/pkg/source"
)

func TestWriteAndReadResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trends.json")
	fetched := time.Date(2026, 10, 19, 8, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	r := NewResult(map[string]bool{"google": true, "tiktok_csv": false}, []source.Item{
		{Title: "Mütze", Niche: "Kleidung", Score: 55, Sources: []string{"GoogleTrends"},
			Extra: map[string]any{"shareUrl": "https://x?a=1&b=2"}},
	}, fetched)

	if r.RunID == "" {
		t.Fatal("expected run id")
	}
	if err := WriteFile(path, r); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, `"fetched_at": "2026-10-19T06:30:00Z"`) {
		t.Errorf("fetched_at should be UTC ISO-8601:\n%s", text)
	}
	if !strings.Contains(text, "Mütze") || !strings.Contains(text, "a=1&b=2") {
		t.Errorf("output should not escape unicode or HTML:\n%s", text)
	}

	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if back.RunID != r.RunID || !back.Source["google"] || back.Source["tiktok_csv"] {
		t.Errorf("metadata mismatch: %+v", back)
	}
	if len(back.Items) != 1 || back.Items[0].Extra["shareUrl"] != "https://x?a=1&b=2" {
		t.Errorf("items mismatch: %+v", back.Items)
	}
}

func TestWriteFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trends.json")

	if err := WriteFile(path, NewResult(nil, []source.Item{{Title: "a"}, {Title: "b"}}, time.Now())); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFile(path, NewResult(nil, nil, time.Now())); err != nil {
		t.Fatalf("second write: %v", err)
	}

	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(back.Items) != 0 {
		t.Errorf("file should be fully replaced, got %d items", len(back.Items))
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestEmptyResultEncodesArrays(t *testing.T) {
	data, err := json.Marshal(NewResult(nil, nil, time.Now()))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"items":[]`) || !strings.Contains(string(data), `"source":{}`) {
		t.Errorf("unexpected encoding: %s", data)
	}
}

func TestResultFilter(t *testing.T) {
	r := NewResult(nil, []source.Item{
		{Title: "a", Niche: "Kleidung", Score: 90},
		{Title: "b", Niche: "Elektronik", Score: 80},
		{Title: "c", Niche: "Kleidung", Score: 40},
		{Title: "d", Niche: "Kleidung", Score: 30},
	}, time.Now())

	if got := r.Filter(FilterOpts{Niche: "Kleidung"}); len(got) != 3 {
		t.Errorf("niche filter: %d items", len(got))
	}
	if got := r.Filter(FilterOpts{MinScore: 50}); len(got) != 2 {
		t.Errorf("score filter: %d items", len(got))
	}
	got := r.Filter(FilterOpts{Niche: "Kleidung", Limit: 2})
	if len(got) != 2 || got[1].Title != "c" {
		t.Errorf("limit filter: %+v", got)
	}
}
