package source

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  iPhone 16 ", "iphone 16"},
		{"MÜTZE", "mütze"},
		// Decomposed u + combining diaeresis normalizes to the composed form.
		{"Mu\u0308tze", "mütze"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Key(tt.in); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDedupBest(t *testing.T) {
	items := []Item{
		{Title: "Hoodie", Score: 10},
		{Title: "", Score: 99},
		{Title: "hoodie ", Score: 30},
		{Title: "Jeans", Score: 5},
		{Title: "HOODIE", Score: 20},
	}

	got := DedupBest(items)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(got), got)
	}
	if got[0].Title != "hoodie " || got[0].Score != 30 {
		t.Errorf("expected best hoodie (30) first, got %+v", got[0])
	}
	if got[1].Title != "Jeans" {
		t.Errorf("expected Jeans second, got %+v", got[1])
	}
}

func TestUnionSources(t *testing.T) {
	it := Item{Sources: []string{"TikTokCSV"}}
	it.UnionSources("GoogleTrends", "TikTokCSV")

	want := []string{"GoogleTrends", "TikTokCSV"}
	if !slices.Equal(it.Sources, want) {
		t.Errorf("Sources = %v, want %v", it.Sources, want)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := Item{Title: "x", Sources: []string{"a"}, Extra: map[string]any{"k": 1}}
	c := orig.Clone()
	c.Sources[0] = "b"
	c.Extra["k"] = 2

	if orig.Sources[0] != "a" || orig.Extra["k"] != 1 {
		t.Errorf("clone mutated original: %+v", orig)
	}
}

func TestItemJSONFlattensExtra(t *testing.T) {
	it := Item{
		Title:   "iPhone 16",
		Niche:   "Elektronik",
		Score:   74.5,
		Sources: []string{"GoogleTrends"},
		Extra: map[string]any{
			"formattedTraffic": "500.000+",
			"title":            "shadowed",
		},
	}

	data, err := json.Marshal(it)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if obj["formattedTraffic"] != "500.000+" {
		t.Errorf("extra field not flattened: %s", data)
	}
	if obj["title"] != "iPhone 16" {
		t.Errorf("fixed field must win over extra, got %v", obj["title"])
	}

	var back Item
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal item: %v", err)
	}
	if back.Title != it.Title || back.Score != it.Score || back.Niche != it.Niche {
		t.Errorf("fixed fields lost: %+v", back)
	}
	if back.Extra["formattedTraffic"] != "500.000+" {
		t.Errorf("extra lost: %+v", back.Extra)
	}
	if _, ok := back.Extra["title"]; ok {
		t.Error("fixed fields must not leak into Extra")
	}
}

func TestItemJSONEmptySources(t *testing.T) {
	data, err := json.Marshal(Item{Title: "x"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := obj["sources"].([]any); !ok {
		t.Errorf("sources should encode as an array, got %s", data)
	}
}

func TestSourceFlag(t *testing.T) {
	if got := SourceGoogleTrends.Flag(); got != "google" {
		t.Errorf("google flag = %q", got)
	}
	if got := SourceTikTokCSV.Flag(); got != "tiktok_csv" {
		t.Errorf("tiktok flag = %q", got)
	}
}
