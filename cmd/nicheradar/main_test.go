package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/elonfeng/nicheradar/pkg/source"
	"github.com/elonfeng/nicheradar/pkg/trend"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

// field returns the value printed after label in tabwriter output.
func field(out, label string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, label) {
			return strings.TrimSpace(strings.TrimPrefix(line, label))
		}
	}
	return ""
}

func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("database:\n  path: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClassifyCommand(t *testing.T) {
	cfg := writeTestConfig(t, t.TempDir())

	tests := []struct {
		title string
		niche string
		news  string
	}{
		{"iPhone 16", "Elektronik", "false"},
		{"Lederjacke Damen", "Kleidung", "false"},
		{"Bundestag Wahl", "Sonstiges", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			out := execute(t, "--config", cfg, "classify", tt.title)
			if got := field(out, "niche:"); got != tt.niche {
				t.Errorf("niche = %q, want %q\n%s", got, tt.niche, out)
			}
			if got := field(out, "news:"); got != tt.news {
				t.Errorf("news = %q, want %q", got, tt.news)
			}
		})
	}
}

func TestClassifyRequiresTitle(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"classify"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error without a title")
	}
}

func TestTrendsCommandReadsResultFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir)
	output := filepath.Join(dir, "trends.json")
	t.Setenv("NICHERADAR_OUTPUT", output)
	t.Setenv("NICHERADAR_DB_PATH", "")

	res := trend.NewResult(map[string]bool{"google": true}, []source.Item{
		{Title: "iPhone 16", Niche: "Elektronik", Score: 92, Sources: []string{"GoogleTrends", "TikTokCSV"}},
		{Title: "Lederjacke", Niche: "Kleidung", Score: 55, Sources: []string{"TikTokCSV"}},
	}, time.Now())
	if err := trend.WriteFile(output, res); err != nil {
		t.Fatal(err)
	}

	table := execute(t, "--config", cfg, "trends")
	if !strings.Contains(table, "SCORE") || !strings.Contains(table, "GoogleTrends,TikTokCSV") {
		t.Errorf("unexpected table output:\n%s", table)
	}
	if strings.Index(table, "iPhone 16") > strings.Index(table, "Lederjacke") {
		t.Errorf("items out of order:\n%s", table)
	}

	var items []source.Item
	raw := execute(t, "--config", cfg, "trends", "--json", "--niche", "Kleidung")
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("decode json output: %v\n%s", err, raw)
	}
	if len(items) != 1 || items[0].Title != "Lederjacke" {
		t.Errorf("filtered items = %+v", items)
	}
}

func TestTrendsCommandWithoutResult(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir)
	t.Setenv("NICHERADAR_OUTPUT", filepath.Join(dir, "missing.json"))
	t.Setenv("NICHERADAR_DB_PATH", "")

	out := execute(t, "--config", cfg, "trends")
	if !strings.Contains(out, "no niches found") {
		t.Errorf("unexpected output: %q", out)
	}
}
