package alert

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elonfeng/nicheradar/pkg/source"
	"github.com/elonfeng/nicheradar/pkg/trend"
)

func sampleResult() *trend.Result {
	return trend.NewResult(map[string]bool{"google": true}, []source.Item{
		{Title: "iPhone 16", Niche: "Elektronik", Score: 95, Extra: map[string]any{"shareUrl": "https://t/1"}},
		{Title: "Lederjacke", Niche: "Kleidung", Score: 81},
		{Title: "Helm", Niche: "Motorrad", Score: 30},
	}, time.Now())
}

func TestFromResult(t *testing.T) {
	n := FromResult(sampleResult(), 80)
	if n == nil {
		t.Fatal("expected a notification")
	}
	if len(n.Items) != 2 {
		t.Errorf("expected 2 hot items, got %d", len(n.Items))
	}
	if !strings.Contains(n.Body, "iPhone 16") || !strings.Contains(n.Body, "2 niches") {
		t.Errorf("body = %q", n.Body)
	}

	if FromResult(sampleResult(), 99) != nil {
		t.Error("expected nil when nothing qualifies")
	}
}

func TestItemLink(t *testing.T) {
	tests := []struct {
		name string
		item source.Item
		want string
	}{
		{"share url", source.Item{Extra: map[string]any{"shareUrl": "https://s"}}, "https://s"},
		{"typed articles", source.Item{Extra: map[string]any{"articles": []source.Article{{URL: "https://a"}}}}, "https://a"},
		{"decoded articles", source.Item{Extra: map[string]any{"articles": []any{map[string]any{"url": "https://d"}}}}, "https://d"},
		{"none", source.Item{}, ""},
	}
	for _, tt := range tests {
		if got := itemLink(tt.item); got != tt.want {
			t.Errorf("%s: itemLink = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestWebhookSignsBody(t *testing.T) {
	var got webhookEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if sig := r.Header.Get(SignatureHeader); sig != "sha256="+Sign("s3cret", body) {
			t.Errorf("bad signature %q", sig)
		}
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := FromResult(sampleResult(), 80)
	if err := NewWebhook(srv.URL, "s3cret").Send(context.Background(), n); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.Event != "niche_trends" || got.Notification == nil || len(got.Notification.Items) != 2 {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestSlackAndDiscordPost(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
	}))
	defer srv.Close()

	m := NewManager([]Notifier{NewSlack(srv.URL), NewDiscord(srv.URL)})
	if !m.HasNotifiers() {
		t.Fatal("expected notifiers")
	}
	if err := m.Broadcast(context.Background(), FromResult(sampleResult(), 80)); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if len(bodies) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(bodies))
	}
	if !strings.Contains(bodies[0], "https://t/1|iPhone 16") {
		t.Errorf("slack body missing link: %s", bodies[0])
	}
	if !strings.Contains(bodies[1], "[iPhone 16](https://t/1)") {
		t.Errorf("discord body missing link: %s", bodies[1])
	}
}

type failing struct{}

func (failing) Name() string { return "failing" }
func (failing) Send(context.Context, *Notification) error { return errors.New("boom") }

func TestBroadcastJoinsErrors(t *testing.T) {
	err := NewManager([]Notifier{failing{}, failing{}}).Broadcast(context.Background(), &Notification{})
	if err == nil || strings.Count(err.Error(), "failing: boom") != 2 {
		t.Errorf("expected joined errors, got %v", err)
	}

	var nilMgr *Manager
	if nilMgr.HasNotifiers() {
		t.Error("nil manager has no notifiers")
	}
}
