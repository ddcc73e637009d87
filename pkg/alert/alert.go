package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/elonfeng/nicheradar/pkg/source"
	"github.com/elonfeng/nicheradar/pkg/trend"
)

// maxListed caps how many items a chat notification lists.
const maxListed = 5

// Notification is the data sent to alert destinations.
type Notification struct {
	Title    string        `json:"title"`
	Body     string        `json:"body"`
	RunID    string        `json:"run_id"`
	MinScore float64       `json:"min_score"`
	Items    []source.Item `json:"items"`
}

// FromResult builds a notification for the items of r scoring at least
// minScore. It returns nil when nothing qualifies.
func FromResult(r *trend.Result, minScore float64) *Notification {
	hot := r.Filter(trend.FilterOpts{MinScore: minScore})
	if len(hot) == 0 {
		return nil
	}

	niches := make(map[string]int)
	for _, it := range hot {
		niches[it.Niche]++
	}

	return &Notification{
		Title:    fmt.Sprintf("%d niche trends scoring %.0f+", len(hot), minScore),
		Body:     fmt.Sprintf("Top: %s (%.0f) across %d niches", hot[0].Title, hot[0].Score, len(niches)),
		RunID:    r.RunID,
		MinScore: minScore,
		Items:    hot,
	}
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return m != nil && len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// listed returns the items a chat message should show.
func listed(n *Notification) []source.Item {
	if len(n.Items) > maxListed {
		return n.Items[:maxListed]
	}
	return n.Items
}

// itemLink returns the first usable link of an item, if any.
func itemLink(it source.Item) string {
	if u, ok := it.Extra["shareUrl"].(string); ok && u != "" {
		return u
	}
	switch arts := it.Extra["articles"].(type) {
	case []source.Article:
		if len(arts) > 0 {
			return arts[0].URL
		}
	case []any:
		if len(arts) > 0 {
			if m, ok := arts[0].(map[string]any); ok {
				u, _ := m["url"].(string)
				return u
			}
		}
	}
	return ""
}
