// Package pipeline runs one aggregation pass: collect every source in
// order, merge and boost, then persist and announce the result.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/elonfeng/nicheradar/internal/store"
	"github.com/elonfeng/nicheradar/pkg/alert"
	"github.com/elonfeng/nicheradar/pkg/source"
	"github.com/elonfeng/nicheradar/pkg/trend"
)

// Options configures a Pipeline. Store and Alerts are optional.
type Options struct {
	Sources       []source.Source
	Sales         *source.SalesFeedback
	Engine        *trend.Engine
	OutputPath    string
	Store         store.Store
	Alerts        *alert.Manager
	AlertMinScore float64
	Logger        *log.Logger
}

// Pipeline is safe to share between the scheduler and the HTTP server;
// runs are serialized.
type Pipeline struct {
	opts Options
	log  *log.Logger
	now  func() time.Time

	mu sync.Mutex
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Engine == nil {
		opts.Engine = trend.NewEngine(0)
	}
	return &Pipeline{opts: opts, log: logger, now: time.Now}
}

// Run executes one full pass and returns the persisted result. Source and
// sales-file failures degrade to empty input; only cancellation and output
// write failures are errors.
func (p *Pipeline) Run(ctx context.Context) (*trend.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	flags := make(map[string]bool)
	lists := make([][]source.Item, 0, len(p.opts.Sources))

	for _, src := range p.opts.Sources {
		flag := src.Name().Flag()
		if _, seen := flags[flag]; !seen {
			flags[flag] = false
		}

		items, err := src.Collect(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("collect %s: %w", src.Name(), ctxErr)
		}
		if err != nil {
			p.log.Warn("source failed, using empty list", "source", src.Name(), "err", err)
			items = nil
		}

		p.log.Info("collected", "source", src.Name(), "items", len(items))
		if len(items) > 0 {
			flags[flag] = true
		}
		lists = append(lists, items)
	}

	spec := p.loadBoostSpec()
	merged := p.opts.Engine.Merge(lists, spec)
	result := trend.NewResult(flags, merged, p.now())

	if err := trend.WriteFile(p.opts.OutputPath, result); err != nil {
		return nil, fmt.Errorf("write result: %w", err)
	}
	p.log.Info("wrote result", "path", p.opts.OutputPath, "items", len(result.Items), "run", result.RunID)

	if p.opts.Store != nil {
		if err := p.opts.Store.ReplaceResult(ctx, result); err != nil {
			p.log.Error("store result", "err", err)
		}
	}

	p.announce(ctx, result)
	return result, nil
}

func (p *Pipeline) loadBoostSpec() *source.BoostSpec {
	if p.opts.Sales == nil {
		return nil
	}
	spec, err := p.opts.Sales.Load()
	if err != nil {
		p.log.Warn("ignoring sales feedback", "err", err)
		return nil
	}
	if spec != nil {
		p.log.Debug("loaded boost terms", "terms", len(spec.Terms))
	}
	return spec
}

func (p *Pipeline) announce(ctx context.Context, result *trend.Result) {
	if !p.opts.Alerts.HasNotifiers() {
		return
	}
	n := alert.FromResult(result, p.opts.AlertMinScore)
	if n == nil {
		return
	}
	if err := p.opts.Alerts.Broadcast(ctx, n); err != nil {
		p.log.Warn("alert delivery failed", "err", err)
		return
	}
	p.log.Info("alerted", "items", len(n.Items), "min_score", p.opts.AlertMinScore)
}
