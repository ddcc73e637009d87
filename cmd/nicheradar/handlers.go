package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/elonfeng/nicheradar/internal/config"
	"github.com/elonfeng/nicheradar/internal/logging"
	"github.com/elonfeng/nicheradar/internal/pipeline"
	"github.com/elonfeng/nicheradar/internal/scheduler"
	"github.com/elonfeng/nicheradar/internal/store"
	"github.com/elonfeng/nicheradar/pkg/alert"
	"github.com/elonfeng/nicheradar/pkg/niche"
	"github.com/elonfeng/nicheradar/pkg/score"
	"github.com/elonfeng/nicheradar/pkg/server"
	"github.com/elonfeng/nicheradar/pkg/source"
	"github.com/elonfeng/nicheradar/pkg/trend"
)

func loadConfig() (*config.Config, *log.Logger, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logging.New(os.Stderr, cfg.Log.Level), nil
}

func buildScorer(cfg *config.Config) (*score.Scorer, error) {
	table := niche.NewTable(cfg.Scoring.Niches, cfg.Scoring.Fallback)
	return score.New(cfg.Scoring.Weights, table, cfg.Scoring.NewsTerms)
}

// buildSources returns the adapters in merge order: primary feeds first,
// then TikTok.
func buildSources(cfg *config.Config, scorer *score.Scorer) []source.Source {
	var sources []source.Source

	if gt := cfg.Sources.GoogleTrends; gt.Enabled {
		sources = append(sources, source.NewGoogleTrends(gt.URL, config.ParseTimeout(gt.Timeout), scorer))
	}
	if rss := cfg.Sources.TrendsRSS; rss.Enabled {
		sources = append(sources, source.NewTrendsRSS(rss.URL, config.ParseTimeout(rss.Timeout), scorer))
	}
	if tt := cfg.Sources.TikTokCSV; tt.Enabled {
		sources = append(sources, source.NewTikTokCSV(tt.Path, scorer))
	}

	return sources
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

// openStore returns nil when the database mirror is disabled.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Database.Path == "" {
		return nil, nil
	}
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

func buildPipeline(cfg *config.Config, db store.Store, logger *log.Logger) (*pipeline.Pipeline, error) {
	scorer, err := buildScorer(cfg)
	if err != nil {
		return nil, fmt.Errorf("build scorer: %w", err)
	}

	return pipeline.New(pipeline.Options{
		Sources:       buildSources(cfg, scorer),
		Sales:         source.NewSalesFeedback(cfg.Sources.Sales.Path),
		Engine:        trend.NewEngine(cfg.Scoring.Weights.Personal),
		OutputPath:    cfg.Output.Path,
		Store:         db,
		Alerts:        buildAlertManager(cfg),
		AlertMinScore: cfg.Alerts.MinScore,
		Logger:        logger,
	}), nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func runPipeline(parent context.Context, every time.Duration) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	p, err := buildPipeline(cfg, db, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(parent)
	defer cancel()

	if every > 0 {
		err := scheduler.New(p, every, logger).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d items to %s (google: %t, tiktok_csv: %t)\n",
		len(res.Items), cfg.Output.Path, res.Source["google"], res.Source["tiktok_csv"])
	return nil
}

func runTrends(parent context.Context, out io.Writer, jsonOutput bool, nicheName string, minScore float64, limit int) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := parent
	if ctx == nil {
		ctx = context.Background()
	}

	items, err := latestItems(ctx, cfg, trend.FilterOpts{Niche: nicheName, MinScore: minScore, Limit: limit})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "no niches found (try running the pipeline first: nicheradar run)")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tNICHE\tSOURCES\tTITLE")
	for _, it := range items {
		fmt.Fprintf(w, "%.1f\t%s\t%s\t%s\n",
			it.Score, it.Niche, strings.Join(it.Sources, ","), it.Title)
	}
	return w.Flush()
}

// latestItems reads from the database mirror when enabled and otherwise
// from the result file.
func latestItems(ctx context.Context, cfg *config.Config, opts trend.FilterOpts) ([]source.Item, error) {
	if cfg.Database.Path != "" {
		db, err := store.New(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		defer db.Close()

		limit := opts.Limit
		if limit <= 0 {
			limit = -1
		}
		items, err := db.ListItems(ctx, store.ItemListOpts{
			Niche:    opts.Niche,
			MinScore: opts.MinScore,
			Limit:    limit,
		})
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		return items, nil
	}

	res, err := trend.ReadFile(cfg.Output.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res.Filter(opts), nil
}

func runServe(parent context.Context, port int, every time.Duration) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("serve needs database.path to be set")
	}
	defer db.Close()

	p, err := buildPipeline(cfg, db, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(parent)
	defer cancel()

	if every > 0 {
		sched := scheduler.New(p, every, logger)
		go func() {
			if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("scheduler stopped", "err", err)
			}
		}()
	}

	names := niche.NewTable(cfg.Scoring.Niches, cfg.Scoring.Fallback).Names()
	srv := server.New(db, p, names, port, logger)
	return srv.ListenAndServe(ctx)
}

func runClassify(out io.Writer, title string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	scorer, err := buildScorer(cfg)
	if err != nil {
		return fmt.Errorf("build scorer: %w", err)
	}

	table := scorer.Table()
	name := scorer.Classify(title)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "niche:\t%s\n", name)
	fmt.Fprintf(w, "news:\t%t\n", scorer.IsNews(title))
	for _, n := range table.Names() {
		if n == table.Fallback() {
			continue
		}
		fmt.Fprintf(w, "hits %s:\t%d\n", n, table.Hits(n, title))
	}
	return w.Flush()
}
