package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elonfeng/nicheradar/pkg/source"
	"github.com/elonfeng/nicheradar/pkg/trend"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNoResult is returned when no run has been stored yet.
var ErrNoResult = errors.New("no result stored")

// ItemListOpts controls item listing.
type ItemListOpts struct {
	Niche    string
	MinScore float64
	Limit    int
}

// Store mirrors the latest aggregation result. Every write replaces the
// previous result entirely.
type Store interface {
	ReplaceResult(ctx context.Context, r *trend.Result) error
	LatestResult(ctx context.Context) (*trend.Result, error)
	ListItems(ctx context.Context, opts ItemListOpts) ([]source.Item, error)
	CountItemsByNiche(ctx context.Context) (map[string]int, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

type runRow struct {
	ID          string `db:"id"`
	FetchedAt   string `db:"fetched_at"`
	SourceFlags string `db:"source_flags"`
}

type itemRow struct {
	Position int     `db:"position"`
	Title    string  `db:"title"`
	Niche    string  `db:"niche"`
	Score    float64 `db:"score"`
	Sources  string  `db:"sources"`
	Extra    string  `db:"extra"`
}

const itemColumns = "position, title, niche, score, sources, extra"

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceResult(ctx context.Context, r *trend.Result) error {
	flags, err := json.Marshal(r.Source)
	if err != nil {
		return fmt.Errorf("encode source flags: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM runs"); err != nil {
		return fmt.Errorf("clear runs: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, fetched_at, source_flags) VALUES (?, ?, ?)
	`, r.RunID, r.FetchedAt.UTC().Format(time.RFC3339Nano), string(flags))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}

	for i, it := range r.Items {
		sources, _ := json.Marshal(it.Sources)
		extra, err := json.Marshal(it.Extra)
		if err != nil {
			return fmt.Errorf("encode extra for %q: %w", it.Title, err)
		}
		if it.Sources == nil {
			sources = []byte("[]")
		}
		if it.Extra == nil {
			extra = []byte("{}")
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO items (position, run_id, title_key, title, niche, score, sources, extra)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, i, r.RunID, source.Key(it.Title), it.Title, it.Niche, it.Score, string(sources), string(extra))
		if err != nil {
			return fmt.Errorf("insert item %q: %w", it.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestResult(ctx context.Context) (*trend.Result, error) {
	var run runRow
	err := s.db.GetContext(ctx, &run, "SELECT id, fetched_at, source_flags FROM runs LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoResult
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	fetchedAt, err := time.Parse(time.RFC3339Nano, run.FetchedAt)
	if err != nil {
		return nil, fmt.Errorf("parse fetched_at %q: %w", run.FetchedAt, err)
	}

	flags := map[string]bool{}
	json.Unmarshal([]byte(run.SourceFlags), &flags)

	items, err := s.ListItems(ctx, ItemListOpts{Limit: -1})
	if err != nil {
		return nil, err
	}

	return &trend.Result{
		RunID:     run.ID,
		Source:    flags,
		FetchedAt: fetchedAt,
		Items:     items,
	}, nil
}

// ListItems returns stored items in ranking order. A negative limit returns
// every item; zero uses a default of 50.
func (s *SQLiteStore) ListItems(ctx context.Context, opts ItemListOpts) ([]source.Item, error) {
	query := "SELECT " + itemColumns + " FROM items WHERE 1=1"
	var args []any

	if opts.Niche != "" {
		query += " AND niche = ?"
		args = append(args, opts.Niche)
	}
	if opts.MinScore > 0 {
		query += " AND score >= ?"
		args = append(args, opts.MinScore)
	}

	query += " ORDER BY position"

	limit := opts.Limit
	if limit == 0 {
		limit = 50
	}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	items := make([]source.Item, 0, len(rows))
	for _, row := range rows {
		it := source.Item{
			Title: row.Title,
			Niche: row.Niche,
			Score: row.Score,
		}
		json.Unmarshal([]byte(row.Sources), &it.Sources)
		json.Unmarshal([]byte(row.Extra), &it.Extra)
		if len(it.Extra) == 0 {
			it.Extra = nil
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *SQLiteStore) CountItemsByNiche(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT niche, COUNT(*) as cnt FROM items GROUP BY niche")
	if err != nil {
		return nil, fmt.Errorf("count items by niche: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var n string
		var cnt int
		if err := rows.Scan(&n, &cnt); err != nil {
			return nil, err
		}
		counts[n] = cnt
	}
	return counts, rows.Err()
}
