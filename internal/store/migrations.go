package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    fetched_at   TEXT NOT NULL,
    source_flags TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS items (
    position  INTEGER PRIMARY KEY,
    run_id    TEXT NOT NULL REFERENCES runs(id),
    title_key TEXT NOT NULL UNIQUE,
    title     TEXT NOT NULL,
    niche     TEXT NOT NULL,
    score     REAL NOT NULL DEFAULT 0,
    sources   TEXT NOT NULL DEFAULT '[]',
    extra     TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_items_niche ON items(niche);
CREATE INDEX IF NOT EXISTS idx_items_score ON items(score);
`
