package storage

const schemaVersion = "1"

const schemaSQL = `
-- One row per invocation; finished_at and reason stay NULL while running
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    company TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    reason TEXT CHECK (reason IN ('exhausted', 'rate_limited', 'fatal', 'cancelled')),
    pages_processed INTEGER NOT NULL DEFAULT 0,
    error TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_company ON runs(company);

-- Seeds chosen during scope selection, in selection order
CREATE TABLE IF NOT EXISTS run_seeds (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    url TEXT NOT NULL,
    PRIMARY KEY (run_id, position)
);

-- Results keep discovery order through position
CREATE TABLE IF NOT EXISTS address_ranges (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    cidr TEXT NOT NULL,
    PRIMARY KEY (run_id, position),
    UNIQUE (run_id, cidr)
);

CREATE TABLE IF NOT EXISTS domain_names (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (run_id, position),
    UNIQUE (run_id, name)
);

-- One row per crawl loop iteration
CREATE TABLE IF NOT EXISTS page_visits (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    url TEXT NOT NULL,
    kind TEXT NOT NULL,
    outcome TEXT NOT NULL,
    message TEXT,
    content_hash TEXT,
    visited_at TEXT NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_page_visits_outcome ON page_visits(outcome);

-- Key-value metadata such as the schema version
CREATE TABLE IF NOT EXISTS crawl_meta (
    key TEXT PRIMARY KEY NOT NULL,
    value TEXT NOT NULL
);
`
