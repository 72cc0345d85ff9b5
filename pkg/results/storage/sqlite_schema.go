package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the runs and calls tables. Timestamps and durations are
// stored as integer nanoseconds so both SQLite drivers read them back
// identically.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,

    -- Plan
    providers TEXT NOT NULL,
    trials INTEGER NOT NULL,
    user_prompt TEXT NOT NULL,
    system_prompt TEXT,
    max_tokens INTEGER,

    -- Totals
    records INTEGER NOT NULL,
    succeeded INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    total_cost REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS calls (
    run_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    trial INTEGER NOT NULL,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,

    -- Content
    user_prompt TEXT NOT NULL,
    system_prompt TEXT,
    output TEXT,
    finish_reason TEXT,

    -- Usage
    input_tokens INTEGER NOT NULL,
    cached_input_tokens INTEGER NOT NULL,
    cache_write_tokens INTEGER NOT NULL,
    output_tokens INTEGER NOT NULL,
    reasoning_tokens INTEGER NOT NULL,

    -- Cost
    uncached_input_cost REAL NOT NULL,
    cached_input_cost REAL NOT NULL,
    output_cost REAL NOT NULL,
    total_cost REAL NOT NULL,
    tier INTEGER NOT NULL,
    pricing_incomplete INTEGER NOT NULL,
    incomplete_reason TEXT,

    -- Outcome
    success INTEGER NOT NULL,
    error_kind TEXT,
    error TEXT,
    attempts INTEGER NOT NULL,
    latency_ns INTEGER NOT NULL,
    started_at INTEGER NOT NULL,

    PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_calls_provider ON calls(provider);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const insertRun = `
INSERT INTO runs (
    id, started_at, finished_at,
    providers, trials, user_prompt, system_prompt, max_tokens,
    records, succeeded, failed, total_cost
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertCall = `
INSERT INTO calls (
    run_id, seq, trial, provider, model,
    user_prompt, system_prompt, output, finish_reason,
    input_tokens, cached_input_tokens, cache_write_tokens, output_tokens, reasoning_tokens,
    uncached_input_cost, cached_input_cost, output_cost, total_cost, tier, pricing_incomplete, incomplete_reason,
    success, error_kind, error, attempts, latency_ns, started_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectRunColumns = `
SELECT id, started_at, finished_at, providers, trials, user_prompt, system_prompt, max_tokens,
       records, succeeded, failed, total_cost
FROM runs
`

const selectCalls = `
SELECT trial, provider, model,
       user_prompt, system_prompt, output, finish_reason,
       input_tokens, cached_input_tokens, cache_write_tokens, output_tokens, reasoning_tokens,
       uncached_input_cost, cached_input_cost, output_cost, total_cost, tier, pricing_incomplete, incomplete_reason,
       success, error_kind, error, attempts, latency_ns, started_at
FROM calls WHERE run_id = ? ORDER BY seq
`
