package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // registers "sqlite" (pure Go)

	"costlab-hq/tokenbench/pkg/experiment"
	"costlab-hq/tokenbench/pkg/providers"
	"costlab-hq/tokenbench/pkg/results"
)

// Storage drivers.
const (
	DriverMattn   = "sqlite3"
	DriverModernc = "sqlite"
	DriverMemory  = "memory"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Driver is DriverMattn or DriverModernc.
	// Default: DriverModernc
	Driver string

	// Path is the database file path. Parent directories are created.
	Path string

	// JournalMode is the SQLite journal mode.
	// Default: "WAL"
	JournalMode string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:       DriverModernc,
		Path:         "data/tokenbench.db",
		JournalMode:  "WAL",
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 4,
	}
}

// SQLiteStorage implements Storage on either SQLite driver.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database and creates the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	cfg := *config
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.JournalMode == "" {
		cfg.JournalMode = "WAL"
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 4
	}

	logger := slog.Default().With("component", "results.storage.sqlite", "driver", cfg.Driver)

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." && !strings.HasPrefix(cfg.Path, ":memory:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, results.NewStorageError(cfg.Driver, "mkdir", err)
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, results.NewStorageError(cfg.Driver, "open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	s := &SQLiteStorage{
		db:     db,
		config: &cfg,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", cfg.Path,
		"journal_mode", cfg.JournalMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// initialize applies pragmas and creates the schema.
func (s *SQLiteStorage) initialize() error {
	driver := s.config.Driver

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA journal_mode=%s;", strings.ToUpper(s.config.JournalMode))); err != nil {
		return results.NewStorageError(driver, "set_journal_mode", err)
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return results.NewStorageError(driver, "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return results.NewStorageError(driver, "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return results.NewStorageError(driver, "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return results.NewStorageError(driver, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return results.NewStorageError(driver, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// SaveRun stores the run header and its records in one transaction.
func (s *SQLiteStorage) SaveRun(ctx context.Context, res *experiment.Result) error {
	driver := s.config.Driver
	records := res.Snapshot()
	sum := summaryOf(res)

	providersJSON, err := json.Marshal(sum.Providers)
	if err != nil {
		return results.NewStorageError(driver, "save_run", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return results.NewStorageError(driver, "begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM calls WHERE run_id = ?", res.RunID); err != nil {
		return results.NewStorageError(driver, "save_run", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", res.RunID); err != nil {
		return results.NewStorageError(driver, "save_run", err)
	}

	_, err = tx.ExecContext(ctx, insertRun,
		res.RunID, res.StartedAt.UnixNano(), res.FinishedAt.UnixNano(),
		string(providersJSON), res.Plan.Trials, res.Plan.UserPrompt, nullString(res.Plan.SystemPrompt), res.Plan.MaxTokens,
		sum.Records, sum.Succeeded, sum.Failed, sum.TotalCost,
	)
	if err != nil {
		return results.NewStorageError(driver, "save_run", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertCall)
	if err != nil {
		return results.NewStorageError(driver, "prepare", err)
	}
	defer stmt.Close()

	for seq, rec := range records {
		_, err := stmt.ExecContext(ctx,
			res.RunID, seq, rec.Trial, rec.Provider, rec.Model,
			rec.UserPrompt, nullString(rec.SystemPrompt), rec.Output, nullString(rec.FinishReason),
			rec.Usage.InputTokens, rec.Usage.CachedInputTokens, rec.Usage.CacheWriteTokens,
			rec.Usage.OutputTokens, rec.Usage.ReasoningTokens,
			rec.Cost.UncachedInputCost, rec.Cost.CachedInputCost, rec.Cost.OutputCost, rec.Cost.TotalCost,
			rec.Cost.Tier, rec.Cost.PricingIncomplete, nullString(rec.Cost.IncompleteReason),
			rec.Success, nullString(string(rec.ErrorKind)), nullString(rec.Error),
			rec.Attempts, int64(rec.Latency), rec.StartedAt.UnixNano(),
		)
		if err != nil {
			return results.NewStorageError(driver, "save_call", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return results.NewStorageError(driver, "commit", err)
	}

	s.logger.Debug("run saved", "run_id", res.RunID, "records", len(records))
	return nil
}

// GetRun loads a run and its records.
func (s *SQLiteStorage) GetRun(ctx context.Context, runID string) (*experiment.Result, error) {
	driver := s.config.Driver

	row := s.db.QueryRowContext(ctx, selectRunColumns+" WHERE id = ?", runID)
	sum, plan, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, results.NewStorageError(driver, "get_run", fmt.Errorf("%w: %s", results.ErrRunNotFound, runID))
	}
	if err != nil {
		return nil, results.NewStorageError(driver, "get_run", err)
	}

	rows, err := s.db.QueryContext(ctx, selectCalls, runID)
	if err != nil {
		return nil, results.NewStorageError(driver, "get_calls", err)
	}
	defer rows.Close()

	res := &experiment.Result{
		RunID:      sum.RunID,
		Plan:       plan,
		StartedAt:  sum.StartedAt,
		FinishedAt: sum.FinishedAt,
		Records:    make([]experiment.CallRecord, 0, sum.Records),
	}
	for rows.Next() {
		rec, err := scanCall(rows)
		if err != nil {
			return nil, results.NewStorageError(driver, "scan", err)
		}
		rec.RunID = runID
		res.Records = append(res.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, results.NewStorageError(driver, "get_calls", err)
	}

	return res, nil
}

// ListRuns returns run summaries matching the query, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, query RunQuery) ([]RunSummary, error) {
	driver := s.config.Driver

	var conditions []string
	var args []interface{}
	if query.Since != nil {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, query.Since.UnixNano())
	}
	if query.Until != nil {
		conditions = append(conditions, "started_at <= ?")
		args = append(args, query.Until.UnixNano())
	}
	if query.Provider != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM calls WHERE calls.run_id = runs.id AND calls.provider = ?)")
		args = append(args, strings.ToLower(strings.TrimSpace(query.Provider)))
	}

	sqlQuery := selectRunColumns
	if len(conditions) > 0 {
		sqlQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	sqlQuery += fmt.Sprintf(" ORDER BY started_at DESC LIMIT %d", query.limit())
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, results.NewStorageError(driver, "list_runs", err)
	}
	defer rows.Close()

	summaries := []RunSummary{}
	for rows.Next() {
		sum, _, err := scanRun(rows)
		if err != nil {
			return nil, results.NewStorageError(driver, "scan", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, results.NewStorageError(driver, "list_runs", err)
	}

	return summaries, nil
}

// DeleteRunsBefore removes runs started before cutoff together with their calls.
func (s *SQLiteStorage) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	driver := s.config.Driver

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, results.NewStorageError(driver, "begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM calls WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)", cutoff.UnixNano()); err != nil {
		return 0, results.NewStorageError(driver, "delete_calls", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", cutoff.UnixNano())
	if err != nil {
		return 0, results.NewStorageError(driver, "delete_runs", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, results.NewStorageError(driver, "delete_runs", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, results.NewStorageError(driver, "commit", err)
	}
	return count, nil
}

// Close releases the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return results.NewStorageError(s.config.Driver, "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (RunSummary, experiment.Plan, error) {
	var (
		sum                   RunSummary
		plan                  experiment.Plan
		startedNs, finishedNs int64
		providersJSON         string
		systemPrompt          sql.NullString
		maxTokens             sql.NullInt64
	)

	err := row.Scan(
		&sum.RunID, &startedNs, &finishedNs,
		&providersJSON, &plan.Trials, &plan.UserPrompt, &systemPrompt, &maxTokens,
		&sum.Records, &sum.Succeeded, &sum.Failed, &sum.TotalCost,
	)
	if err != nil {
		return sum, plan, err
	}

	if err := json.Unmarshal([]byte(providersJSON), &plan.Providers); err != nil {
		return sum, plan, fmt.Errorf("decode providers: %w", err)
	}
	plan.SystemPrompt = systemPrompt.String
	plan.MaxTokens = int(maxTokens.Int64)

	sum.StartedAt = time.Unix(0, startedNs)
	sum.FinishedAt = time.Unix(0, finishedNs)
	sum.Providers = append([]string(nil), plan.Providers...)
	sum.Trials = plan.Trials

	return sum, plan, nil
}

func scanCall(row scanner) (experiment.CallRecord, error) {
	var (
		rec                                       experiment.CallRecord
		systemPrompt, output, finishReason        sql.NullString
		incompleteReason, errorKind, errorMessage sql.NullString
		latencyNs, startedNs                      int64
	)

	err := row.Scan(
		&rec.Trial, &rec.Provider, &rec.Model,
		&rec.UserPrompt, &systemPrompt, &output, &finishReason,
		&rec.Usage.InputTokens, &rec.Usage.CachedInputTokens, &rec.Usage.CacheWriteTokens,
		&rec.Usage.OutputTokens, &rec.Usage.ReasoningTokens,
		&rec.Cost.UncachedInputCost, &rec.Cost.CachedInputCost, &rec.Cost.OutputCost, &rec.Cost.TotalCost,
		&rec.Cost.Tier, &rec.Cost.PricingIncomplete, &incompleteReason,
		&rec.Success, &errorKind, &errorMessage,
		&rec.Attempts, &latencyNs, &startedNs,
	)
	if err != nil {
		return rec, err
	}

	rec.SystemPrompt = systemPrompt.String
	rec.Output = output.String
	rec.FinishReason = finishReason.String
	rec.Cost.IncompleteReason = incompleteReason.String
	rec.ErrorKind = providers.ErrorKind(errorKind.String)
	rec.Error = errorMessage.String
	rec.Latency = time.Duration(latencyNs)
	rec.StartedAt = time.Unix(0, startedNs)

	return rec, nil
}

// nullString stores empty strings as NULL.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
