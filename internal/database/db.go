// Package database keeps a history of evaluations and backtests in PostgreSQL or SQLite.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/Alias1177/nicempc/internal/model"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc регистрируется как "sqlite", sqlx знает только "sqlite3"
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB represents a database connection
type DB struct {
	*sqlx.DB
	now    func() time.Time
	logger zerolog.Logger
}

// ConnectionParams selects the driver and data source
type ConnectionParams struct {
	Driver string `yaml:"driver" default:"sqlite" validate:"oneof=sqlite postgres"`
	DSN    string `yaml:"dsn" default:"file:nicempc.db?_pragma=busy_timeout(5000)"`
}

// EvaluationRecord is one stored evaluation
type EvaluationRecord struct {
	ID            string          `db:"id" json:"id"`
	Ticker        string          `db:"ticker" json:"ticker"`
	WeightedScore float64         `db:"weighted_score" json:"weighted_score"`
	Confidence    float64         `db:"confidence" json:"confidence"`
	Tier          string          `db:"tier" json:"tier"`
	Label         string          `db:"label" json:"label"`
	GuardPassed   bool            `db:"-" json:"guard_passed"`
	CreatedAt     time.Time       `db:"-" json:"created_at"`
	Payload       json.RawMessage `db:"-" json:"payload,omitempty"`
}

// BacktestRecord is one stored backtest summary
type BacktestRecord struct {
	ID             string          `db:"id" json:"id"`
	Ticker         string          `db:"ticker" json:"ticker"`
	ReturnPct      float64         `db:"return_pct" json:"return_pct"`
	WinRatePct     float64         `db:"win_rate_pct" json:"win_rate_pct"`
	TotalTrades    int             `db:"total_trades" json:"total_trades"`
	MaxDrawdownPct float64         `db:"max_drawdown_pct" json:"max_drawdown_pct"`
	CreatedAt      time.Time       `db:"-" json:"created_at"`
	Payload        json.RawMessage `db:"-" json:"payload,omitempty"`
}

// New opens the database and creates missing tables
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	switch params.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", params.Driver)
	}

	db, err := sqlx.ConnectContext(ctx, params.Driver, params.DSN)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", params.Driver, err)
	}
	if params.Driver == DriverSQLite {
		// modernc sqlite: одна запись за раз, in-memory база живёт в одном соединении
		db.SetMaxOpenConns(1)
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		DB:     db,
		now:    time.Now,
		logger: log.With().Str("component", "store").Str("driver", params.Driver).Logger(),
	}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id             TEXT PRIMARY KEY,
			ticker         TEXT NOT NULL,
			weighted_score DOUBLE PRECISION NOT NULL,
			confidence     DOUBLE PRECISION NOT NULL,
			tier           TEXT NOT NULL,
			label          TEXT NOT NULL,
			guard_passed   INTEGER NOT NULL,
			payload        TEXT NOT NULL,
			created_at     BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS evaluations_created_at ON evaluations (created_at)`,
		`CREATE TABLE IF NOT EXISTS backtests (
			id               TEXT PRIMARY KEY,
			ticker           TEXT NOT NULL,
			return_pct       DOUBLE PRECISION NOT NULL,
			win_rate_pct     DOUBLE PRECISION NOT NULL,
			total_trades     INTEGER NOT NULL,
			max_drawdown_pct DOUBLE PRECISION NOT NULL,
			payload          TEXT NOT NULL,
			created_at       BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS backtests_created_at ON backtests (created_at)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	return nil
}

// SaveEvaluation stores ev and returns its id
func (db *DB) SaveEvaluation(ctx context.Context, ev model.Evaluation) (string, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("encoding evaluation: %w", err)
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx, db.Rebind(`
		INSERT INTO evaluations (id, ticker, weighted_score, confidence, tier, label, guard_passed, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, ev.Ticker, ev.Aggregate.WeightedScore, ev.Aggregate.Confidence, ev.Tier,
		string(ev.Synthesis.Label), boolToInt(ev.Guard.AllPassed), string(payload), db.now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("saving evaluation for %s: %w", ev.Ticker, err)
	}

	db.logger.Debug().Str("id", id).Str("ticker", ev.Ticker).Msg("Evaluation stored")
	return id, nil
}

// SaveBacktest stores res and returns its id
func (db *DB) SaveBacktest(ctx context.Context, res model.BacktestResult) (string, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("encoding backtest: %w", err)
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx, db.Rebind(`
		INSERT INTO backtests (id, ticker, return_pct, win_rate_pct, total_trades, max_drawdown_pct, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		id, res.Ticker, res.ReturnPct, res.WinRatePct, res.TotalTrades, res.MaxDrawdownPct,
		string(payload), db.now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("saving backtest for %s: %w", res.Ticker, err)
	}

	db.logger.Debug().Str("id", id).Str("ticker", res.Ticker).Msg("Backtest stored")
	return id, nil
}

type evaluationRow struct {
	EvaluationRecord
	GuardPassed int    `db:"guard_passed"`
	Payload     string `db:"payload"`
	CreatedAt   int64  `db:"created_at"`
}

// RecentEvaluations returns up to limit evaluations, newest first.
// An empty ticker matches every ticker.
func (db *DB) RecentEvaluations(ctx context.Context, ticker string, limit int) ([]EvaluationRecord, error) {
	query := `SELECT id, ticker, weighted_score, confidence, tier, label, guard_passed, payload, created_at
		FROM evaluations`
	args := []any{}
	if ticker != "" {
		query += ` WHERE ticker = ?`
		args = append(args, ticker)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	var rows []evaluationRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("loading evaluations: %w", err)
	}

	out := make([]EvaluationRecord, len(rows))
	for i, r := range rows {
		rec := r.EvaluationRecord
		rec.GuardPassed = r.GuardPassed != 0
		rec.Payload = json.RawMessage(r.Payload)
		rec.CreatedAt = time.UnixMilli(r.CreatedAt).UTC()
		out[i] = rec
	}
	return out, nil
}

type backtestRow struct {
	BacktestRecord
	Payload   string `db:"payload"`
	CreatedAt int64  `db:"created_at"`
}

// RecentBacktests returns up to limit backtests, newest first
func (db *DB) RecentBacktests(ctx context.Context, ticker string, limit int) ([]BacktestRecord, error) {
	query := `SELECT id, ticker, return_pct, win_rate_pct, total_trades, max_drawdown_pct, payload, created_at
		FROM backtests`
	args := []any{}
	if ticker != "" {
		query += ` WHERE ticker = ?`
		args = append(args, ticker)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	var rows []backtestRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("loading backtests: %w", err)
	}

	out := make([]BacktestRecord, len(rows))
	for i, r := range rows {
		rec := r.BacktestRecord
		rec.Payload = json.RawMessage(r.Payload)
		rec.CreatedAt = time.UnixMilli(r.CreatedAt).UTC()
		out[i] = rec
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
