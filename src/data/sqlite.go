package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jiaming2012/tradebox/src/eventmodels"
)

var _ Repository = (*SQLiteRepository)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS orders (
	id                        INTEGER PRIMARY KEY AUTOINCREMENT,
	side                      TEXT    NOT NULL,
	symbol                    TEXT    NOT NULL,
	option_type               TEXT    NOT NULL,
	strike                    REAL    NOT NULL,
	expiration                TEXT    NOT NULL,
	quantity                  INTEGER NOT NULL,
	style                     TEXT    NOT NULL,
	limit_price               REAL    NOT NULL DEFAULT 0,
	active                    INTEGER NOT NULL DEFAULT 0,
	executed                  INTEGER NOT NULL DEFAULT 0,
	emergency_fill_on_failure INTEGER NOT NULL DEFAULT 0,
	max_order_attempts        INTEGER NOT NULL,
	execute_only_after_id     INTEGER,
	deactivates_order_id      INTEGER,
	message_on_success        TEXT    NOT NULL DEFAULT '',
	message_on_failure        TEXT    NOT NULL DEFAULT '',
	instrument_id             TEXT    NOT NULL,
	instrument_symbol         TEXT    NOT NULL DEFAULT '',
	below_tick                REAL    NOT NULL DEFAULT 0,
	above_tick                REAL    NOT NULL DEFAULT 0,
	cutoff_price              REAL    NOT NULL DEFAULT 0,
	created_at                TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS executions (
	id           TEXT    PRIMARY KEY,
	order_id     INTEGER NOT NULL,
	outcome      TEXT    NOT NULL,
	report       TEXT    NOT NULL,
	started_at   TEXT    NOT NULL,
	completed_at TEXT
);

CREATE INDEX IF NOT EXISTS executions_order_id ON executions (order_id);
`

const orderColumns = `id, side, symbol, option_type, strike, expiration, quantity, style, limit_price,
	active, executed, emergency_fill_on_failure, max_order_attempts, execute_only_after_id,
	deactivates_order_id, message_on_success, message_on_failure, instrument_id, instrument_symbol,
	below_tick, above_tick, cutoff_price, created_at`

// SQLiteRepository is the embedded store used by single-user deployments.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates the schema if needed.
func NewSQLiteRepository(ctx context.Context, db *sql.DB) (*SQLiteRepository, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("NewSQLiteRepository: failed to create schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, o *eventmodels.Order) (uint, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO orders (side, symbol, option_type, strike, expiration, quantity,
		style, limit_price, active, executed, emergency_fill_on_failure, max_order_attempts, execute_only_after_id,
		deactivates_order_id, message_on_success, message_on_failure, instrument_id, instrument_symbol, below_tick,
		above_tick, cutoff_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(o.Side), o.Symbol, string(o.OptionType), o.Strike, o.Expiration, o.Quantity,
		string(o.Style), o.LimitPrice, o.Active, o.Executed, o.EmergencyFillOnFailure, o.MaxOrderAttempts, nullableID(o.ExecuteOnlyAfterID),
		nullableID(o.DeactivatesOrderID), o.MessageOnSuccess, o.MessageOnFailure, o.Instrument.ID, string(o.Instrument.Symbol), o.Instrument.BelowTick,
		o.Instrument.AboveTick, o.Instrument.CutoffPrice, o.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("SQLiteRepository.Create: failed to insert order: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("SQLiteRepository.Create: failed to read order id: %w", err)
	}

	return uint(id), nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id uint) (*eventmodels.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("SQLiteRepository.Get: order #%d: %w", id, eventmodels.ErrOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("SQLiteRepository.Get: %w", err)
	}

	return o, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM orders WHERE id = ?`, id).Scan(&count); err != nil {
		return false, fmt.Errorf("SQLiteRepository.Exists: %w", err)
	}

	return count > 0, nil
}

func (r *SQLiteRepository) SetActive(ctx context.Context, id uint, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("SQLiteRepository.SetActive: %w", err)
	}

	return requireRow(res, "SQLiteRepository.SetActive", id)
}

func (r *SQLiteRepository) SetExecuted(ctx context.Context, id uint, executed bool) error {
	if !executed {
		o, err := r.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("SQLiteRepository.SetExecuted: %w", err)
		}

		if o.Executed {
			return fmt.Errorf("SQLiteRepository.SetExecuted: order #%d: %w", id, eventmodels.ErrExecutedIsTerminal)
		}

		return nil
	}

	res, err := r.db.ExecContext(ctx, `UPDATE orders SET executed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("SQLiteRepository.SetExecuted: %w", err)
	}

	return requireRow(res, "SQLiteRepository.SetExecuted", id)
}

func (r *SQLiteRepository) ClaimForExecution(ctx context.Context, id uint, deactivates *uint) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("SQLiteRepository.ClaimForExecution: failed to begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE orders SET executed = 1, active = 0 WHERE id = ? AND active = 1 AND executed = 0`, id)
	if err != nil {
		return false, fmt.Errorf("SQLiteRepository.ClaimForExecution: failed to claim order #%d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("SQLiteRepository.ClaimForExecution: %w", err)
	}

	if n != 1 {
		return false, nil
	}

	if deactivates != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE orders SET active = 0 WHERE id = ?`, *deactivates); err != nil {
			return false, fmt.Errorf("SQLiteRepository.ClaimForExecution: failed to deactivate order #%d: %w", *deactivates, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("SQLiteRepository.ClaimForExecution: failed to commit: %w", err)
	}

	return true, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("SQLiteRepository.Delete: %w", err)
	}

	return requireRow(res, "SQLiteRepository.Delete", id)
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return fmt.Errorf("SQLiteRepository.DeleteAll: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]*eventmodels.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("SQLiteRepository.ListAll: %w", err)
	}
	defer rows.Close()

	var orders []*eventmodels.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("SQLiteRepository.ListAll: %w", err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func (r *SQLiteRepository) SaveExecution(ctx context.Context, report *eventmodels.ExecutionReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("SQLiteRepository.SaveExecution: failed to encode report: %w", err)
	}

	var completedAt sql.NullString
	if report.CompletedAt != nil {
		completedAt = sql.NullString{String: report.CompletedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO executions (id, order_id, outcome, report, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET outcome = excluded.outcome, report = excluded.report, completed_at = excluded.completed_at`,
		report.ExecutionID.String(), report.OrderID, string(report.Outcome), string(body),
		report.StartedAt.UTC().Format(time.RFC3339Nano), completedAt,
	)
	if err != nil {
		return fmt.Errorf("SQLiteRepository.SaveExecution: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) GetExecution(ctx context.Context, id uuid.UUID) (*eventmodels.ExecutionReport, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT report FROM executions WHERE id = ?`, id.String()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("SQLiteRepository.GetExecution: %s: %w", id, eventmodels.ErrExecutionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("SQLiteRepository.GetExecution: %w", err)
	}

	return decodeReport(body)
}

func (r *SQLiteRepository) ListExecutions(ctx context.Context, orderID uint) ([]*eventmodels.ExecutionReport, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT report FROM executions WHERE order_id = ? ORDER BY started_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("SQLiteRepository.ListExecutions: %w", err)
	}
	defer rows.Close()

	var reports []*eventmodels.ExecutionReport
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("SQLiteRepository.ListExecutions: %w", err)
		}

		report, err := decodeReport(body)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*eventmodels.Order, error) {
	var (
		o                   eventmodels.Order
		executeAfter, deact sql.NullInt64
		instrumentSymbol    string
		createdAt           string
	)

	err := row.Scan(&o.ID, &o.Side, &o.Symbol, &o.OptionType, &o.Strike, &o.Expiration, &o.Quantity, &o.Style, &o.LimitPrice,
		&o.Active, &o.Executed, &o.EmergencyFillOnFailure, &o.MaxOrderAttempts, &executeAfter,
		&deact, &o.MessageOnSuccess, &o.MessageOnFailure, &o.Instrument.ID, &instrumentSymbol,
		&o.Instrument.BelowTick, &o.Instrument.AboveTick, &o.Instrument.CutoffPrice, &createdAt)
	if err != nil {
		return nil, err
	}

	o.Instrument.Symbol = eventmodels.OptionSymbol(instrumentSymbol)
	o.ExecuteOnlyAfterID = idFromNull(executeAfter)
	o.DeactivatesOrderID = idFromNull(deact)

	if o.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
	}

	return &o, nil
}

func decodeReport(body string) (*eventmodels.ExecutionReport, error) {
	var report eventmodels.ExecutionReport
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, fmt.Errorf("failed to decode execution report: %w", err)
	}

	return &report, nil
}

func requireRow(res sql.Result, op string, id uint) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: order #%d: %w", op, id, eventmodels.ErrOrderNotFound)
	}

	return nil
}

func nullableID(id *uint) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func idFromNull(v sql.NullInt64) *uint {
	if !v.Valid {
		return nil
	}

	return eventmodels.UintPtr(uint(v.Int64))
}
