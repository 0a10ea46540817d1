package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/dvloznov/sms-expense-tracker/internal/store"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const expenseColumns = "id, amount, merchant, category, ts, raw_message, sender, source"

// Repository is the Postgres implementation of store.ExpenseRepository.
type Repository struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres.Open: ping: %w", err)
	}
	return db, nil
}

// NewRepository wraps an open database handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertExpense implements store.ExpenseRepository.
func (r *Repository) InsertExpense(ctx context.Context, exp *domain.Expense) error {
	if exp.ID == "" {
		return fmt.Errorf("InsertExpense: expense ID is required")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		exp.ID, exp.Amount, exp.Merchant, exp.Category, exp.Timestamp.UTC(), exp.RawMessage, exp.Sender, string(exp.Source),
	)
	if err != nil {
		return fmt.Errorf("InsertExpense: %w", err)
	}
	return nil
}

// UpdateExpense implements store.ExpenseRepository.
func (r *Repository) UpdateExpense(ctx context.Context, exp *domain.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET amount = $2, merchant = $3, category = $4, ts = $5,
		    raw_message = $6, sender = $7, source = $8
		WHERE id = $1`,
		exp.ID, exp.Amount, exp.Merchant, exp.Category, exp.Timestamp.UTC(), exp.RawMessage, exp.Sender, string(exp.Source),
	)
	if err != nil {
		return fmt.Errorf("UpdateExpense: %w", err)
	}
	return expectOneRow(res, "UpdateExpense", exp.ID)
}

// DeleteExpense implements store.ExpenseRepository.
func (r *Repository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteExpense: %w", err)
	}
	return expectOneRow(res, "DeleteExpense", id)
}

// GetExpense implements store.ExpenseRepository.
func (r *Repository) GetExpense(ctx context.Context, id string) (*domain.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id)
	exp, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetExpense %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetExpense: %w", err)
	}
	return exp, nil
}

// ListExpenses implements store.ExpenseRepository.
func (r *Repository) ListExpenses(ctx context.Context, filter domain.ExpenseFilter) ([]*domain.Expense, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListExpenses: query: %w", err)
	}
	defer rows.Close()

	var result []*domain.Expense
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("ListExpenses: scan: %w", err)
		}
		result = append(result, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListExpenses: rows: %w", err)
	}
	return result, nil
}

// TotalSpent implements store.ExpenseRepository.
func (r *Repository) TotalSpent(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	query, args := buildTotalQuery(start, end)

	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("TotalSpent: %w", err)
	}
	return total, nil
}

// Close closes the database handle.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// windowConditions renders the [start, end) bounds of a window. A zero
// bound is left open.
func windowConditions(start, end time.Time) ([]string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if !start.IsZero() {
		args = append(args, start.UTC())
		conds = append(conds, fmt.Sprintf("ts >= $%d", len(args)))
	}
	if !end.IsZero() {
		args = append(args, end.UTC())
		conds = append(conds, fmt.Sprintf("ts < $%d", len(args)))
	}
	return conds, args
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// buildListQuery renders the listing SQL for a filter with positional args.
func buildListQuery(filter domain.ExpenseFilter) (string, []interface{}) {
	conds, args := windowConditions(filter.Start, filter.End)

	var b strings.Builder
	b.WriteString("SELECT " + expenseColumns + " FROM expenses")
	b.WriteString(whereClause(conds))
	b.WriteString(" ORDER BY ts DESC, id")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

// buildTotalQuery renders the sum over a window with positional args.
func buildTotalQuery(start, end time.Time) (string, []interface{}) {
	conds, args := windowConditions(start, end)
	return "SELECT COALESCE(SUM(amount), 0) FROM expenses" + whereClause(conds), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row rowScanner) (*domain.Expense, error) {
	var (
		exp    domain.Expense
		source string
	)
	if err := row.Scan(&exp.ID, &exp.Amount, &exp.Merchant, &exp.Category, &exp.Timestamp, &exp.RawMessage, &exp.Sender, &source); err != nil {
		return nil, err
	}
	exp.Source = domain.Source(source)
	return &exp, nil
}

func expectOneRow(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, store.ErrNotFound)
	}
	return nil
}

var _ store.ExpenseRepository = (*Repository)(nil)
