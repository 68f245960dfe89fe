package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/google/uuid"
)

const expenseColumns = `id, date, amount, vendor, description, category, reconciled_transaction_id`

// SaveExpense inserts or updates an expense, assigning an ID when empty.
func (s *Storage) SaveExpense(ctx context.Context, exp *reconcile.Expense) error {
	if exp.Amount.IsNegative() {
		return fmt.Errorf("expense amount must be non-negative, got %s", exp.Amount)
	}
	if !exp.Date.IsValid() {
		return fmt.Errorf("invalid expense date %s", exp.Date)
	}
	if exp.ID == "" {
		exp.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, date, amount, vendor, description, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			amount = excluded.amount,
			vendor = excluded.vendor,
			description = excluded.description,
			category = excluded.category
	`,
		exp.ID,
		exp.Date.String(),
		exp.Amount.String(),
		exp.Vendor,
		exp.Description,
		exp.Category,
		s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("failed to save expense %s: %w", exp.ID, err)
	}
	return nil
}

// GetExpense retrieves an expense by ID
func (s *Storage) GetExpense(ctx context.Context, id string) (*reconcile.Expense, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	exp, err := scanExpense(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("expense %s: %w", id, ErrExpenseNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense %s: %w", id, err)
	}
	return exp, nil
}

// ListExpenses returns every expense ordered by date
func (s *Storage) ListExpenses(ctx context.Context) ([]reconcile.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY date, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []reconcile.Expense{}
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *exp)
	}
	return expenses, rows.Err()
}

func scanExpense(row scanner) (*reconcile.Expense, error) {
	var (
		exp              reconcile.Expense
		dateText, amount string
		reconciled       sql.NullString
	)
	err := row.Scan(
		&exp.ID,
		&dateText,
		&amount,
		&exp.Vendor,
		&exp.Description,
		&exp.Category,
		&reconciled,
	)
	if err != nil {
		return nil, err
	}

	if exp.Date, err = parseDate(dateText); err != nil {
		return nil, err
	}
	if exp.Amount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	exp.ReconciledTransactionID = reconciled.String
	return &exp, nil
}
