package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/google/uuid"
)

const transactionColumns = `id, import_id, source, date, amount, description,
	status, matched_expense_id, created_at, updated_at`

// CreateBatch inserts every transaction in one SQL transaction. On success
// each value gets its ID, pending status and timestamps.
func (s *Storage) CreateBatch(ctx context.Context, txs []*reconcile.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	for i, t := range txs {
		if t.Amount.IsNegative() {
			return fmt.Errorf("transaction %d: amount must be non-negative, got %s", i, t.Amount)
		}
		if !t.Date.IsValid() {
			return fmt.Errorf("transaction %d: invalid date %s", i, t.Date)
		}
	}

	now := s.timestamp()
	ids := make([]string, len(txs))

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, t := range txs {
			ids[i] = t.ID
			if ids[i] == "" {
				ids[i] = uuid.NewString()
			}

			_, err := stmt.ExecContext(ctx,
				ids[i],
				nullString(t.ImportID),
				string(sourceOrDefault(t.Source)),
				t.Date.String(),
				t.Amount.String(),
				t.Description,
				string(reconcile.StatusPending),
				now,
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert transaction %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i, t := range txs {
		t.ID = ids[i]
		t.Source = sourceOrDefault(t.Source)
		t.Status = reconcile.StatusPending
		t.MatchedExpenseID = ""
		t.CreatedAt = now
		t.UpdatedAt = now
	}
	return nil
}

func sourceOrDefault(source reconcile.Source) reconcile.Source {
	if source == "" {
		return reconcile.SourceCSV
	}
	return source
}

// GetTransaction retrieves a transaction by ID
func (s *Storage) GetTransaction(ctx context.Context, id string) (*reconcile.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	t, err := scanTransaction(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return t, nil
}

// ListTransactions returns transactions in statement date order.
func (s *Storage) ListTransactions(ctx context.Context, filter TransactionFilter) (*TransactionListResult, error) {
	where := " WHERE 1=1"
	var args []any

	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.ImportID != "" {
		where += " AND import_id = ?"
		args = append(args, filter.ImportID)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` ORDER BY date, rowid`
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	} else if filter.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	result := &TransactionListResult{
		Transactions: []reconcile.Transaction{},
		TotalCount:   total,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result.Transactions = append(result.Transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return result, nil
}

// ConfirmMatch moves a pending transaction to matched and stamps the expense,
// both in one SQL transaction.
func (s *Storage) ConfirmMatch(ctx context.Context, txID, expenseID string) (*reconcile.Transaction, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.applyTransition(ctx, tx, txID, reconcile.EventConfirm, expenseID); err != nil {
			return err
		}

		var claimedBy sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT reconciled_transaction_id FROM expenses WHERE id = ?`, expenseID,
		).Scan(&claimedBy)
		if isNoRows(err) {
			return fmt.Errorf("expense %s: %w", expenseID, ErrExpenseNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load expense %s: %w", expenseID, err)
		}
		if claimedBy.Valid && claimedBy.String != txID {
			// A stamp left behind by a deleted or unmatched transaction is not a claim
			var live int
			err := tx.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM transactions
				WHERE id = ? AND status = ? AND matched_expense_id = ?
			`, claimedBy.String, string(reconcile.StatusMatched), expenseID).Scan(&live)
			if err != nil {
				return fmt.Errorf("failed to check expense claim: %w", err)
			}
			if live > 0 {
				return fmt.Errorf("expense %s claimed by %s: %w", expenseID, claimedBy.String, ErrExpenseClaimed)
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE expenses SET reconciled_transaction_id = ? WHERE id = ?`, txID, expenseID)
		if err != nil {
			return fmt.Errorf("failed to stamp expense %s: %w", expenseID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, txID)
}

// FlagDiscrepancy moves a pending transaction to discrepancy.
func (s *Storage) FlagDiscrepancy(ctx context.Context, txID string) (*reconcile.Transaction, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.applyTransition(ctx, tx, txID, reconcile.EventFlag, "")
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, txID)
}

// Unmatch reverts a matched or flagged transaction to pending and clears
// the expense stamp that pointed at it.
func (s *Storage) Unmatch(ctx context.Context, txID string) (*reconcile.Transaction, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.applyTransition(ctx, tx, txID, reconcile.EventUnmatch, ""); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE expenses SET reconciled_transaction_id = NULL WHERE reconciled_transaction_id = ?`, txID)
		if err != nil {
			return fmt.Errorf("failed to clear expense stamp: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, txID)
}

// applyTransition is a compare-and-set on status: the UPDATE only matches
// rows whose current status allows the event. expenseID is stored when the
// target status is matched and cleared otherwise.
func (s *Storage) applyTransition(ctx context.Context, tx *sql.Tx, txID string, event reconcile.Event, expenseID string) error {
	from := reconcile.AllowedFrom(event)
	if len(from) == 0 {
		return fmt.Errorf("%w: %s", reconcile.ErrInvalidTransition, event)
	}
	to, err := reconcile.Transition(from[0], event)
	if err != nil {
		return err
	}

	linked := sql.NullString{}
	if to == reconcile.StatusMatched {
		linked = nullString(expenseID)
	}

	args := []any{string(to), linked, s.timestamp(), txID}
	for _, status := range from {
		args = append(args, string(status))
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = ?, matched_expense_id = ?, updated_at = ?
		WHERE id = ? AND status IN (`+placeholders(len(from))+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to %s transaction %s: %w", event, txID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Nothing changed: either the row is gone or its status forbids the event
	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM transactions WHERE id = ?`, txID).Scan(&current)
	if isNoRows(err) {
		return fmt.Errorf("transaction %s: %w", txID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load transaction %s: %w", txID, err)
	}
	if _, err := reconcile.Transition(reconcile.Status(current), event); err != nil {
		return fmt.Errorf("transaction %s: %w", txID, err)
	}
	return fmt.Errorf("transaction %s: %w: concurrent update", txID, reconcile.ErrInvalidTransition)
}

// DeleteTransaction removes a transaction permanently. Any expense stamp
// pointing at it is left as it was.
func (s *Storage) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetStats returns aggregate statistics. Amounts are summed in decimal,
// not by SQLite, because they are stored as text.
func (s *Storage) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	rows, err := s.db.QueryContext(ctx, `SELECT status, amount FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, amountText string
		if err := rows.Scan(&status, &amountText); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		amount, err := parseAmount(amountText)
		if err != nil {
			return nil, err
		}
		stats.add(reconcile.Status(status), amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stats rows: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(reconciled_transaction_id) FROM expenses
	`).Scan(&stats.ExpenseCount, &stats.ReconciledExpenses)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense stats: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM import_runs`).Scan(&stats.ImportRuns); err != nil {
		return nil, fmt.Errorf("failed to query import stats: %w", err)
	}

	return stats, nil
}

func scanTransaction(row scanner) (*reconcile.Transaction, error) {
	var (
		t                 reconcile.Transaction
		importID, matched sql.NullString
		source, status    string
		dateText, amount  string
	)

	err := row.Scan(
		&t.ID,
		&importID,
		&source,
		&dateText,
		&amount,
		&t.Description,
		&status,
		&matched,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if t.Date, err = parseDate(dateText); err != nil {
		return nil, err
	}
	if t.Amount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	t.ImportID = importID.String
	t.Source = reconcile.Source(source)
	t.Status = reconcile.Status(status)
	t.MatchedExpenseID = matched.String
	return &t, nil
}
