package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = `SELECT id, group_id, payer_id, total_cents, description, category,
	expense_date, split_mode, created_at, idempotency_key, request_hash`

// AppendExpense persists an expense and all of its splits in one transaction.
func (s *SQLiteStore) AppendExpense(ctx context.Context, expense *models.Expense) error {
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, payer_id, total_cents, description, category,
		   expense_date, split_mode, created_at, idempotency_key, request_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.PayerID, expense.TotalCents, expense.Description,
		string(expense.Category), formatDate(expense.Date), string(expense.SplitMode),
		expense.CreatedAt, nullIfEmpty(expense.IdempotencyKey), expense.RequestHash,
	)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, split := range expense.Splits {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO expense_splits (id, expense_id, member_id, amount_cents, position)
			 VALUES (?, ?, ?, ?, ?)`,
			split.ID, expense.ID, split.MemberID, split.AmountCents, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindExpenseByKey returns the expense created with an idempotency key, or nil.
func (s *SQLiteStore) FindExpenseByKey(ctx context.Context, groupID, key string) (*models.Expense, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	expenses, err := queryExpenses(ctx, tx,
		expenseColumns+" FROM expenses WHERE group_id = ? AND idempotency_key = ?", groupID, key)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, nil
	}
	if err := attachSplits(ctx, tx, expenses); err != nil {
		return nil, err
	}
	return expenses[0], nil
}

// ListExpenses returns a group's expenses matching filter, newest date first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, groupID string, filter models.ExpenseFilter) ([]*models.Expense, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireGroup(ctx, tx, groupID); err != nil {
		return nil, err
	}

	query := expenseColumns + " FROM expenses e WHERE group_id = ?"
	args := []any{groupID}
	if filter.ParticipantID != "" {
		query += ` AND (e.payer_id = ? OR EXISTS (
			SELECT 1 FROM expense_splits s WHERE s.expense_id = e.id AND s.member_id = ?))`
		args = append(args, filter.ParticipantID, filter.ParticipantID)
	}
	if filter.Category != "" {
		query += " AND e.category = ?"
		args = append(args, string(filter.Category))
	}
	if !filter.StartDate.IsZero() {
		query += " AND e.expense_date >= ?"
		args = append(args, formatDate(filter.StartDate))
	}
	if !filter.EndDate.IsZero() {
		query += " AND e.expense_date <= ?"
		args = append(args, formatDate(filter.EndDate))
	}
	query += " ORDER BY e.expense_date DESC, e.id DESC"

	expenses, err := queryExpenses(ctx, tx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := attachSplits(ctx, tx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func queryExpenses(ctx context.Context, q querier, query string, args ...any) ([]*models.Expense, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e := &models.Expense{}
		var category, mode, date string
		var key sql.NullString
		if err := rows.Scan(&e.ID, &e.GroupID, &e.PayerID, &e.TotalCents, &e.Description,
			&category, &date, &mode, &e.CreatedAt, &key, &e.RequestHash); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Category = models.Category(category)
		e.SplitMode = models.SplitMode(mode)
		if e.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if key.Valid {
			e.IdempotencyKey = key.String
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// attachSplits loads the splits of the given expenses in one query and
// attaches them in their original order.
func attachSplits(ctx context.Context, q querier, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[string]*models.Expense, len(expenses))
	args := make([]any, len(expenses))
	for i, e := range expenses {
		byID[e.ID] = e
		args[i] = e.ID
	}

	query := `
		SELECT id, expense_id, member_id, amount_cents
		FROM expense_splits
		WHERE expense_id IN (?` + repeatPlaceholder(len(expenses)-1) + `)
		ORDER BY expense_id, position`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sp models.Split
		if err := rows.Scan(&sp.ID, &sp.ExpenseID, &sp.MemberID, &sp.AmountCents); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		e, ok := byID[sp.ExpenseID]
		if !ok {
			return errors.New("split returned for an expense that was not requested")
		}
		e.Splits = append(e.Splits, sp)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}
	return nil
}
