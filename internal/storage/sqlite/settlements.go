package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const settlementColumns = `SELECT id, group_id, payer_id, payee_id, amount_cents, settled_on,
	note, created_at, idempotency_key, request_hash`

// AppendSettlement persists a new settlement to the database.
func (s *SQLiteStore) AppendSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, payer_id, payee_id, amount_cents, settled_on,
		   note, created_at, idempotency_key, request_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.PayerID, settlement.PayeeID,
		settlement.AmountCents, formatDate(settlement.Date), settlement.Note,
		settlement.CreatedAt, nullIfEmpty(settlement.IdempotencyKey), settlement.RequestHash,
	)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("settlement %s: %w", settlement.ID, storage.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// FindSettlementByKey returns the settlement created with an idempotency key, or nil.
func (s *SQLiteStore) FindSettlementByKey(ctx context.Context, groupID, key string) (*models.Settlement, error) {
	settlements, err := querySettlements(ctx, s.db,
		settlementColumns+" FROM settlements WHERE group_id = ? AND idempotency_key = ?", groupID, key)
	if err != nil {
		return nil, err
	}
	if len(settlements) == 0 {
		return nil, nil
	}
	return settlements[0], nil
}

// ListSettlements retrieves all settlements for a group, newest date first.
func (s *SQLiteStore) ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	if err := requireGroup(ctx, s.db, groupID); err != nil {
		return nil, err
	}
	return querySettlements(ctx, s.db,
		settlementColumns+" FROM settlements WHERE group_id = ? ORDER BY settled_on DESC, id DESC", groupID)
}

func querySettlements(ctx context.Context, q querier, query string, args ...any) ([]*models.Settlement, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var date string
		var key sql.NullString

		if err := rows.Scan(&settlement.ID, &settlement.GroupID, &settlement.PayerID, &settlement.PayeeID,
			&settlement.AmountCents, &date, &settlement.Note, &settlement.CreatedAt, &key,
			&settlement.RequestHash); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		if settlement.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if key.Valid {
			settlement.IdempotencyKey = key.String
		}

		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
