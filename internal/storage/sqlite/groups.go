package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateGroup persists a new group and its initial roster.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, created_at) VALUES (?, ?, ?)",
		group.ID, group.Name, group.CreatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("group %s: %w", group.ID, storage.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for i, m := range group.Members {
		if err := insertMember(ctx, tx, group.ID, m, i); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AddMember appends a member to the end of a group's roster.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID string, member models.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireGroup(ctx, tx, groupID); err != nil {
		return err
	}

	var position int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM group_members WHERE group_id = ?",
		groupID,
	).Scan(&position)
	if err != nil {
		return fmt.Errorf("failed to read roster position: %w", err)
	}

	if err := insertMember(ctx, tx, groupID, member, position); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertMember(ctx context.Context, tx *sql.Tx, groupID string, m models.Member, position int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, member_id, display_name, joined_at, position)
		 VALUES (?, ?, ?, ?, ?)`,
		groupID, m.ID, m.DisplayName, m.JoinedAt, position,
	)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("member %s: %w", m.ID, storage.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID, including its roster.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return getGroup(ctx, s.db, groupID)
}

func getGroup(ctx context.Context, q querier, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := q.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgererr.NotFound("group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	rosters, err := membersByGroupIDs(ctx, q, []string{groupID})
	if err != nil {
		return nil, err
	}
	group.Members = rosters[groupID]
	return group, nil
}

// ListGroups returns every group in creation order.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM groups ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	var ids []string
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
		ids = append(ids, g.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	rosters, err := membersByGroupIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		g.Members = rosters[g.ID]
	}
	return groups, nil
}

// membersByGroupIDs loads the rosters of several groups in one query.
// Returns a map of group ID to members in join order.
func membersByGroupIDs(ctx context.Context, q querier, groupIDs []string) (map[string][]models.Member, error) {
	rosters := make(map[string][]models.Member, len(groupIDs))
	if len(groupIDs) == 0 {
		return rosters, nil
	}

	query := `
		SELECT group_id, member_id, display_name, joined_at
		FROM group_members
		WHERE group_id IN (?` + repeatPlaceholder(len(groupIDs)-1) + `)
		ORDER BY group_id, position`

	args := make([]any, len(groupIDs))
	for i, id := range groupIDs {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var groupID string
		var m models.Member
		if err := rows.Scan(&groupID, &m.ID, &m.DisplayName, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		rosters[groupID] = append(rosters[groupID], m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return rosters, nil
}
