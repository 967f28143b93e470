package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmynk/splitledger/internal/ids"
	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// MemberInput names a member to add. ID is generated when empty.
type MemberInput struct {
	ID          string
	DisplayName string
}

// CreateGroup registers a group with its initial roster.
func (s *Service) CreateGroup(ctx context.Context, name string, members []MemberInput) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ledgererr.Invalid("name", ledgererr.ErrMissingField, "")
	}
	if len(members) > s.maxMembers {
		return nil, ledgererr.Invalid("members", ledgererr.ErrGroupFull,
			"%d members requested, limit is %d", len(members), s.maxMembers)
	}

	now := s.now().Unix()
	group := &models.Group{ID: ids.NewGroup(), Name: name, CreatedAt: now}
	seen := make(map[string]bool, len(members))
	for _, in := range members {
		m, err := newMember(in, now)
		if err != nil {
			return nil, err
		}
		if seen[m.ID] {
			return nil, ledgererr.Invalid("members", ledgererr.ErrMemberExists, "%s", m.ID)
		}
		seen[m.ID] = true
		group.Members = append(group.Members, m)
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	slog.Info("Group created", "group_id", group.ID, "members", len(group.Members))
	return group, nil
}

// AddMember adds a member to a group's roster. The cap check and the insert
// happen inside the group's write section.
func (s *Service) AddMember(ctx context.Context, groupID string, in MemberInput) (*models.Group, error) {
	if groupID == "" {
		return nil, ledgererr.Invalid("group_id", ledgererr.ErrMissingField, "")
	}
	m, err := newMember(in, s.now().Unix())
	if err != nil {
		return nil, err
	}

	var group *models.Group
	err = s.guard.Do(ctx, groupID, func(ctx context.Context) error {
		g, err := s.store.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if g.HasMember(m.ID) {
			return ledgererr.Invalid("member_id", ledgererr.ErrMemberExists, "%s", m.ID)
		}
		if len(g.Members) >= s.maxMembers {
			return ledgererr.Invalid("member_id", ledgererr.ErrGroupFull, "limit is %d", s.maxMembers)
		}
		if err := s.store.AddMember(ctx, groupID, m); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return ledgererr.Invalid("member_id", ledgererr.ErrMemberExists, "%s", m.ID)
			}
			return err
		}
		g.Members = append(g.Members, m)
		group = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Member added", "group_id", groupID, "member_id", m.ID, "members", len(group.Members))
	return group, nil
}

// GetGroup returns a group and its roster.
func (s *Service) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	if groupID == "" {
		return nil, ledgererr.Invalid("group_id", ledgererr.ErrMissingField, "")
	}
	return s.store.GetGroup(ctx, groupID)
}

// ListGroups returns every group.
func (s *Service) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return s.store.ListGroups(ctx)
}

func newMember(in MemberInput, joinedAt int64) (models.Member, error) {
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return models.Member{}, ledgererr.Invalid("display_name", ledgererr.ErrMissingField, "")
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = ids.NewMember()
	}
	return models.Member{ID: id, DisplayName: name, JoinedAt: joinedAt}, nil
}
