package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	apiconnect.UnimplementedGroupServiceHandler
	ledger *ledger.Service
}

// NewGroupService creates a new GroupService backed by the given ledger.
func NewGroupService(l *ledger.Service) *GroupService {
	return &GroupService{ledger: l}
}

// CreateGroup creates a new group with its initial roster.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	members := make([]ledger.MemberInput, 0, len(req.Msg.Members))
	for _, m := range req.Msg.Members {
		if m == nil {
			continue
		}
		members = append(members, ledger.MemberInput{ID: m.Id, DisplayName: m.DisplayName})
	}

	group, err := s.ledger.CreateGroup(ctx, req.Msg.Name, members)
	if err != nil {
		return nil, fail("CreateGroup", err, "name", req.Msg.Name)
	}

	return connect.NewResponse(&api.CreateGroupResponse{Group: groupToAPI(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupId)

	group, err := s.ledger.GetGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, fail("GetGroup", err, "group_id", req.Msg.GroupId)
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "name", group.Name)
	return connect.NewResponse(&api.GetGroupResponse{Group: groupToAPI(group)}), nil
}

// ListGroups retrieves all groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	slog.Info("ListGroups request received")

	groups, err := s.ledger.ListGroups(ctx)
	if err != nil {
		return nil, fail("ListGroups", err)
	}

	resp := &api.ListGroupsResponse{Groups: make([]*api.Group, len(groups))}
	for i, g := range groups {
		resp.Groups[i] = groupToAPI(g)
	}

	slog.Info("ListGroups successful", "count", len(groups))
	return connect.NewResponse(resp), nil
}

// AddMember adds one member to a group's roster, subject to the member cap.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	slog.Info("AddMember request received", "group_id", req.Msg.GroupId)

	if req.Msg.Member == nil {
		return nil, fail("AddMember", ledgererr.Invalid("member", ledgererr.ErrMissingField, ""), "group_id", req.Msg.GroupId)
	}

	group, err := s.ledger.AddMember(ctx, req.Msg.GroupId, ledger.MemberInput{
		ID:          req.Msg.Member.Id,
		DisplayName: req.Msg.Member.DisplayName,
	})
	if err != nil {
		return nil, fail("AddMember", err, "group_id", req.Msg.GroupId)
	}

	return connect.NewResponse(&api.AddMemberResponse{Group: groupToAPI(group)}), nil
}
