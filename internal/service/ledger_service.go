package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// LedgerService implements the Connect LedgerService.
type LedgerService struct {
	apiconnect.UnimplementedLedgerServiceHandler
	ledger *ledger.Service
}

// NewLedgerService creates a new LedgerService backed by the given ledger.
func NewLedgerService(l *ledger.Service) *LedgerService {
	return &LedgerService{ledger: l}
}

// CreateExpense records an expense and its splits.
func (s *LedgerService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	msg := req.Msg
	slog.Info("CreateExpense request received",
		"group_id", msg.GroupId,
		"payer_id", msg.PayerId,
		"split_mode", msg.SplitMode,
		"participants", len(msg.ParticipantIds),
		"caller", middleware.GetMemberID(ctx),
	)

	in, err := expenseInput(msg)
	if err != nil {
		return nil, fail("CreateExpense", err, "group_id", msg.GroupId)
	}

	expense, err := s.ledger.CreateExpense(ctx, in)
	if err != nil {
		return nil, fail("CreateExpense", err, "group_id", msg.GroupId)
	}

	return connect.NewResponse(&api.CreateExpenseResponse{Expense: expenseToAPI(expense)}), nil
}

func expenseInput(msg *api.CreateExpenseRequest) (ledger.CreateExpenseInput, error) {
	in := ledger.CreateExpenseInput{
		GroupID:        msg.GroupId,
		PayerID:        msg.PayerId,
		Description:    msg.Description,
		Category:       models.Category(msg.Category),
		SplitMode:      models.SplitMode(msg.SplitMode),
		ParticipantIDs: msg.ParticipantIds,
		IdempotencyKey: msg.IdempotencyKey,
		AllowRefund:    msg.AllowRefund,
	}

	var err error
	if in.TotalCents, err = parseAmount("amount", msg.Amount); err != nil {
		return in, err
	}
	if in.Date, err = parseDate("date", msg.Date); err != nil {
		return in, err
	}

	switch in.SplitMode {
	case models.SplitPercentage:
		in.Weights, err = parseAmounts("percentages", msg.Percentages, money.ParseBasisPoints)
	case models.SplitCustom:
		in.Weights, err = parseAmounts("custom_amounts", msg.CustomAmounts, money.ParseCents)
	case models.SplitEqual:
	default:
		err = ledgererr.Invalid("split_mode", ledgererr.ErrUnknownMode, "%q", msg.SplitMode)
	}
	return in, err
}

// RecordSettlement records a payment between two members.
func (s *LedgerService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	msg := req.Msg
	slog.Info("RecordSettlement request received",
		"group_id", msg.GroupId,
		"payer_id", msg.PayerId,
		"payee_id", msg.PayeeId,
		"caller", middleware.GetMemberID(ctx),
	)

	amount, err := parseAmount("amount", msg.Amount)
	if err != nil {
		return nil, fail("RecordSettlement", err, "group_id", msg.GroupId)
	}
	date, err := parseDate("date", msg.Date)
	if err != nil {
		return nil, fail("RecordSettlement", err, "group_id", msg.GroupId)
	}

	settlement, err := s.ledger.RecordSettlement(ctx, ledger.RecordSettlementInput{
		GroupID:        msg.GroupId,
		PayerID:        msg.PayerId,
		PayeeID:        msg.PayeeId,
		AmountCents:    amount,
		Date:           date,
		Note:           msg.Note,
		IdempotencyKey: msg.IdempotencyKey,
	})
	if err != nil {
		return nil, fail("RecordSettlement", err, "group_id", msg.GroupId)
	}

	return connect.NewResponse(&api.RecordSettlementResponse{Settlement: settlementToAPI(settlement)}), nil
}

// GetBalances returns every member's derived balance.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	groupID := req.Msg.GroupId
	slog.Info("GetBalances request received", "group_id", groupID)

	sheet, err := s.ledger.GetBalances(ctx, groupID)
	if err != nil {
		return nil, fail("GetBalances", err, "group_id", groupID)
	}
	group, err := s.ledger.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fail("GetBalances", err, "group_id", groupID)
	}

	resp := &api.GetBalancesResponse{
		GroupId:  groupID,
		Balances: make([]*api.MemberBalance, len(sheet.Members)),
		// A sheet that does not sum to zero is returned as an error above.
		IsZeroSum: true,
	}
	for i, b := range sheet.Members {
		resp.Balances[i] = &api.MemberBalance{
			MemberId:    b.MemberID,
			DisplayName: group.DisplayName(b.MemberID),
			Paid:        money.FormatCents(b.PaidCents),
			Owed:        money.FormatCents(b.OwedCents),
			SettledIn:   money.FormatCents(b.SettledInCents),
			SettledOut:  money.FormatCents(b.SettledOutCents),
			Net:         money.FormatCents(b.NetCents),
		}
	}

	slog.Info("GetBalances successful", "group_id", groupID, "members", len(resp.Balances))
	return connect.NewResponse(resp), nil
}

// GetSettlementPlan proposes the transfers that would settle the group.
func (s *LedgerService) GetSettlementPlan(ctx context.Context, req *connect.Request[api.GetSettlementPlanRequest]) (*connect.Response[api.GetSettlementPlanResponse], error) {
	groupID := req.Msg.GroupId
	slog.Info("GetSettlementPlan request received", "group_id", groupID)

	transfers, err := s.ledger.GetSettlementPlan(ctx, groupID)
	if err != nil {
		return nil, fail("GetSettlementPlan", err, "group_id", groupID)
	}
	group, err := s.ledger.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fail("GetSettlementPlan", err, "group_id", groupID)
	}

	resp := &api.GetSettlementPlanResponse{
		GroupId:        groupID,
		Transfers:      make([]*api.Transfer, len(transfers)),
		TotalTransfers: int32(len(transfers)),
	}
	for i, t := range transfers {
		resp.Transfers[i] = &api.Transfer{
			FromMemberId: t.FromMemberID,
			FromName:     group.DisplayName(t.FromMemberID),
			ToMemberId:   t.ToMemberID,
			ToName:       group.DisplayName(t.ToMemberID),
			Amount:       money.FormatCents(t.AmountCents),
		}
	}

	slog.Info("GetSettlementPlan successful", "group_id", groupID, "transfers", len(transfers))
	return connect.NewResponse(resp), nil
}

// ListExpenses returns a group's expenses, newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	msg := req.Msg
	slog.Info("ListExpenses request received",
		"group_id", msg.GroupId,
		"participant_id", msg.ParticipantId,
		"category", msg.Category,
	)

	filter := models.ExpenseFilter{
		ParticipantID: msg.ParticipantId,
		Category:      models.Category(msg.Category),
	}
	var err error
	if filter.StartDate, err = parseDate("start_date", msg.StartDate); err != nil {
		return nil, fail("ListExpenses", err, "group_id", msg.GroupId)
	}
	if filter.EndDate, err = parseDate("end_date", msg.EndDate); err != nil {
		return nil, fail("ListExpenses", err, "group_id", msg.GroupId)
	}

	expenses, err := s.ledger.ListExpenses(ctx, msg.GroupId, filter)
	if err != nil {
		return nil, fail("ListExpenses", err, "group_id", msg.GroupId)
	}

	resp := &api.ListExpensesResponse{Expenses: make([]*api.Expense, len(expenses))}
	for i, e := range expenses {
		resp.Expenses[i] = expenseToAPI(e)
	}
	return connect.NewResponse(resp), nil
}

// ListSettlements returns a group's settlements, newest first.
func (s *LedgerService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	groupID := req.Msg.GroupId
	slog.Info("ListSettlements request received", "group_id", groupID)

	settlements, err := s.ledger.ListSettlements(ctx, groupID)
	if err != nil {
		return nil, fail("ListSettlements", err, "group_id", groupID)
	}

	resp := &api.ListSettlementsResponse{Settlements: make([]*api.Settlement, len(settlements))}
	for i, st := range settlements {
		resp.Settlements[i] = settlementToAPI(st)
	}
	return connect.NewResponse(resp), nil
}
