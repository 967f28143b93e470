package api

type Split struct {
	Id       string `json:"id"`
	MemberId string `json:"member_id"`
	Amount   string `json:"amount"`
}

type Expense struct {
	Id             string   `json:"id"`
	GroupId        string   `json:"group_id"`
	PayerId        string   `json:"payer_id"`
	Amount         string   `json:"amount"`
	Description    string   `json:"description,omitempty"`
	Category       string   `json:"category"`
	Date           string   `json:"date"`
	SplitMode      string   `json:"split_mode"`
	Splits         []*Split `json:"splits"`
	CreatedAt      int64    `json:"created_at"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
}

type Settlement struct {
	Id             string `json:"id"`
	GroupId        string `json:"group_id"`
	PayerId        string `json:"payer_id"`
	PayeeId        string `json:"payee_id"`
	Amount         string `json:"amount"`
	Date           string `json:"date"`
	Note           string `json:"note,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// MemberBalance is one member's position. Positive Net means the group owes
// the member.
type MemberBalance struct {
	MemberId    string `json:"member_id"`
	DisplayName string `json:"display_name"`
	Paid        string `json:"paid"`
	Owed        string `json:"owed"`
	SettledIn   string `json:"settled_in"`
	SettledOut  string `json:"settled_out"`
	Net         string `json:"net"`
}

type Transfer struct {
	FromMemberId string `json:"from_member_id"`
	FromName     string `json:"from_name"`
	ToMemberId   string `json:"to_member_id"`
	ToName       string `json:"to_name"`
	Amount       string `json:"amount"`
}

type CreateExpenseRequest struct {
	GroupId     string `json:"group_id"`
	PayerId     string `json:"payer_id"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	// Date defaults to today (UTC).
	Date           string   `json:"date,omitempty"`
	SplitMode      string   `json:"split_mode"`
	ParticipantIds []string `json:"participant_ids"`
	// Percentages is read in percentage mode, one per participant.
	Percentages []string `json:"percentages,omitempty"`
	// CustomAmounts is read in custom mode, one per participant.
	CustomAmounts  []string `json:"custom_amounts,omitempty"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
	AllowRefund    bool     `json:"allow_refund,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type RecordSettlementRequest struct {
	GroupId        string `json:"group_id"`
	PayerId        string `json:"payer_id"`
	PayeeId        string `json:"payee_id"`
	Amount         string `json:"amount"`
	Date           string `json:"date,omitempty"`
	Note           string `json:"note,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type GetBalancesRequest struct {
	GroupId string `json:"group_id"`
}

type GetBalancesResponse struct {
	GroupId   string           `json:"group_id"`
	Balances  []*MemberBalance `json:"balances"`
	IsZeroSum bool             `json:"is_zero_sum"`
}

type GetSettlementPlanRequest struct {
	GroupId string `json:"group_id"`
}

type GetSettlementPlanResponse struct {
	GroupId        string      `json:"group_id"`
	Transfers      []*Transfer `json:"transfers"`
	TotalTransfers int32       `json:"total_transfers"`
}

type ListExpensesRequest struct {
	GroupId       string `json:"group_id"`
	ParticipantId string `json:"participant_id,omitempty"`
	Category      string `json:"category,omitempty"`
	// StartDate and EndDate bound the expense date, inclusive.
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type ListSettlementsRequest struct {
	GroupId string `json:"group_id"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}
