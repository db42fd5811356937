package handler

// ParticipantInput represents one participant in an expense request.
// Percentage is required for PERCENTAGE policy, Amount for AMOUNT policy;
// both are decimal strings so the 2-digit scale survives transport.
type ParticipantInput struct {
	UserID     string `json:"user_id" binding:"required,uuid"`
	Percentage string `json:"percentage,omitempty"`
	Amount     string `json:"amount,omitempty"`
}

// CreateExpenseRequest represents a request to record a new expense in a nex
type CreateExpenseRequest struct {
	PayerID           string             `json:"payer_id" binding:"required,uuid"`
	Amount            string             `json:"amount" binding:"required"`
	Currency          string             `json:"currency" binding:"omitempty,len=3"`
	SplitPolicy       string             `json:"split_policy" binding:"required,oneof=EQUALLY PERCENTAGE AMOUNT"`
	PayerParticipates *bool              `json:"payer_participates,omitempty"`
	Participants      []ParticipantInput `json:"participants" binding:"required,min=1,dive"`
}

// UpdateExpenseRequest represents an expense edit. Edits replace the full
// split definition and trigger debt regeneration.
type UpdateExpenseRequest struct {
	PayerID           string             `json:"payer_id" binding:"required,uuid"`
	Amount            string             `json:"amount" binding:"required"`
	Currency          string             `json:"currency" binding:"omitempty,len=3"`
	SplitPolicy       string             `json:"split_policy" binding:"required,oneof=EQUALLY PERCENTAGE AMOUNT"`
	PayerParticipates *bool              `json:"payer_participates,omitempty"`
	Participants      []ParticipantInput `json:"participants" binding:"required,min=1,dive"`
}

// ParticipantResponse represents a participant in expense responses
type ParticipantResponse struct {
	UserID     string `json:"user_id"`
	Percentage string `json:"percentage,omitempty"`
	Amount     string `json:"amount,omitempty"`
	Share      string `json:"share,omitempty"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID                string                `json:"id"`
	NexID             string                `json:"nex_id"`
	PayerID           string                `json:"payer_id"`
	Amount            string                `json:"amount"`
	Currency          string                `json:"currency"`
	SplitPolicy       string                `json:"split_policy"`
	PayerParticipates bool                  `json:"payer_participates"`
	Participants      []ParticipantResponse `json:"participants"`
	Status            string                `json:"status"`
	FailureReason     string                `json:"failure_reason,omitempty"`
	Revision          int                   `json:"revision"`
	CreatedAt         string                `json:"created_at"`
	UpdatedAt         string                `json:"updated_at"`
}

// BalanceResponse represents one user's net position within a nex
type BalanceResponse struct {
	UserID string `json:"user_id"`
	Net    string `json:"net"`
}

// NexBalancesResponse represents all net positions of a nex
type NexBalancesResponse struct {
	NexID    string            `json:"nex_id"`
	Balances []BalanceResponse `json:"balances"`
}

// NexPositionResponse represents one user's net position in one nex,
// used for the cross-nex user balance view
type NexPositionResponse struct {
	NexID    string `json:"nex_id"`
	Net      string `json:"net"`
	Currency string `json:"currency"`
}

// UserBalancesResponse represents a user's net positions across nexes
type UserBalancesResponse struct {
	UserID    string            `json:"user_id"`
	Positions []NexPositionResponse `json:"positions"`
}

// TransactionResponse represents a planned settlement transaction
type TransactionResponse struct {
	ID             string   `json:"id"`
	NexID          string   `json:"nex_id"`
	FromUserID     string   `json:"from_user_id"`
	ToUserID       string   `json:"to_user_id"`
	Amount         string   `json:"amount"`
	Currency       string   `json:"currency"`
	Mode           string   `json:"mode"`
	Status         string   `json:"status"`
	RelatedDebtIDs []string `json:"related_debt_ids"`
}

// SettlementPlanResponse represents a settlement plan for a nex
type SettlementPlanResponse struct {
	NexID        string                `json:"nex_id"`
	Mode         string                `json:"mode"`
	Transactions []TransactionResponse `json:"transactions"`
}

// SelectedTransactionInput references one planned transaction to execute.
// Amount, when set, must be lower than or equal to the planned amount and
// settles the transaction partially.
type SelectedTransactionInput struct {
	ID     string `json:"id" binding:"required,uuid"`
	Amount string `json:"amount,omitempty"`
}

// ExecuteSettlementRequest represents a request to execute planned settlements
type ExecuteSettlementRequest struct {
	Mode          string                     `json:"mode" binding:"required,oneof=DETAILED SIMPLIFIED"`
	All           bool                       `json:"all"`
	Transactions  []SelectedTransactionInput `json:"transactions" binding:"omitempty,dive"`
	PaymentMethod string                     `json:"payment_method,omitempty"`
	Notes         string                     `json:"notes,omitempty"`
}

// TransactionResultResponse represents the outcome of one executed transaction
type TransactionResultResponse struct {
	TransactionID  string   `json:"transaction_id"`
	FromUserID     string   `json:"from_user_id"`
	ToUserID       string   `json:"to_user_id"`
	Amount         string   `json:"amount"`
	Status         string   `json:"status"`
	SettledDebtIDs []string `json:"settled_debt_ids,omitempty"`
	FailureReason  string   `json:"failure_reason,omitempty"`
}

// ExecutionReportResponse summarizes a settlement execution run
type ExecutionReportResponse struct {
	NexID        string                      `json:"nex_id"`
	Mode         string                      `json:"mode"`
	SettledCount int                         `json:"settled_count"`
	FailedCount  int                         `json:"failed_count"`
	TotalSettled string                      `json:"total_settled"`
	Results      []TransactionResultResponse `json:"results"`
	ExecutedAt   string                      `json:"executed_at"`
}

// HistoryEntryResponse represents one settlement history record
type HistoryEntryResponse struct {
	TransactionID  string   `json:"transaction_id"`
	NexID          string   `json:"nex_id"`
	FromUserID     string   `json:"from_user_id"`
	ToUserID       string   `json:"to_user_id"`
	Amount         string   `json:"amount"`
	Currency       string   `json:"currency"`
	Mode           string   `json:"mode"`
	Status         string   `json:"status"`
	PaymentMethod  string   `json:"payment_method,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	SettledDebtIDs []string `json:"settled_debt_ids,omitempty"`
	FailureReason  string   `json:"failure_reason,omitempty"`
	ExecutedAt     string   `json:"executed_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
