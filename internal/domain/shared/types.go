package shared

// SplitPolicy defines how an expense is divided among participants
type SplitPolicy string

const (
	SplitPolicyEqually    SplitPolicy = "EQUALLY"
	SplitPolicyPercentage SplitPolicy = "PERCENTAGE"
	SplitPolicyAmount     SplitPolicy = "AMOUNT"
)

// Valid reports whether the policy is one of the known values
func (p SplitPolicy) Valid() bool {
	switch p {
	case SplitPolicyEqually, SplitPolicyPercentage, SplitPolicyAmount:
		return true
	}
	return false
}

// SettlementMode selects between the raw debt list and the minimized transfer set
type SettlementMode string

const (
	SettlementModeDetailed   SettlementMode = "DETAILED"
	SettlementModeSimplified SettlementMode = "SIMPLIFIED"
)

// Valid reports whether the mode is one of the known values
func (m SettlementMode) Valid() bool {
	return m == SettlementModeDetailed || m == SettlementModeSimplified
}

// TransactionStatus defines settlement transaction states
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusSettled TransactionStatus = "SETTLED"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// ExpenseStatus defines expense processing states
type ExpenseStatus string

const (
	ExpenseStatusPending   ExpenseStatus = "PENDING"
	ExpenseStatusProcessed ExpenseStatus = "PROCESSED"
	ExpenseStatusFailed    ExpenseStatus = "FAILED"
)

// FailureReason defines expense processing failure categories
type FailureReason string

const (
	FailureReasonExpenseNotFound  FailureReason = "EXPENSE_NOT_FOUND"
	FailureReasonInvalidSplit     FailureReason = "INVALID_SPLIT"
	FailureReasonInvalidAmount    FailureReason = "INVALID_AMOUNT"
	FailureReasonInvalidCurrency  FailureReason = "INVALID_CURRENCY"
	FailureReasonStaleRevision    FailureReason = "STALE_REVISION"
	FailureReasonPersistenceError FailureReason = "PERSISTENCE_ERROR"
	FailureReasonUnknownError     FailureReason = "UNKNOWN_ERROR"
)

// OutboxStatus defines notification publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
