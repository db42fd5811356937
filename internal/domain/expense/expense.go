package expense

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

// Common errors
var (
	ErrInvalidAmount      = errors.New("amount must be positive with at most 2 decimal places")
	ErrNoParticipants     = errors.New("expense must have at least one participant")
	ErrInvalidSplitPolicy = errors.New("invalid split policy")
	ErrInvalidCurrency    = errors.New("currency must be a 3-letter code")
	ErrMissingPayer       = errors.New("payer is required")
)

// Participant is one user's stake in an expense. Percentage is set for
// PERCENTAGE policy, Amount for AMOUNT policy; Share is the computed split,
// persisted once the processor has run the calculator.
type Participant struct {
	UserID     uuid.UUID       `json:"user_id"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
	Share      decimal.Decimal `json:"share"`
}

// Expense represents a shared expense within a nex. Once debts have been
// generated it is immutable except through the recalculation path, which
// bumps Revision and supersedes previously generated debts.
type Expense struct {
	ID                uuid.UUID            `json:"id"`
	NexID             uuid.UUID            `json:"nex_id"`
	PayerID           uuid.UUID            `json:"payer_id"`
	Amount            decimal.Decimal      `json:"amount"`
	Currency          string               `json:"currency"`
	SplitPolicy       shared.SplitPolicy   `json:"split_policy"`
	PayerParticipates bool                 `json:"payer_participates"`
	Participants      []Participant        `json:"participants"`
	Status            shared.ExpenseStatus `json:"status"`
	FailureReason     string               `json:"failure_reason,omitempty"`
	Revision          int                  `json:"revision"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// NewExpense creates a new expense in PENDING status with the given parameters
func NewExpense(
	nexID uuid.UUID,
	payerID uuid.UUID,
	amount decimal.Decimal,
	currency string,
	policy shared.SplitPolicy,
	payerParticipates bool,
	participants []Participant,
) (*Expense, error) {
	if payerID == uuid.Nil {
		return nil, ErrMissingPayer
	}
	if !amount.IsPositive() || !shared.ValidMoney(amount) {
		return nil, ErrInvalidAmount
	}
	if !shared.ValidCurrency(currency) {
		return nil, ErrInvalidCurrency
	}
	if !policy.Valid() {
		return nil, ErrInvalidSplitPolicy
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	now := time.Now()
	return &Expense{
		ID:                uuid.New(),
		NexID:             nexID,
		PayerID:           payerID,
		Amount:            amount,
		Currency:          currency,
		SplitPolicy:       policy,
		PayerParticipates: payerParticipates,
		Participants:      participants,
		Status:            shared.ExpenseStatusPending,
		Revision:          1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Revise applies an edit and moves the expense back to PENDING so debts are
// regenerated. The previously generated debts are superseded by the
// processor, never mutated in place.
func (e *Expense) Revise(
	payerID uuid.UUID,
	amount decimal.Decimal,
	currency string,
	policy shared.SplitPolicy,
	payerParticipates bool,
	participants []Participant,
) error {
	if payerID == uuid.Nil {
		return ErrMissingPayer
	}
	if !amount.IsPositive() || !shared.ValidMoney(amount) {
		return ErrInvalidAmount
	}
	if !shared.ValidCurrency(currency) {
		return ErrInvalidCurrency
	}
	if !policy.Valid() {
		return ErrInvalidSplitPolicy
	}
	if len(participants) == 0 {
		return ErrNoParticipants
	}

	e.PayerID = payerID
	e.Amount = amount
	e.Currency = currency
	e.SplitPolicy = policy
	e.PayerParticipates = payerParticipates
	e.Participants = participants
	e.Status = shared.ExpenseStatusPending
	e.FailureReason = ""
	e.Revision++
	e.UpdatedAt = time.Now()
	return nil
}

// SplitParticipants returns the participants that actually take part in the
// split: when the payer does not participate their entry is excluded before
// any share computation.
func (e *Expense) SplitParticipants() []Participant {
	if e.PayerParticipates {
		return e.Participants
	}
	out := make([]Participant, 0, len(e.Participants))
	for _, p := range e.Participants {
		if p.UserID != e.PayerID {
			out = append(out, p)
		}
	}
	return out
}
