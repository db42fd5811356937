package expense

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

func threeParticipants(payerID uuid.UUID) []Participant {
	return []Participant{
		{UserID: payerID},
		{UserID: uuid.New()},
		{UserID: uuid.New()},
	}
}

func TestNewExpense(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		nexID := uuid.New()
		payerID := uuid.New()
		amount := decimal.RequireFromString("90.00")
		participants := threeParticipants(payerID)

		beforeCreation := time.Now()
		exp, err := NewExpense(nexID, payerID, amount, "USD", shared.SplitPolicyEqually, true, participants)
		afterCreation := time.Now()

		require.NoError(t, err)
		require.NotNil(t, exp)

		assert.NotEqual(t, uuid.Nil, exp.ID, "Expense ID should not be nil")
		assert.Equal(t, nexID, exp.NexID)
		assert.Equal(t, payerID, exp.PayerID)
		assert.True(t, amount.Equal(exp.Amount))
		assert.Equal(t, "USD", exp.Currency)
		assert.Equal(t, shared.SplitPolicyEqually, exp.SplitPolicy)
		assert.True(t, exp.PayerParticipates)
		assert.Equal(t, shared.ExpenseStatusPending, exp.Status)
		assert.Equal(t, 1, exp.Revision, "Initial revision should be 1")
		assert.WithinDuration(t, beforeCreation, exp.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)
	})

	t.Run("ValidationErrors", func(t *testing.T) {
		payerID := uuid.New()
		amount := decimal.RequireFromString("90.00")
		participants := threeParticipants(payerID)

		tests := []struct {
			name    string
			mutate  func() (*Expense, error)
			wantErr error
		}{
			{
				name: "missing payer",
				mutate: func() (*Expense, error) {
					return NewExpense(uuid.New(), uuid.Nil, amount, "USD", shared.SplitPolicyEqually, true, participants)
				},
				wantErr: ErrMissingPayer,
			},
			{
				name: "zero amount",
				mutate: func() (*Expense, error) {
					return NewExpense(uuid.New(), payerID, decimal.Zero, "USD", shared.SplitPolicyEqually, true, participants)
				},
				wantErr: ErrInvalidAmount,
			},
			{
				name: "negative amount",
				mutate: func() (*Expense, error) {
					return NewExpense(uuid.New(), payerID, decimal.RequireFromString("-5.00"), "USD", shared.SplitPolicyEqually, true, participants)
				},
				wantErr: ErrInvalidAmount,
			},
			{
				name: "more than two decimal places",
				mutate: func() (*Expense, error) {
					return NewExpense(uuid.New(), payerID, decimal.RequireFromString("10.005"), "USD", shared.SplitPolicyEqually, true, participants)
				},
				wantErr: ErrInvalidAmount,
			},
			{
				name: "bad currency",
				mutate: func() (*Expense, error) {
					return NewExpense(uuid.New(), payerID, amount, "US", shared.SplitPolicyEqually, true, participants)
				},
				wantErr: ErrInvalidCurrency,
			},
			{
				name: "bad split policy",
				mutate: func() (*Expense, error) {
					return NewExpense(uuid.New(), payerID, amount, "USD", shared.SplitPolicy("HALVSIES"), true, participants)
				},
				wantErr: ErrInvalidSplitPolicy,
			},
			{
				name: "no participants",
				mutate: func() (*Expense, error) {
					return NewExpense(uuid.New(), payerID, amount, "USD", shared.SplitPolicyEqually, true, nil)
				},
				wantErr: ErrNoParticipants,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				exp, err := tt.mutate()
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, exp)
			})
		}
	})
}

func TestExpense_Revise(t *testing.T) {
	t.Run("SuccessfulRevision", func(t *testing.T) {
		payerID := uuid.New()
		exp, err := NewExpense(uuid.New(), payerID, decimal.RequireFromString("90.00"), "USD", shared.SplitPolicyEqually, true, threeParticipants(payerID))
		require.NoError(t, err)

		exp.Status = shared.ExpenseStatusFailed
		exp.FailureReason = string(shared.FailureReasonInvalidSplit)

		newAmount := decimal.RequireFromString("120.00")
		newParticipants := threeParticipants(payerID)

		err = exp.Revise(payerID, newAmount, "EUR", shared.SplitPolicyPercentage, false, newParticipants)

		require.NoError(t, err)
		assert.True(t, newAmount.Equal(exp.Amount))
		assert.Equal(t, "EUR", exp.Currency)
		assert.Equal(t, shared.SplitPolicyPercentage, exp.SplitPolicy)
		assert.False(t, exp.PayerParticipates)
		assert.Equal(t, 2, exp.Revision, "Revision should be bumped")
		assert.Equal(t, shared.ExpenseStatusPending, exp.Status, "Revision moves the expense back to PENDING")
		assert.Empty(t, exp.FailureReason)
	})

	t.Run("InvalidEditLeavesExpenseUntouched", func(t *testing.T) {
		payerID := uuid.New()
		exp, err := NewExpense(uuid.New(), payerID, decimal.RequireFromString("90.00"), "USD", shared.SplitPolicyEqually, true, threeParticipants(payerID))
		require.NoError(t, err)

		err = exp.Revise(payerID, decimal.Zero, "USD", shared.SplitPolicyEqually, true, exp.Participants)

		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, 1, exp.Revision)
		assert.True(t, decimal.RequireFromString("90.00").Equal(exp.Amount))
	})
}

func TestExpense_SplitParticipants(t *testing.T) {
	payerID := uuid.New()
	participants := threeParticipants(payerID)

	t.Run("PayerParticipates", func(t *testing.T) {
		exp, err := NewExpense(uuid.New(), payerID, decimal.RequireFromString("90.00"), "USD", shared.SplitPolicyEqually, true, participants)
		require.NoError(t, err)

		assert.Len(t, exp.SplitParticipants(), 3)
	})

	t.Run("PayerExcluded", func(t *testing.T) {
		exp, err := NewExpense(uuid.New(), payerID, decimal.RequireFromString("90.00"), "USD", shared.SplitPolicyEqually, false, participants)
		require.NoError(t, err)

		split := exp.SplitParticipants()
		assert.Len(t, split, 2)
		for _, p := range split {
			assert.NotEqual(t, payerID, p.UserID)
		}
	})
}
