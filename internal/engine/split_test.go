package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testExpense(t *testing.T, amount string, policy shared.SplitPolicy, payerParticipates bool, participants []expense.Participant) *expense.Expense {
	t.Helper()
	exp, err := expense.NewExpense(
		uuid.New(),
		participants[0].UserID,
		money(amount),
		"USD",
		policy,
		payerParticipates,
		participants,
	)
	require.NoError(t, err)
	return exp
}

func sumShares(shares map[uuid.UUID]decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s)
	}
	return sum
}

func TestComputeSplits_Equally(t *testing.T) {
	calc := NewCalculator("USD")

	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	participants := []expense.Participant{{UserID: a}, {UserID: b}, {UserID: c}}

	exp := testExpense(t, "10.00", shared.SplitPolicyEqually, true, participants)

	shares, err := calc.ComputeSplits(exp)
	require.NoError(t, err)
	require.Len(t, shares, 3)

	// Leftover cent goes to the first participant in input order.
	assert.True(t, shares[a].Equal(money("3.34")), "got %s", shares[a])
	assert.True(t, shares[b].Equal(money("3.33")), "got %s", shares[b])
	assert.True(t, shares[c].Equal(money("3.33")), "got %s", shares[c])
	assert.True(t, sumShares(shares).Equal(exp.Amount))
}

func TestComputeSplits_EquallyDeterministic(t *testing.T) {
	calc := NewCalculator("USD")

	participants := []expense.Participant{
		{UserID: uuid.New()}, {UserID: uuid.New()}, {UserID: uuid.New()},
		{UserID: uuid.New()}, {UserID: uuid.New()}, {UserID: uuid.New()},
		{UserID: uuid.New()},
	}
	exp := testExpense(t, "100.00", shared.SplitPolicyEqually, true, participants)

	first, err := calc.ComputeSplits(exp)
	require.NoError(t, err)
	assert.True(t, sumShares(first).Equal(exp.Amount))

	for i := 0; i < 10; i++ {
		again, err := calc.ComputeSplits(exp)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestComputeSplits_EquallyExcludesPayer(t *testing.T) {
	calc := NewCalculator("USD")

	payer := uuid.New()
	b := uuid.New()
	c := uuid.New()
	participants := []expense.Participant{{UserID: payer}, {UserID: b}, {UserID: c}}

	exp := testExpense(t, "90.00", shared.SplitPolicyEqually, false, participants)

	shares, err := calc.ComputeSplits(exp)
	require.NoError(t, err)
	require.Len(t, shares, 2)

	_, hasPayer := shares[payer]
	assert.False(t, hasPayer)
	assert.True(t, shares[b].Equal(money("45.00")))
	assert.True(t, shares[c].Equal(money("45.00")))
}

func TestComputeSplits_Percentage(t *testing.T) {
	calc := NewCalculator("USD")

	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	participants := []expense.Participant{
		{UserID: a, Percentage: money("33.33")},
		{UserID: b, Percentage: money("33.33")},
		{UserID: c, Percentage: money("33.34")},
	}
	exp := testExpense(t, "100.00", shared.SplitPolicyPercentage, true, participants)

	shares, err := calc.ComputeSplits(exp)
	require.NoError(t, err)
	assert.True(t, sumShares(shares).Equal(exp.Amount))
	assert.True(t, shares[a].Equal(money("33.33")))
	assert.True(t, shares[b].Equal(money("33.33")))
	assert.True(t, shares[c].Equal(money("33.34")))
}

func TestComputeSplits_PercentageResidualToLargest(t *testing.T) {
	calc := NewCalculator("USD")

	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	participants := []expense.Participant{
		{UserID: a, Percentage: money("33.33")},
		{UserID: b, Percentage: money("33.33")},
		{UserID: c, Percentage: money("33.34")},
	}
	exp := testExpense(t, "0.10", shared.SplitPolicyPercentage, true, participants)

	shares, err := calc.ComputeSplits(exp)
	require.NoError(t, err)
	assert.True(t, sumShares(shares).Equal(exp.Amount), "sum %s", sumShares(shares))

	// Each raw share rounds to 0.03, leaving a 0.01 residual that lands on
	// the participant with the largest percentage.
	assert.True(t, shares[a].Equal(money("0.03")), "got %s", shares[a])
	assert.True(t, shares[b].Equal(money("0.03")), "got %s", shares[b])
	assert.True(t, shares[c].Equal(money("0.04")), "got %s", shares[c])
}

func TestComputeSplits_PercentageSumValidation(t *testing.T) {
	calc := NewCalculator("USD")

	participants := []expense.Participant{
		{UserID: uuid.New(), Percentage: money("60")},
		{UserID: uuid.New(), Percentage: money("50")},
	}
	exp := testExpense(t, "100.00", shared.SplitPolicyPercentage, true, participants)

	_, err := calc.ComputeSplits(exp)
	require.Error(t, err)
	assert.ErrorIs(t, err, InvalidSplitError{})
}

func TestComputeSplits_Amount(t *testing.T) {
	calc := NewCalculator("USD")

	a := uuid.New()
	b := uuid.New()
	participants := []expense.Participant{
		{UserID: a, Amount: money("70.50")},
		{UserID: b, Amount: money("29.50")},
	}
	exp := testExpense(t, "100.00", shared.SplitPolicyAmount, true, participants)

	shares, err := calc.ComputeSplits(exp)
	require.NoError(t, err)
	assert.True(t, shares[a].Equal(money("70.50")))
	assert.True(t, shares[b].Equal(money("29.50")))
}

func TestComputeSplits_AmountSumMismatch(t *testing.T) {
	calc := NewCalculator("USD")

	participants := []expense.Participant{
		{UserID: uuid.New(), Amount: money("70.00")},
		{UserID: uuid.New(), Amount: money("29.50")},
	}
	exp := testExpense(t, "100.00", shared.SplitPolicyAmount, true, participants)

	_, err := calc.ComputeSplits(exp)
	require.Error(t, err)
	assert.ErrorIs(t, err, InvalidSplitError{})
}

func TestComputeSplits_NoParticipantsAfterPayerExclusion(t *testing.T) {
	calc := NewCalculator("USD")

	payer := uuid.New()
	participants := []expense.Participant{{UserID: payer}}
	exp := testExpense(t, "10.00", shared.SplitPolicyEqually, false, participants)

	_, err := calc.ComputeSplits(exp)
	require.Error(t, err)
	assert.ErrorIs(t, err, InvalidSplitError{})
}

func TestComputeSplits_DuplicateParticipant(t *testing.T) {
	calc := NewCalculator("USD")

	dup := uuid.New()
	participants := []expense.Participant{{UserID: dup}, {UserID: dup}}
	exp := testExpense(t, "10.00", shared.SplitPolicyEqually, true, participants)

	_, err := calc.ComputeSplits(exp)
	require.Error(t, err)
	assert.ErrorIs(t, err, InvalidSplitError{})
}

func TestCalculator_Currency(t *testing.T) {
	calc := NewCalculator("EUR")

	exp := testExpense(t, "10.00", shared.SplitPolicyEqually, true, []expense.Participant{{UserID: uuid.New()}})
	assert.Equal(t, "USD", calc.Currency(exp))

	exp.Currency = ""
	assert.Equal(t, "EUR", calc.Currency(exp))
}
