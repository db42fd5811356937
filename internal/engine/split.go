// Package engine implements the settlement and debt core: split calculation,
// debt generation, balance aggregation, and settlement planning. Everything
// here is a pure function over fixed-point decimal money; the only mutation
// point in the system is the settlement executor that consumes these plans.
package engine

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

var oneHundred = decimal.NewFromInt(100)

// Calculator computes per-participant shares for an expense. The default
// currency is explicit configuration rather than process-global state.
type Calculator struct {
	defaultCurrency string
}

// NewCalculator creates a split calculator with the given default currency
func NewCalculator(defaultCurrency string) *Calculator {
	return &Calculator{defaultCurrency: defaultCurrency}
}

// Currency resolves the effective currency for an expense
func (c *Calculator) Currency(exp *expense.Expense) string {
	if exp.Currency != "" {
		return exp.Currency
	}
	return c.defaultCurrency
}

// ComputeSplits turns an expense into per-participant share amounts that sum
// exactly to the expense total. The participant set is the expense's split
// participants: when the payer does not participate their entry is excluded
// first, and for PERCENTAGE/AMOUNT policies the remaining shares must still
// satisfy the sum invariants.
func (c *Calculator) ComputeSplits(exp *expense.Expense) (map[uuid.UUID]decimal.Decimal, error) {
	if !exp.Amount.IsPositive() || !shared.ValidMoney(exp.Amount) {
		return nil, InvalidSplitError{Reason: "amount must be positive with at most 2 decimal places"}
	}

	participants := exp.SplitParticipants()
	if len(participants) == 0 {
		return nil, InvalidSplitError{Reason: "no participants in split"}
	}
	if err := checkDistinct(participants); err != nil {
		return nil, err
	}

	switch exp.SplitPolicy {
	case shared.SplitPolicyEqually:
		return splitEqually(exp.Amount, participants), nil
	case shared.SplitPolicyPercentage:
		return splitByPercentage(exp.Amount, participants)
	case shared.SplitPolicyAmount:
		return splitByAmount(exp.Amount, participants)
	default:
		return nil, InvalidSplitError{Reason: "unknown split policy: " + string(exp.SplitPolicy)}
	}
}

// splitEqually divides the amount using integer-cent arithmetic. The leftover
// cents after flooring go one-by-one to the first participants in input
// order, so identical input always yields the identical remainder
// distribution. That determinism is what makes recalculation idempotent.
func splitEqually(amount decimal.Decimal, participants []expense.Participant) map[uuid.UUID]decimal.Decimal {
	total := shared.Cents(amount)
	n := int64(len(participants))
	base := total / n
	leftover := total % n

	shares := make(map[uuid.UUID]decimal.Decimal, len(participants))
	for i, p := range participants {
		c := base
		if int64(i) < leftover {
			c++
		}
		shares[p.UserID] = shared.FromCents(c)
	}
	return shares
}

// splitByPercentage rounds each share HALF_UP to 2 decimals, then forces
// exact-sum by applying the rounding residual (which can be negative) to the
// participant with the largest original percentage.
func splitByPercentage(amount decimal.Decimal, participants []expense.Participant) (map[uuid.UUID]decimal.Decimal, error) {
	totalPct := decimal.Zero
	for _, p := range participants {
		if p.Percentage.IsNegative() {
			return nil, InvalidSplitError{Reason: "percentage cannot be negative for user " + p.UserID.String()}
		}
		totalPct = totalPct.Add(p.Percentage)
	}
	if !totalPct.Equal(oneHundred) {
		return nil, InvalidSplitError{Reason: "percentages sum to " + totalPct.String() + ", expected 100"}
	}

	shares := make(map[uuid.UUID]decimal.Decimal, len(participants))
	sum := decimal.Zero
	for _, p := range participants {
		share := amount.Mul(p.Percentage).Div(oneHundred).Round(2)
		shares[p.UserID] = share
		sum = sum.Add(share)
	}

	residual := amount.Sub(sum)
	if !residual.IsZero() {
		target := largestPercentage(participants)
		shares[target] = shares[target].Add(residual)
	}
	return shares, nil
}

// largestPercentage picks the participant carrying the rounding residual:
// largest original percentage, ties broken by ascending user ID for
// determinism.
func largestPercentage(participants []expense.Participant) uuid.UUID {
	sorted := make([]expense.Participant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool {
		cmp := sorted[i].Percentage.Cmp(sorted[j].Percentage)
		if cmp != 0 {
			return cmp > 0
		}
		return sorted[i].UserID.String() < sorted[j].UserID.String()
	})
	return sorted[0].UserID
}

// splitByAmount takes shares verbatim from input and only validates the sum
func splitByAmount(amount decimal.Decimal, participants []expense.Participant) (map[uuid.UUID]decimal.Decimal, error) {
	shares := make(map[uuid.UUID]decimal.Decimal, len(participants))
	sum := decimal.Zero
	for _, p := range participants {
		if p.Amount.IsNegative() {
			return nil, InvalidSplitError{Reason: "share amount cannot be negative for user " + p.UserID.String()}
		}
		if !shared.ValidMoney(p.Amount) {
			return nil, InvalidSplitError{Reason: "share amount must have at most 2 decimal places for user " + p.UserID.String()}
		}
		shares[p.UserID] = p.Amount
		sum = sum.Add(p.Amount)
	}
	if !sum.Equal(amount) {
		return nil, InvalidSplitError{Reason: "share amounts sum to " + sum.String() + ", expected " + amount.String()}
	}
	return shares, nil
}

func checkDistinct(participants []expense.Participant) error {
	seen := make(map[uuid.UUID]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p.UserID]; dup {
			return InvalidSplitError{Reason: "duplicate participant: " + p.UserID.String()}
		}
		seen[p.UserID] = struct{}{}
	}
	return nil
}
