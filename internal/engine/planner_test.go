package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/debt"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/settlement"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

func TestPlan_Detailed(t *testing.T) {
	nexID := uuid.New()
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	d1 := testDebt(t, nexID, b, a, "30.00")
	d2 := testDebt(t, nexID, c, a, "30.00")

	txns, err := Plan(nexID, shared.SettlementModeDetailed, []*debt.Debt{d1, d2})
	require.NoError(t, err)
	require.Len(t, txns, 2)

	for i, d := range []*debt.Debt{d1, d2} {
		txn := txns[i]
		assert.Equal(t, settlement.DetailedTransactionID(nexID, d.ID), txn.ID)
		assert.Equal(t, d.DebtorID, txn.FromUserID)
		assert.Equal(t, d.CreditorID, txn.ToUserID)
		assert.True(t, txn.Amount.Equal(d.Amount))
		assert.Equal(t, shared.SettlementModeDetailed, txn.Mode)
		assert.Equal(t, shared.TransactionStatusPending, txn.Status)
		assert.Equal(t, []uuid.UUID{d.ID}, txn.RelatedDebtIDs)
	}
}

func TestPlan_DetailedSkipsSettledDebts(t *testing.T) {
	nexID := uuid.New()
	a := uuid.New()
	b := uuid.New()

	d1 := testDebt(t, nexID, b, a, "30.00")
	d2 := testDebt(t, nexID, b, a, "20.00")
	now := d2.CreatedAt
	d2.SettledAt = &now

	txns, err := Plan(nexID, shared.SettlementModeDetailed, []*debt.Debt{d1, d2})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, []uuid.UUID{d1.ID}, txns[0].RelatedDebtIDs)
}

func TestPlan_SimplifiedMinimizesTransfers(t *testing.T) {
	nexID := uuid.New()
	a := uuid.New() // net +50
	b := uuid.New() // net +30
	c := uuid.New() // net -40
	d := uuid.New() // net -40

	debts := []*debt.Debt{
		testDebt(t, nexID, c, a, "25.00"),
		testDebt(t, nexID, c, b, "15.00"),
		testDebt(t, nexID, d, a, "25.00"),
		testDebt(t, nexID, d, b, "15.00"),
	}

	txns, err := Plan(nexID, shared.SettlementModeSimplified, debts)
	require.NoError(t, err)
	require.LessOrEqual(t, len(txns), 3, "4 users with nonzero positions need at most 3 transfers")

	total := decimal.Zero
	net := make(map[uuid.UUID]decimal.Decimal)
	for _, txn := range txns {
		assert.Equal(t, shared.SettlementModeSimplified, txn.Mode)
		assert.True(t, txn.Amount.IsPositive())
		total = total.Add(txn.Amount)
		net[txn.ToUserID] = net[txn.ToUserID].Add(txn.Amount)
		net[txn.FromUserID] = net[txn.FromUserID].Sub(txn.Amount)
	}

	// The transfers must exactly reproduce the net positions.
	assert.True(t, total.Equal(money("80.00")), "got %s", total)
	assert.True(t, net[a].Equal(money("50.00")))
	assert.True(t, net[b].Equal(money("30.00")))
	assert.True(t, net[c].Equal(money("-40.00")))
	assert.True(t, net[d].Equal(money("-40.00")))
}

func TestPlan_SimplifiedPairsLargestRemaining(t *testing.T) {
	nexID := uuid.New()

	// Fixed IDs pin the ascending-ID tie break between b and c.
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	c := uuid.MustParse("00000000-0000-0000-0000-00000000000c")
	d := uuid.MustParse("00000000-0000-0000-0000-00000000000d")
	e := uuid.MustParse("00000000-0000-0000-0000-00000000000e")

	// Nets: a +50, b +30, c +30, d -60, e -50.
	debts := []*debt.Debt{
		testDebt(t, nexID, d, a, "50.00"),
		testDebt(t, nexID, d, b, "10.00"),
		testDebt(t, nexID, e, b, "20.00"),
		testDebt(t, nexID, e, c, "30.00"),
	}

	txns, err := Plan(nexID, shared.SettlementModeSimplified, debts)
	require.NoError(t, err)
	require.Len(t, txns, 4)

	// Round 1 pairs a(50) with d(60), leaving d at 10.
	assert.Equal(t, d, txns[0].FromUserID)
	assert.Equal(t, a, txns[0].ToUserID)
	assert.True(t, txns[0].Amount.Equal(money("50.00")))

	// Round 2 must re-select the largest remaining debtor, which is e(50),
	// not d's 10.00 leftover. b wins the creditor tie at 30 by ID.
	assert.Equal(t, e, txns[1].FromUserID)
	assert.Equal(t, b, txns[1].ToUserID)
	assert.True(t, txns[1].Amount.Equal(money("30.00")))

	assert.Equal(t, e, txns[2].FromUserID)
	assert.Equal(t, c, txns[2].ToUserID)
	assert.True(t, txns[2].Amount.Equal(money("20.00")))

	assert.Equal(t, d, txns[3].FromUserID)
	assert.Equal(t, c, txns[3].ToUserID)
	assert.True(t, txns[3].Amount.Equal(money("10.00")))
}

func TestPlan_SimplifiedIsIdempotent(t *testing.T) {
	nexID := uuid.New()
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	debts := []*debt.Debt{
		testDebt(t, nexID, b, a, "30.00"),
		testDebt(t, nexID, c, a, "30.00"),
		testDebt(t, nexID, c, b, "10.00"),
	}

	first, err := Plan(nexID, shared.SettlementModeSimplified, debts)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	for i := 0; i < 5; i++ {
		again, err := Plan(nexID, shared.SettlementModeSimplified, debts)
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].ID, again[j].ID)
			assert.Equal(t, first[j].FromUserID, again[j].FromUserID)
			assert.Equal(t, first[j].ToUserID, again[j].ToUserID)
			assert.True(t, first[j].Amount.Equal(again[j].Amount))
			assert.Equal(t, first[j].RelatedDebtIDs, again[j].RelatedDebtIDs)
		}
	}
}

func TestPlan_SimplifiedRelatedDebtsCoverAmount(t *testing.T) {
	nexID := uuid.New()
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	debts := []*debt.Debt{
		testDebt(t, nexID, b, a, "30.00"),
		testDebt(t, nexID, c, a, "30.00"),
		testDebt(t, nexID, c, b, "10.00"),
	}
	byID := make(map[uuid.UUID]*debt.Debt, len(debts))
	for _, d := range debts {
		byID[d.ID] = d
	}

	txns, err := Plan(nexID, shared.SettlementModeSimplified, debts)
	require.NoError(t, err)

	for _, txn := range txns {
		require.NotEmpty(t, txn.RelatedDebtIDs)
		covered := decimal.Zero
		for _, id := range txn.RelatedDebtIDs {
			d, ok := byID[id]
			require.True(t, ok, "related debt %s not in input", id)
			covered = covered.Add(d.Amount)
		}
		assert.True(t, covered.GreaterThanOrEqual(txn.Amount),
			"related debts cover %s of %s", covered, txn.Amount)
	}
}

func TestPlan_SimplifiedDirectDebtsFirst(t *testing.T) {
	nexID := uuid.New()
	a := uuid.New()
	b := uuid.New()

	// Single pair: the only transfer must reference the pair's own debts.
	d1 := testDebt(t, nexID, b, a, "30.00")
	d2 := testDebt(t, nexID, b, a, "20.00")

	txns, err := Plan(nexID, shared.SettlementModeSimplified, []*debt.Debt{d1, d2})
	require.NoError(t, err)
	require.Len(t, txns, 1)

	txn := txns[0]
	assert.Equal(t, b, txn.FromUserID)
	assert.Equal(t, a, txn.ToUserID)
	assert.True(t, txn.Amount.Equal(money("50.00")))
	assert.ElementsMatch(t, []uuid.UUID{d1.ID, d2.ID}, txn.RelatedDebtIDs)
}

func TestPlan_EmptyAndFullySettled(t *testing.T) {
	nexID := uuid.New()

	txns, err := Plan(nexID, shared.SettlementModeSimplified, nil)
	require.NoError(t, err)
	assert.Empty(t, txns)

	a := uuid.New()
	b := uuid.New()
	d := testDebt(t, nexID, b, a, "10.00")
	now := d.CreatedAt
	d.SettledAt = &now

	txns, err = Plan(nexID, shared.SettlementModeDetailed, []*debt.Debt{d})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestPlan_UnknownMode(t *testing.T) {
	_, err := Plan(uuid.New(), shared.SettlementMode("BOGUS"), []*debt.Debt{
		testDebt(t, uuid.New(), uuid.New(), uuid.New(), "10.00"),
	})
	require.Error(t, err)
}

func TestPlan_SimplifiedOffsettingPairNeedsNoTransfer(t *testing.T) {
	nexID := uuid.New()
	a := uuid.New()
	b := uuid.New()

	debts := []*debt.Debt{
		testDebt(t, nexID, b, a, "15.00"),
		testDebt(t, nexID, a, b, "15.00"),
	}

	txns, err := Plan(nexID, shared.SettlementModeSimplified, debts)
	require.NoError(t, err)
	assert.Empty(t, txns)
}
