package engine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/debt"
)

// Balance is one user's net position in a nex. Positive means the nex owes
// the user money, negative means the user owes the nex.
type Balance struct {
	UserID uuid.UUID       `json:"user_id"`
	Net    decimal.Decimal `json:"net"`
}

// NetBalances folds outstanding debts into per-user net positions. Settled
// and superseded debts are ignored; users whose position nets to zero are
// omitted from the result.
func NetBalances(debts []*debt.Debt) map[uuid.UUID]decimal.Decimal {
	net := make(map[uuid.UUID]decimal.Decimal)
	for _, d := range debts {
		if !d.Outstanding() {
			continue
		}
		net[d.CreditorID] = net[d.CreditorID].Add(d.Amount)
		net[d.DebtorID] = net[d.DebtorID].Sub(d.Amount)
	}
	for userID, amount := range net {
		if amount.IsZero() {
			delete(net, userID)
		}
	}
	return net
}

// conservationTolerance is the largest absolute drift CheckConservation
// accepts: one cent, matching the rounding granularity of split shares.
var conservationTolerance = decimal.New(1, -2)

// CheckConservation verifies that the net positions of a nex sum to zero,
// tolerating drift up to one cent. Every debt adds and subtracts the same
// amount, so drift beyond that means debt rows were corrupted or partially
// written.
func CheckConservation(nexID uuid.UUID, net map[uuid.UUID]decimal.Decimal) error {
	drift := decimal.Zero
	for _, amount := range net {
		drift = drift.Add(amount)
	}
	if drift.Abs().GreaterThan(conservationTolerance) {
		return InconsistentStateError{NexID: nexID, Drift: drift}
	}
	return nil
}
