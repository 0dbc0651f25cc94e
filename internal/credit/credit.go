// Package credit consumes positive impact from a user's transactions and
// records it as applied credit against their societal debt.
package credit

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ethos-ledger/ethos/internal/apperr"
	"github.com/ethos-ledger/ethos/internal/impact"
	"github.com/ethos-ledger/ethos/internal/model"
)

// ErrNoTransactions is returned when there is nothing to draw credit from.
var ErrNoTransactions = apperr.Invalid("transactions", nil, "no transactions to draw credit from")

// Result describes one credit application.
type Result struct {
	Success       bool
	AmountApplied decimal.Decimal
	// Shortfall is requested minus applied. It is negative when whole
	// transactions overshoot the request.
	Shortfall   decimal.Decimal
	State       model.CreditState
	ConsumedIDs []string
}

// Apply walks txs in order, consuming each unconsumed transaction's positive
// impact until the requested amount is covered. Transactions are consumed
// whole. The input state is not modified; the new state is in Result.State.
func Apply(state model.CreditState, txs []model.Transaction, requested decimal.Decimal, now time.Time) (Result, error) {
	if !requested.IsPositive() {
		return Result{}, apperr.Invalid("amount", requested, "must be greater than zero")
	}
	if len(txs) == 0 {
		return Result{}, ErrNoTransactions
	}

	seen := make(map[string]bool)

	found := decimal.Zero
	remaining := requested
	var consumed []string
	for _, tx := range txs {
		if !remaining.IsPositive() {
			break
		}
		if seen[tx.ID] || state.Has(tx.ID) || tx.CreditApplied || tx.IsCreditApplication {
			continue
		}
		contribution := impact.TransactionImpact(tx, nil).Positive
		if !contribution.IsPositive() {
			continue
		}
		seen[tx.ID] = true
		consumed = append(consumed, tx.ID)
		found = found.Add(contribution)
		remaining = remaining.Sub(contribution)
	}

	if found.IsZero() {
		return Result{
			Success:       false,
			AmountApplied: decimal.Zero,
			Shortfall:     requested,
			State:         state.Clone(),
		}, nil
	}

	next := state.Clone()
	next.AppliedCredit = next.AppliedCredit.Add(found)
	next.AvailableCredit = decimal.Max(decimal.Zero, next.AvailableCredit.Sub(found))
	next.CreditTransactionIDs = dedupe(append(next.CreditTransactionIDs, consumed...))
	next.LastAppliedAmount = found
	next.LastAppliedAt = now

	return Result{
		Success:       true,
		AmountApplied: found,
		Shortfall:     requested.Sub(found),
		State:         next,
		ConsumedIDs:   consumed,
	}, nil
}

// Reconcile recomputes AvailableCredit from a fresh analysis.
func Reconcile(state model.CreditState, a impact.Analysis) model.CreditState {
	next := state.Clone()
	next.AvailableCredit = decimal.Max(decimal.Zero, a.PositiveImpact.Sub(next.AppliedCredit))
	return next
}

// NewApplicationRecord builds the transaction that marks a credit
// application in the user's history. It carries no practices so it never
// contributes impact.
func NewApplicationRecord(amount decimal.Decimal, now time.Time, newID func() string) model.Transaction {
	return model.Transaction{
		ID:                  newID(),
		Date:                now,
		Name:                "Ethical credit applied",
		Amount:              amount,
		Analyzed:            true,
		IsCreditApplication: true,
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
