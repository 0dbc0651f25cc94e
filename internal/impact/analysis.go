package impact

import (
	"github.com/shopspring/decimal"

	"github.com/ethos-ledger/ethos/internal/model"
	"github.com/ethos-ledger/ethos/internal/values"
)

// Analysis is the derived impact summary for a user. It is recomputed from
// (transactions, settings, applied credit) and is never a source of truth.
type Analysis struct {
	PositiveImpact         decimal.Decimal `json:"positiveImpact"`
	NegativeImpact         decimal.Decimal `json:"negativeImpact"`
	NetSocietalDebt        decimal.Decimal `json:"netSocietalDebt"`
	EffectiveDebt          decimal.Decimal `json:"effectiveDebt"`
	DebtPercentage         decimal.Decimal `json:"debtPercentage"`
	AppliedCredit          decimal.Decimal `json:"appliedCredit"`
	AvailableCredit        decimal.Decimal `json:"availableCredit"`
	TotalSpent             decimal.Decimal `json:"totalSpent"`
	TotalTransactions      int             `json:"totalTransactions"`
	TransactionsWithDebt   int             `json:"transactionsWithDebt"`
	TransactionsWithCredit int             `json:"transactionsWithCredit"`
}

// Analyze combines the impact sums into one summary. appliedCredit below
// zero is treated as zero.
func Analyze(txs []model.Transaction, appliedCredit decimal.Decimal, s *values.Settings) Analysis {
	if appliedCredit.IsNegative() {
		appliedCredit = decimal.Zero
	}

	a := Analysis{
		PositiveImpact: PositiveImpact(txs),
		NegativeImpact: NegativeImpact(txs, s),
		AppliedCredit:  appliedCredit,
		TotalSpent:     decimal.Zero,
		DebtPercentage: decimal.Zero,
	}

	for _, tx := range txs {
		if tx.IsCreditApplication {
			continue
		}
		a.TotalTransactions++
		a.TotalSpent = a.TotalSpent.Add(tx.Amount)
		if tx.DebtSource() != model.SourceNone {
			a.TransactionsWithDebt++
		}
		if tx.CreditSource() != model.SourceNone {
			a.TransactionsWithCredit++
		}
	}

	a.NetSocietalDebt = a.NegativeImpact.Sub(a.PositiveImpact)
	a.EffectiveDebt = decimal.Max(decimal.Zero, a.NegativeImpact.Sub(appliedCredit))
	a.AvailableCredit = decimal.Max(decimal.Zero, a.PositiveImpact.Sub(appliedCredit))
	if a.TotalSpent.IsPositive() {
		a.DebtPercentage = a.NegativeImpact.Div(a.TotalSpent).Mul(hundred)
	}
	return a
}

// Offset is the donation needed to clear the remaining debt.
func (a Analysis) Offset() decimal.Decimal {
	return a.EffectiveDebt
}
