// Package report exports an impact analysis as CSV or an Excel workbook.
package report

import (
	"sort"
	"time"

	"github.com/ethos-ledger/ethos/internal/impact"
	"github.com/ethos-ledger/ethos/internal/model"
	"github.com/ethos-ledger/ethos/internal/values"
)

// Report is everything an export needs.
type Report struct {
	UserID       string
	GeneratedAt  time.Time
	Analysis     impact.Analysis
	Settings     values.Settings
	Transactions []model.Transaction
}

// Build assembles a report from a user's batch, settings and applied credit.
func Build(userID string, txs []model.Transaction, settings values.Settings, credit model.CreditState, now time.Time) Report {
	return Report{
		UserID:       userID,
		GeneratedAt:  now,
		Analysis:     impact.Analyze(txs, credit.AppliedCredit, &settings),
		Settings:     settings,
		Transactions: txs,
	}
}

// Categories returns every category with any impact, sorted by debt
// descending then name.
func (r Report) Categories() []impact.CategoryEntry {
	impacts := impact.CategoryImpacts(r.Transactions, &r.Settings)
	entries := make([]impact.CategoryEntry, 0, len(impacts))
	for name, ci := range impacts {
		entries = append(entries, impact.CategoryEntry{Name: name, CategoryImpact: ci})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].NegativeImpact, entries[j].NegativeImpact
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// row is one exported transaction.
type row struct {
	tx      model.Transaction
	debt    impact.Contribution
	debtSrc model.ImpactSource
}

func (r Report) rows() []row {
	out := make([]row, 0, len(r.Transactions))
	for _, tx := range r.Transactions {
		out = append(out, row{
			tx:      tx,
			debt:    impact.TransactionImpact(tx, &r.Settings),
			debtSrc: tx.DebtSource(),
		})
	}
	return out
}
