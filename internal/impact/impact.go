// Package impact computes value-weighted ethical impact over a set of
// classified transactions. Every function here is a pure projection of its
// inputs: nothing is mutated, nothing is cached, nothing returns an error.
package impact

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ethos-ledger/ethos/internal/model"
	"github.com/ethos-ledger/ethos/internal/values"
)

// Uncategorized buckets practices with no mapped category.
const Uncategorized = "Uncategorized"

// DefaultTopLimit is used when a non-positive limit is passed to the Top* helpers.
const DefaultTopLimit = 5

var (
	// Tolerance suppresses floating-point noise in per-category contributions.
	Tolerance = decimal.RequireFromString("0.005")
	hundred   = decimal.NewFromInt(100)
)

// Contribution is the positive and negative impact of one transaction.
type Contribution struct {
	Positive decimal.Decimal
	Negative decimal.Decimal
}

// TransactionImpact returns the impact of a single transaction. Credit
// application records contribute nothing; transactions whose credit was
// already consumed contribute no positive impact.
func TransactionImpact(tx model.Transaction, s *values.Settings) Contribution {
	if tx.IsCreditApplication {
		return Contribution{Positive: decimal.Zero, Negative: decimal.Zero}
	}
	return Contribution{
		Positive: positive(tx),
		Negative: negative(tx, s),
	}
}

func negative(tx model.Transaction, s *values.Settings) decimal.Decimal {
	switch tx.DebtSource() {
	case model.SourcePractices:
		total := decimal.Zero
		for _, p := range tx.UnethicalPractices {
			total = total.Add(tx.Share(p).Mul(values.MultiplierForCategory(tx.Category(p), s)))
		}
		return total
	case model.SourceLegacy:
		// Legacy aggregates are not scaled by value multipliers.
		return tx.LegacyDebt()
	default:
		return decimal.Zero
	}
}

func positive(tx model.Transaction) decimal.Decimal {
	if tx.CreditApplied {
		return decimal.Zero
	}
	switch tx.CreditSource() {
	case model.SourcePractices:
		total := decimal.Zero
		for _, p := range tx.EthicalPractices {
			total = total.Add(tx.Share(p))
		}
		return total
	case model.SourceLegacy:
		return tx.LegacyDebt().Abs()
	default:
		return decimal.Zero
	}
}

// NegativeImpact sums value-weighted debt over txs. A nil settings pointer
// weights every category neutrally.
func NegativeImpact(txs []model.Transaction, s *values.Settings) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.IsCreditApplication {
			continue
		}
		total = total.Add(negative(tx, s))
	}
	return total
}

// PositiveImpact sums unweighted ethical-practice credit over txs.
func PositiveImpact(txs []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.IsCreditApplication {
			continue
		}
		total = total.Add(positive(tx))
	}
	return total
}

// CategoryImpact aggregates contributions mapped to one value category.
type CategoryImpact struct {
	PositiveImpact decimal.Decimal
	NegativeImpact decimal.Decimal
	TotalSpent     decimal.Decimal // each contributing transaction counted once
}

// CategoryImpacts buckets per-practice contributions by category name.
// Legacy aggregates carry no category and are left out.
func CategoryImpacts(txs []model.Transaction, s *values.Settings) map[string]CategoryImpact {
	out := make(map[string]CategoryImpact)
	for _, tx := range txs {
		if tx.IsCreditApplication {
			continue
		}
		touched := make(map[string]bool)

		if tx.DebtSource() == model.SourcePractices {
			for _, p := range tx.UnethicalPractices {
				amount := tx.Share(p).Mul(values.MultiplierForCategory(tx.Category(p), s))
				if amount.Abs().LessThanOrEqual(Tolerance) {
					continue
				}
				name := categoryName(tx.Category(p))
				ci := out[name]
				ci.NegativeImpact = ci.NegativeImpact.Add(amount)
				out[name] = ci
				touched[name] = true
			}
		}

		if !tx.CreditApplied && tx.CreditSource() == model.SourcePractices {
			for _, p := range tx.EthicalPractices {
				amount := tx.Share(p)
				if amount.Abs().LessThanOrEqual(Tolerance) {
					continue
				}
				name := categoryName(tx.Category(p))
				ci := out[name]
				ci.PositiveImpact = ci.PositiveImpact.Add(amount)
				out[name] = ci
				touched[name] = true
			}
		}

		for name := range touched {
			ci := out[name]
			ci.TotalSpent = ci.TotalSpent.Add(tx.Amount)
			out[name] = ci
		}
	}
	return out
}

// categoryName canonicalises a practice's category to its display name.
func categoryName(raw string) string {
	if c, ok := values.Lookup(raw); ok {
		return c.DisplayName
	}
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		return trimmed
	}
	return Uncategorized
}

// CategoryEntry is one ranked row of a category breakdown.
type CategoryEntry struct {
	Name string
	CategoryImpact
}

// TopNegativeCategories ranks categories by value-weighted debt.
func TopNegativeCategories(txs []model.Transaction, s *values.Settings, limit int) []CategoryEntry {
	return top(CategoryImpacts(txs, s), limit, func(ci CategoryImpact) decimal.Decimal { return ci.NegativeImpact })
}

// TopPositiveCategories ranks categories by ethical credit. Settings do not
// affect positive impact, so none are taken.
func TopPositiveCategories(txs []model.Transaction, limit int) []CategoryEntry {
	return top(CategoryImpacts(txs, nil), limit, func(ci CategoryImpact) decimal.Decimal { return ci.PositiveImpact })
}

func top(impacts map[string]CategoryImpact, limit int, key func(CategoryImpact) decimal.Decimal) []CategoryEntry {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	var entries []CategoryEntry
	for name, ci := range impacts {
		if key(ci).LessThanOrEqual(Tolerance) {
			continue
		}
		entries = append(entries, CategoryEntry{Name: name, CategoryImpact: ci})
	}
	sort.Slice(entries, func(i, j int) bool {
		ki, kj := key(entries[i].CategoryImpact), key(entries[j].CategoryImpact)
		if !ki.Equal(kj) {
			return ki.GreaterThan(kj)
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
