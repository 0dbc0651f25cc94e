package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImpactSource says where a transaction's debt or credit comes from.
type ImpactSource int

const (
	// SourceNone means the transaction contributes nothing on that side.
	SourceNone ImpactSource = iota
	// SourcePractices means per-practice weights drive the contribution.
	SourcePractices
	// SourceLegacy means the aggregate SocietalDebt field drives the contribution.
	SourceLegacy
)

func (s ImpactSource) String() string {
	switch s {
	case SourcePractices:
		return "practices"
	case SourceLegacy:
		return "legacy"
	default:
		return "none"
	}
}

// Transaction is a single spending event, optionally classified.
type Transaction struct {
	ID                  string                     `json:"id"`
	ProviderID          string                     `json:"providerId,omitempty"`
	Date                time.Time                  `json:"date"`
	Name                string                     `json:"name"`
	Amount              decimal.Decimal            `json:"amount"` // magnitude of the spend, never negative
	UnethicalPractices  []string                   `json:"unethicalPractices,omitempty"`
	EthicalPractices    []string                   `json:"ethicalPractices,omitempty"`
	PracticeWeights     map[string]decimal.Decimal `json:"practiceWeights,omitempty"` // percent of Amount, 0..100
	PracticeCategories  map[string]string          `json:"practiceCategories,omitempty"`
	Information         string                     `json:"information,omitempty"`
	Citations           []string                   `json:"citations,omitempty"`
	Analyzed            bool                       `json:"analyzed"`
	CreditApplied       bool                       `json:"creditApplied,omitempty"`
	IsCreditApplication bool                       `json:"isCreditApplication,omitempty"`
	SocietalDebt        *decimal.Decimal           `json:"societalDebt,omitempty"` // legacy aggregate; nil when absent
}

// DebtSource reports which field feeds negative impact. Practices win over
// the legacy aggregate, so the two are never counted together.
func (t Transaction) DebtSource() ImpactSource {
	if len(t.UnethicalPractices) > 0 {
		return SourcePractices
	}
	if t.SocietalDebt != nil && t.SocietalDebt.IsPositive() {
		return SourceLegacy
	}
	return SourceNone
}

// CreditSource reports which field feeds positive impact.
func (t Transaction) CreditSource() ImpactSource {
	if len(t.EthicalPractices) > 0 {
		return SourcePractices
	}
	if t.SocietalDebt != nil && t.SocietalDebt.IsNegative() {
		return SourceLegacy
	}
	return SourceNone
}

// Weight returns the percentage of Amount attributed to practice, or zero.
func (t Transaction) Weight(practice string) decimal.Decimal {
	if w, ok := t.PracticeWeights[practice]; ok {
		return w
	}
	return decimal.Zero
}

// Category returns the value category name mapped to practice, or "".
func (t Transaction) Category(practice string) string {
	return t.PracticeCategories[practice]
}

// Share returns Amount * weight/100 for practice.
func (t Transaction) Share(practice string) decimal.Decimal {
	return t.Amount.Mul(t.Weight(practice)).Div(hundred)
}

// LegacyDebt returns the legacy aggregate, zero when absent.
func (t Transaction) LegacyDebt() decimal.Decimal {
	if t.SocietalDebt == nil {
		return decimal.Zero
	}
	return *t.SocietalDebt
}

var hundred = decimal.NewFromInt(100)
