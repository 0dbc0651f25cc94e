package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestDebtSource(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want ImpactSource
	}{
		{"practices", Transaction{UnethicalPractices: []string{"Factory Farming"}}, SourcePractices},
		{"practices win over legacy", Transaction{UnethicalPractices: []string{"Factory Farming"}, SocietalDebt: ptr(dec("12"))}, SourcePractices},
		{"legacy positive", Transaction{SocietalDebt: ptr(dec("12"))}, SourceLegacy},
		{"legacy negative is not debt", Transaction{SocietalDebt: ptr(dec("-3"))}, SourceNone},
		{"legacy zero", Transaction{SocietalDebt: ptr(decimal.Zero)}, SourceNone},
		{"empty", Transaction{}, SourceNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tx.DebtSource(), tt.name)
	}
}

func TestCreditSource(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want ImpactSource
	}{
		{"practices", Transaction{EthicalPractices: []string{"Fair Trade"}}, SourcePractices},
		{"practices win over legacy", Transaction{EthicalPractices: []string{"Fair Trade"}, SocietalDebt: ptr(dec("-5"))}, SourcePractices},
		{"legacy negative", Transaction{SocietalDebt: ptr(dec("-5"))}, SourceLegacy},
		{"legacy positive is not credit", Transaction{SocietalDebt: ptr(dec("5"))}, SourceNone},
		{"empty", Transaction{}, SourceNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tx.CreditSource(), tt.name)
	}
}

func TestShareDefaultsMissingWeightToZero(t *testing.T) {
	tx := Transaction{
		Amount:          dec("100"),
		PracticeWeights: map[string]decimal.Decimal{"Factory Farming": dec("40")},
	}
	assert.True(t, tx.Share("Factory Farming").Equal(dec("40")))
	assert.True(t, tx.Share("Unknown").IsZero())
	assert.Equal(t, "", tx.Category("Unknown"))
	assert.True(t, tx.LegacyDebt().IsZero())
}

func TestImpactSourceString(t *testing.T) {
	assert.Equal(t, "practices", SourcePractices.String())
	assert.Equal(t, "legacy", SourceLegacy.String())
	assert.Equal(t, "none", SourceNone.String())
}

func TestClassificationResult_Complete(t *testing.T) {
	complete := ClassificationResult{
		UnethicalPractices: []string{"Deforestation"},
		EthicalPractices:   []string{},
		PracticeWeights:    map[string]decimal.Decimal{"Deforestation": dec("20")},
	}
	assert.True(t, complete.Complete())

	missingWeight := complete
	missingWeight.PracticeWeights = map[string]decimal.Decimal{}
	assert.False(t, missingWeight.Complete())

	missingList := complete
	missingList.EthicalPractices = nil
	assert.False(t, missingList.Complete())
}

func TestClassificationResult_ApplyToCopies(t *testing.T) {
	r := ClassificationResult{
		UnethicalPractices: []string{"Deforestation"},
		EthicalPractices:   []string{"Recycling"},
		PracticeWeights:    map[string]decimal.Decimal{"Deforestation": dec("20"), "Recycling": dec("5")},
		PracticeCategories: map[string]string{"Deforestation": "Environment", "Recycling": "Environment"},
		Information:        "Palm oil sourcing",
	}
	var tx Transaction
	r.ApplyTo(&tx)

	assert.True(t, tx.Analyzed)
	assert.Equal(t, []string{"Deforestation"}, tx.UnethicalPractices)
	assert.Equal(t, "Palm oil sourcing", tx.Information)

	tx.PracticeWeights["Deforestation"] = dec("99")
	assert.True(t, r.PracticeWeights["Deforestation"].Equal(dec("20")), "result must not alias transaction maps")
}

func TestClassificationResult_ForCache(t *testing.T) {
	r := ClassificationResult{MatchingTransactionID: "tx-1", VendorName: "Shell Oil"}
	cached := r.ForCache("shell_oil")
	assert.Empty(t, cached.MatchingTransactionID)
	assert.Equal(t, "shell_oil", cached.VendorName)
	assert.Equal(t, "tx-1", r.MatchingTransactionID)
}

func TestCreditState_Phase(t *testing.T) {
	var s CreditState
	assert.Equal(t, PhaseNoCredit, s.Phase())

	s.AvailableCredit = dec("10")
	assert.Equal(t, PhaseCreditAvailable, s.Phase())

	s.AppliedCredit = dec("4")
	assert.Equal(t, PhasePartiallyApplied, s.Phase())
}

func TestCreditState_HasAndClone(t *testing.T) {
	s := CreditState{CreditTransactionIDs: []string{"a", "b"}}
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("c"))

	c := s.Clone()
	c.CreditTransactionIDs[0] = "z"
	assert.Equal(t, "a", s.CreditTransactionIDs[0])
}
