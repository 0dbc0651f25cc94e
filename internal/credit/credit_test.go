package credit

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethos-ledger/ethos/internal/apperr"
	"github.com/ethos-ledger/ethos/internal/id"
	"github.com/ethos-ledger/ethos/internal/impact"
	"github.com/ethos-ledger/ethos/internal/model"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ethical(txID, amount, weight string) model.Transaction {
	return model.Transaction{
		ID:                 txID,
		Amount:             dec(amount),
		EthicalPractices:   []string{"Fair Trade"},
		PracticeWeights:    map[string]decimal.Decimal{"Fair Trade": dec(weight)},
		PracticeCategories: map[string]string{"Fair Trade": "Labor Ethics"},
		Analyzed:           true,
	}
}

func TestApply_OvershootConsumesWholeTransactions(t *testing.T) {
	txs := []model.Transaction{
		ethical("a", "30", "100"),
		ethical("b", "30", "100"),
	}

	res, err := Apply(model.CreditState{AvailableCredit: dec("60")}, txs, dec("50"), now)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.True(t, dec("60").Equal(res.AmountApplied), res.AmountApplied.String())
	assert.True(t, dec("-10").Equal(res.Shortfall), res.Shortfall.String())
	assert.Equal(t, []string{"a", "b"}, res.ConsumedIDs)
	assert.Equal(t, []string{"a", "b"}, res.State.CreditTransactionIDs)
	assert.True(t, dec("60").Equal(res.State.AppliedCredit))
	assert.True(t, res.State.AvailableCredit.IsZero())
	assert.True(t, dec("60").Equal(res.State.LastAppliedAmount))
	assert.Equal(t, now, res.State.LastAppliedAt)
}

func TestApply_StopsOnceCovered(t *testing.T) {
	txs := []model.Transaction{
		ethical("a", "100", "20"), // 20
		ethical("b", "100", "20"), // 20
		ethical("c", "100", "20"), // untouched
	}
	res, err := Apply(model.CreditState{}, txs, dec("30"), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.ConsumedIDs)
	assert.True(t, dec("40").Equal(res.AmountApplied))
}

func TestApply_PartialShortfall(t *testing.T) {
	txs := []model.Transaction{ethical("a", "50", "20")}
	res, err := Apply(model.CreditState{}, txs, dec("25"), now)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, dec("10").Equal(res.AmountApplied))
	assert.True(t, dec("15").Equal(res.Shortfall))
}

func TestApply_IsIdempotentPerTransaction(t *testing.T) {
	txs := []model.Transaction{ethical("a", "30", "100"), ethical("b", "30", "100")}

	first, err := Apply(model.CreditState{}, txs, dec("50"), now)
	require.NoError(t, err)

	second, err := Apply(first.State, txs, dec("50"), now.Add(time.Hour))
	require.NoError(t, err)

	assert.False(t, second.Success)
	assert.True(t, second.AmountApplied.IsZero())
	assert.True(t, dec("50").Equal(second.Shortfall))
	assert.Equal(t, first.State, second.State)
}

func TestApply_SkipsFlaggedAndNonContributing(t *testing.T) {
	applied := ethical("applied", "100", "50")
	applied.CreditApplied = true
	record := ethical("credit_1", "100", "50")
	record.IsCreditApplication = true
	debtOnly := model.Transaction{
		ID:                 "debt",
		Amount:             dec("100"),
		UnethicalPractices: []string{"Emissions"},
		PracticeWeights:    map[string]decimal.Decimal{"Emissions": dec("30")},
	}
	legacy := model.Transaction{ID: "legacy", Amount: dec("10"), SocietalDebt: decPtr("-4")}

	res, err := Apply(model.CreditState{}, []model.Transaction{applied, record, debtOnly, legacy}, dec("100"), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy"}, res.ConsumedIDs)
	assert.True(t, dec("4").Equal(res.AmountApplied))
}

func TestApply_NothingAvailable(t *testing.T) {
	state := model.CreditState{AppliedCredit: dec("5"), CreditTransactionIDs: []string{"x"}}
	res, err := Apply(state, []model.Transaction{{ID: "plain", Amount: dec("12")}}, dec("10"), now)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, state, res.State)
	assert.Empty(t, res.ConsumedIDs)
}

func TestApply_Validation(t *testing.T) {
	txs := []model.Transaction{ethical("a", "10", "10")}

	for _, amount := range []string{"0", "-5"} {
		_, err := Apply(model.CreditState{}, txs, dec(amount), now)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrValidation), amount)
	}

	_, err := Apply(model.CreditState{}, nil, dec("5"), now)
	assert.ErrorIs(t, err, ErrNoTransactions)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestApply_DoesNotMutateInputState(t *testing.T) {
	state := model.CreditState{CreditTransactionIDs: make([]string, 1, 8)}
	state.CreditTransactionIDs[0] = "old"

	_, err := Apply(state, []model.Transaction{ethical("a", "10", "10")}, dec("1"), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, state.CreditTransactionIDs)
	assert.True(t, state.AppliedCredit.IsZero())
}

func TestApply_NeverRecordsDuplicateIDs(t *testing.T) {
	txs := []model.Transaction{ethical("a", "10", "10"), ethical("a", "10", "10"), ethical("b", "10", "10")}
	res, err := Apply(model.CreditState{}, txs, dec("100"), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.State.CreditTransactionIDs)
	assert.True(t, dec("2").Equal(res.AmountApplied))
}

func TestPhaseProgression(t *testing.T) {
	txs := []model.Transaction{ethical("a", "30", "100")}
	a := impact.Analyze(txs, decimal.Zero, nil)
	state := Reconcile(model.CreditState{}, a)
	assert.Equal(t, model.PhaseCreditAvailable, state.Phase())

	res, err := Apply(state, txs, dec("10"), now)
	require.NoError(t, err)
	assert.Equal(t, model.PhasePartiallyApplied, res.State.Phase())
}

func TestReconcile(t *testing.T) {
	a := impact.Analysis{PositiveImpact: dec("25")}
	got := Reconcile(model.CreditState{AppliedCredit: dec("10")}, a)
	assert.True(t, dec("15").Equal(got.AvailableCredit))

	got = Reconcile(model.CreditState{AppliedCredit: dec("40")}, a)
	assert.True(t, got.AvailableCredit.IsZero())
}

func TestNewApplicationRecord(t *testing.T) {
	rec := NewApplicationRecord(dec("60"), now, id.NewCreditApplicationID)
	assert.True(t, id.IsCreditApplicationID(rec.ID))
	assert.True(t, rec.IsCreditApplication)
	assert.Equal(t, now, rec.Date)

	a := impact.Analyze([]model.Transaction{rec}, decimal.Zero, nil)
	assert.Equal(t, 0, a.TotalTransactions)
	assert.True(t, a.PositiveImpact.IsZero())
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
