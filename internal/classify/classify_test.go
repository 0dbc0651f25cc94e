package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethos-ledger/ethos/internal/model"
)

func TestMerge(t *testing.T) {
	savedA := tx("a", "Alpha", "10")
	savedA.Analyzed = true
	savedB := tx("b", "Beta", "20")
	incomingB := tx("b", "Beta", "20")
	incomingB.Analyzed = true
	incomingB.Information = "fresh"
	incomingA := tx("a", "Alpha", "10")
	incomingC := tx("c", "Gamma", "30")

	got := Merge([]model.Transaction{incomingC, incomingA, incomingB}, []model.Transaction{savedA, savedB})

	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.True(t, got[0].Analyzed, "saved analysed entry kept over unanalysed incoming")
	assert.Equal(t, "fresh", got[1].Information, "analysed incoming replaces unanalysed saved")
	assert.False(t, got[2].Analyzed)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))
	got := Merge([]model.Transaction{tx("a", "Alpha", "1")}, nil)
	require.Len(t, got, 1)
}

func TestMerge_ConsumedCreditIsSticky(t *testing.T) {
	saved := tx("a", "Alpha", "10")
	saved.Analyzed = true
	incoming := tx("a", "Alpha", "10")
	incoming.Analyzed = true
	incoming.CreditApplied = true

	got := Merge([]model.Transaction{incoming}, []model.Transaction{saved})
	require.Len(t, got, 1)
	assert.True(t, got[0].CreditApplied, "flag carried onto the kept saved entry")

	got = Merge([]model.Transaction{saved}, got)
	assert.True(t, got[0].CreditApplied, "re-import without the flag does not clear it")
}
