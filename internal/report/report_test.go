package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ethos-ledger/ethos/internal/model"
	"github.com/ethos-ledger/ethos/internal/values"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleReport(t *testing.T) Report {
	t.Helper()
	settings, err := values.NewSettings().UpdateLevel("animal_welfare", 5)
	require.NoError(t, err)

	txs := []model.Transaction{
		{
			ID:                 "farm",
			Date:               time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Name:               "Big Poultry Co",
			Amount:             dec("100"),
			UnethicalPractices: []string{"Factory Farming"},
			EthicalPractices:   []string{},
			PracticeWeights:    map[string]decimal.Decimal{"Factory Farming": dec("40")},
			PracticeCategories: map[string]string{"Factory Farming": "Animal Welfare"},
			Analyzed:           true,
		},
		{
			ID:                 "coop",
			Date:               time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
			Name:               "Fair Coop, Ltd",
			Amount:             dec("50"),
			UnethicalPractices: []string{},
			EthicalPractices:   []string{"Fair Trade"},
			PracticeWeights:    map[string]decimal.Decimal{"Fair Trade": dec("20")},
			PracticeCategories: map[string]string{"Fair Trade": "Labor Ethics"},
			Analyzed:           true,
		},
	}
	return Build("u1", txs, settings, model.CreditState{AppliedCredit: dec("4")}, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
}

func TestBuild(t *testing.T) {
	r := sampleReport(t)
	assert.True(t, dec("60").Equal(r.Analysis.NegativeImpact))
	assert.True(t, dec("10").Equal(r.Analysis.PositiveImpact))
	assert.True(t, dec("56").Equal(r.Analysis.EffectiveDebt))
	assert.True(t, dec("6").Equal(r.Analysis.AvailableCredit))
}

func TestCategories_IncludesPositiveOnly(t *testing.T) {
	cats := sampleReport(t).Categories()
	require.Len(t, cats, 2)
	assert.Equal(t, "Animal Welfare", cats[0].Name)
	assert.Equal(t, "Labor Ethics", cats[1].Name)
	assert.True(t, dec("10").Equal(cats[1].PositiveImpact))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReport(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, strings.Split(TransactionsHeader, ","), records[0])

	assert.Equal(t, []string{"farm", "2025-03-01", "Big Poultry Co", "100.00", "60.00", "0.00", "practices", "true", "false", "false", "Factory Farming", ""}, records[1])
	assert.Equal(t, "Fair Coop, Ltd", records[2][2], "names with commas are quoted")
	assert.Equal(t, "10.00", records[2][5])
	assert.Equal(t, "none", records[2][6])
}

func TestWriteCategoriesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCategoriesCSV(&buf, sampleReport(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Animal Welfare", "60.00", "0.00", "100.00"}, records[1])
	assert.Equal(t, []string{"Labor Ethics", "0.00", "10.00", "50.00"}, records[2])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReport(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, CategoriesSheet, TransactionsSheet}, f.GetSheetList())

	v, err := f.GetCellValue(SummarySheet, "A5")
	require.NoError(t, err)
	assert.Equal(t, "Negative impact", v)
	v, err = f.GetCellValue(SummarySheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "60", v)

	rows, err := f.GetRows(CategoriesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Animal Welfare", rows[1][0])

	rows, err = f.GetRows(TransactionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Fair Coop, Ltd", rows[2][1])
	assert.Equal(t, "10", rows[2][4])
}
