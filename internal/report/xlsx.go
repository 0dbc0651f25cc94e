package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ethos-ledger/ethos/internal/values"
)

// Sheet names in the exported workbook.
const (
	SummarySheet      = "Summary"
	CategoriesSheet   = "Categories"
	TransactionsSheet = "Transactions"
)

// WriteXLSX writes a workbook with summary, category and transaction sheets.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	for _, name := range []string{CategoriesSheet, TransactionsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	sw := sheetWriter{f: f, header: headerStyle}
	sw.summary(r)
	sw.categories(r)
	sw.transactions(r)
	if sw.err != nil {
		return sw.err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first cell error so the sheet builders stay flat.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (s *sheetWriter) set(sheet string, col, row int, v any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	if d, ok := v.(decimal.Decimal); ok {
		v = d.Round(2).InexactFloat64()
	}
	if err := s.f.SetCellValue(sheet, cell, v); err != nil {
		s.err = fmt.Errorf("writing %s!%s: %w", sheet, cell, err)
	}
}

func (s *sheetWriter) headerRow(sheet string, headers ...string) {
	for i, h := range headers {
		s.set(sheet, i+1, 1, h)
	}
	if s.err != nil {
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := s.f.SetCellStyle(sheet, "A1", last, s.header); err != nil {
		s.err = fmt.Errorf("styling %s header: %w", sheet, err)
	}
}

func (s *sheetWriter) summary(r Report) {
	a := r.Analysis
	s.headerRow(SummarySheet, "Metric", "Value")
	rows := []struct {
		label string
		value any
	}{
		{"User", r.UserID},
		{"Generated", r.GeneratedAt.Format("2006-01-02 15:04")},
		{"Total spent", a.TotalSpent},
		{"Negative impact", a.NegativeImpact},
		{"Positive impact", a.PositiveImpact},
		{"Net societal debt", a.NetSocietalDebt},
		{"Applied credit", a.AppliedCredit},
		{"Available credit", a.AvailableCredit},
		{"Effective debt", a.EffectiveDebt},
		{"Debt % of spend", a.DebtPercentage},
		{"Offset needed", a.Offset()},
		{"Transactions", a.TotalTransactions},
		{"With debt", a.TransactionsWithDebt},
		{"With credit", a.TransactionsWithCredit},
	}
	for i, row := range rows {
		s.set(SummarySheet, 1, i+2, row.label)
		s.set(SummarySheet, 2, i+2, row.value)
	}

	// Value levels below the totals.
	start := len(rows) + 3
	s.set(SummarySheet, 1, start, "Value")
	s.set(SummarySheet, 2, start, "Level")
	for i, id := range r.Settings.Order {
		c, _ := values.Lookup(id)
		s.set(SummarySheet, 1, start+i+1, c.Emoji+" "+c.DisplayName)
		s.set(SummarySheet, 2, start+i+1, r.Settings.Level(id))
	}
	if s.err == nil {
		s.err = s.f.SetColWidth(SummarySheet, "A", "A", 24)
	}
}

func (s *sheetWriter) categories(r Report) {
	s.headerRow(CategoriesSheet, "Category", "Negative impact", "Positive impact", "Total spent")
	for i, e := range r.Categories() {
		s.set(CategoriesSheet, 1, i+2, e.Name)
		s.set(CategoriesSheet, 2, i+2, e.NegativeImpact)
		s.set(CategoriesSheet, 3, i+2, e.PositiveImpact)
		s.set(CategoriesSheet, 4, i+2, e.TotalSpent)
	}
}

func (s *sheetWriter) transactions(r Report) {
	s.headerRow(TransactionsSheet, "Date", "Name", "Amount", "Debt", "Credit", "Source", "Analyzed")
	for i, row := range r.rows() {
		n := i + 2
		s.set(TransactionsSheet, 1, n, row.tx.Date.Format(dateFormat))
		s.set(TransactionsSheet, 2, n, row.tx.Name)
		s.set(TransactionsSheet, 3, n, row.tx.Amount)
		s.set(TransactionsSheet, 4, n, row.debt.Negative)
		s.set(TransactionsSheet, 5, n, row.debt.Positive)
		s.set(TransactionsSheet, 6, n, row.debtSrc.String())
		s.set(TransactionsSheet, 7, n, row.tx.Analyzed)
	}
	if s.err == nil {
		s.err = s.f.SetColWidth(TransactionsSheet, "B", "B", 32)
	}
}
