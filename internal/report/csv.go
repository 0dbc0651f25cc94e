package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionsHeader is the CSV header written by WriteCSV.
const TransactionsHeader = "id,date,name,amount,debt,credit,debt_source,analyzed,credit_applied,is_credit_application,unethical_practices,ethical_practices"

// CategoriesHeader is the CSV header written by WriteCategoriesCSV.
const CategoriesHeader = "category,negative_impact,positive_impact,total_spent"

const dateFormat = "2006-01-02"

// WriteCSV writes one row per transaction with its value-weighted impact.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(TransactionsHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range r.rows() {
		tx := row.tx
		rec := []string{
			tx.ID,
			tx.Date.Format(dateFormat),
			tx.Name,
			money(tx.Amount),
			money(row.debt.Negative),
			money(row.debt.Positive),
			row.debtSrc.String(),
			strconv.FormatBool(tx.Analyzed),
			strconv.FormatBool(tx.CreditApplied),
			strconv.FormatBool(tx.IsCreditApplication),
			strings.Join(tx.UnethicalPractices, ";"),
			strings.Join(tx.EthicalPractices, ";"),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCategoriesCSV writes the per-category breakdown.
func WriteCategoriesCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(CategoriesHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range r.Categories() {
		rec := []string{e.Name, money(e.NegativeImpact), money(e.PositiveImpact), money(e.TotalSpent)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
