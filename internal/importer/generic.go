package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ethos-ledger/ethos/internal/model"
)

// GenericParser parses a minimal CSV with a header naming the columns
// date, name and amount, plus an optional provider_id. Dates are YYYY-MM-DD
// and money out is negative, as in bank exports.
type GenericParser struct{}

const genericDateFormat = "2006-01-02"

// Format returns the parser name.
func (p *GenericParser) Format() string { return "generic" }

// Parse reads a generic CSV.
func (p *GenericParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading generic CSV header: %w", err)
	}
	cols, err := genericColumns(header)
	if err != nil {
		return nil, err
	}
	cr.FieldsPerRecord = len(header)

	var txs []model.Transaction
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading generic CSV: %w", err)
		}

		date, err := time.Parse(genericDateFormat, strings.TrimSpace(rec[cols["date"]]))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", line, rec[cols["date"]], err)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(rec[cols["amount"]]))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", line, rec[cols["amount"]], err)
		}
		if !amount.IsNegative() {
			continue
		}
		var providerID string
		if i, ok := cols["provider_id"]; ok {
			providerID = strings.TrimSpace(rec[i])
		}
		txs = append(txs, newSpend(providerID, date, rec[cols["name"]], amount))
	}
	return txs, nil
}

func genericColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, required := range []string{"date", "name", "amount"} {
		if _, ok := cols[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("generic CSV header missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}
