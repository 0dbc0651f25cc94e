package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ethos-ledger/ethos/internal/id"
	"github.com/ethos-ledger/ethos/internal/model"
)

// ChaseParser parses Chase bank checking CSV exports.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV. Chase signs money out as negative.
func (p *ChaseParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var txs []model.Transaction
	for i, rec := range records[1:] {
		tx, spend, err := parseChaseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if spend {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func parseChaseRow(rec []string) (model.Transaction, bool, error) {
	date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err)
	}

	amount, err := decimal.NewFromString(rec[chaseColAmount])
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("parsing amount %q: %w", rec[chaseColAmount], err)
	}
	if !amount.IsNegative() {
		return model.Transaction{}, false, nil
	}

	return newSpend("", date, rec[chaseColDesc], amount), true, nil
}

// newSpend builds an unanalysed transaction from a bank row.
func newSpend(providerID string, date time.Time, name string, signed decimal.Decimal) model.Transaction {
	name = strings.TrimSpace(name)
	amount := signed.Abs()
	return model.Transaction{
		ID:         id.TransactionID(providerID, date, name, amount),
		ProviderID: providerID,
		Date:       date,
		Name:       name,
		Amount:     amount,
	}
}
