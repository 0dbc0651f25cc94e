package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethos-ledger/ethos/internal/id"
	"github.com/ethos-ledger/ethos/internal/model"
)

// JSONParser reads a JSON array of transactions, as produced by an earlier
// export or another ethos ledger. Classified entries keep their practices
// and skip the classifier; creditApplied marks credit already consumed
// elsewhere and is kept.
type JSONParser struct{}

// Format returns the parser name.
func (p *JSONParser) Format() string { return "json" }

// Parse decodes the array. Missing ids are derived the same way as for CSV rows.
func (p *JSONParser) Parse(r io.Reader) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := json.NewDecoder(r).Decode(&txs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding transactions JSON: %w", err)
	}

	out := txs[:0]
	for i, tx := range txs {
		// Offset records belong to the ledger that made them; older exports
		// may carry only the id prefix.
		if tx.IsCreditApplication || id.IsCreditApplicationID(tx.ID) {
			continue
		}
		if tx.Amount.IsNegative() {
			return nil, fmt.Errorf("transaction %d: amount %s must be a positive spend", i, tx.Amount)
		}
		tx.Name = strings.TrimSpace(tx.Name)
		if tx.ID == "" {
			tx.ID = id.TransactionID(tx.ProviderID, tx.Date, tx.Name, tx.Amount)
		}
		out = append(out, tx)
	}
	return out, nil
}
