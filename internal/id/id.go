package id

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	compositeSep      = "|"
	compositeDate     = "2006-01-02"
	creditPrefix      = "credit_"
	pipelineRunPrefix = "run_"
)

// TransactionID returns the stable identifier of a transaction: the provider
// id when present, otherwise the date|name|amount composite.
func TransactionID(providerID string, date time.Time, name string, amount decimal.Decimal) string {
	if p := strings.TrimSpace(providerID); p != "" {
		return p
	}
	return FormatComposite(date, name, amount)
}

// FormatComposite returns an id like "2025-01-03|github pro|4.00".
// Name is trimmed, lower-cased and whitespace-collapsed so re-fetches with
// cosmetic differences map to the same id.
func FormatComposite(date time.Time, name string, amount decimal.Decimal) string {
	return strings.Join([]string{
		date.Format(compositeDate),
		strings.Join(strings.Fields(strings.ToLower(name)), " "),
		amount.Abs().StringFixed(2),
	}, compositeSep)
}

// NewCreditApplicationID returns a fresh id for a credit-offset record.
func NewCreditApplicationID() string {
	return creditPrefix + uuid.NewString()
}

// IsCreditApplicationID reports whether id was minted by NewCreditApplicationID.
func IsCreditApplicationID(id string) bool {
	return strings.HasPrefix(id, creditPrefix)
}

// NewRunID returns an id for one analysis pipeline run, used in logs.
func NewRunID() string {
	return pipelineRunPrefix + uuid.NewString()
}
