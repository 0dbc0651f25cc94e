package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditPhase is the per-user credit lifecycle state.
type CreditPhase string

const (
	PhaseNoCredit         CreditPhase = "no-credit"
	PhaseCreditAvailable  CreditPhase = "credit-available"
	PhasePartiallyApplied CreditPhase = "credit-partially-applied"
)

// CreditState is the per-user ledger of positive impact consumed against debt.
// The zero value is the lazily created state of a new user.
type CreditState struct {
	AvailableCredit      decimal.Decimal `json:"availableCredit"`
	AppliedCredit        decimal.Decimal `json:"appliedCredit"`
	CreditTransactionIDs []string        `json:"creditTransactionIds"`
	LastAppliedAmount    decimal.Decimal `json:"lastAppliedAmount"`
	LastAppliedAt        time.Time       `json:"lastAppliedAt"`
}

// Has reports whether id has already been counted toward credit.
func (s CreditState) Has(id string) bool {
	for _, existing := range s.CreditTransactionIDs {
		if existing == id {
			return true
		}
	}
	return false
}

// Phase derives the lifecycle state from the balances.
func (s CreditState) Phase() CreditPhase {
	switch {
	case s.AppliedCredit.IsPositive():
		return PhasePartiallyApplied
	case s.AvailableCredit.IsPositive():
		return PhaseCreditAvailable
	default:
		return PhaseNoCredit
	}
}

// Clone returns a copy that shares no slices with s.
func (s CreditState) Clone() CreditState {
	s.CreditTransactionIDs = append([]string(nil), s.CreditTransactionIDs...)
	return s
}
