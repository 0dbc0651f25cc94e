package model

import "github.com/shopspring/decimal"

// ClassificationResult is one vendor classification, as returned by the
// external classifier or read back from the vendor cache.
type ClassificationResult struct {
	MatchingTransactionID string                     `json:"matchingTransactionId,omitempty"`
	VendorName            string                     `json:"vendorName,omitempty"`
	UnethicalPractices    []string                   `json:"unethicalPractices"`
	EthicalPractices      []string                   `json:"ethicalPractices"`
	PracticeWeights       map[string]decimal.Decimal `json:"practiceWeights"`
	PracticeCategories    map[string]string          `json:"practiceCategories"`
	Information           string                     `json:"information,omitempty"`
	Citations             []string                   `json:"citations,omitempty"`
}

// Complete reports whether the result carries the fields needed to classify
// a transaction: both practice lists present and a weight for every practice.
func (r ClassificationResult) Complete() bool {
	if r.UnethicalPractices == nil || r.EthicalPractices == nil {
		return false
	}
	for _, p := range r.UnethicalPractices {
		if _, ok := r.PracticeWeights[p]; !ok {
			return false
		}
	}
	for _, p := range r.EthicalPractices {
		if _, ok := r.PracticeWeights[p]; !ok {
			return false
		}
	}
	return true
}

// ApplyTo copies the classification onto t and marks it analyzed.
// Maps and slices are copied so the result can be reused for other transactions.
func (r ClassificationResult) ApplyTo(t *Transaction) {
	t.UnethicalPractices = append([]string{}, r.UnethicalPractices...)
	t.EthicalPractices = append([]string{}, r.EthicalPractices...)
	t.PracticeWeights = make(map[string]decimal.Decimal, len(r.PracticeWeights))
	for k, v := range r.PracticeWeights {
		t.PracticeWeights[k] = v
	}
	t.PracticeCategories = make(map[string]string, len(r.PracticeCategories))
	for k, v := range r.PracticeCategories {
		t.PracticeCategories[k] = v
	}
	t.Information = r.Information
	t.Citations = append([]string(nil), r.Citations...)
	t.Analyzed = true
}

// ForCache strips the per-transaction id so the result can be keyed by vendor.
func (r ClassificationResult) ForCache(vendor string) ClassificationResult {
	r.MatchingTransactionID = ""
	r.VendorName = vendor
	return r
}
