// Package classify resolves ethical classifications for transactions,
// reading a vendor cache first and sending only the misses to an external
// classifier.
package classify

import (
	"context"

	"github.com/ethos-ledger/ethos/internal/model"
)

// Classifier classifies a batch of transactions in one call.
type Classifier interface {
	Classify(ctx context.Context, txs []model.Transaction) ([]model.ClassificationResult, error)
}

// Cache stores classifications keyed by normalised vendor name. Get reports
// ok=false for absent or expired entries.
type Cache interface {
	Get(ctx context.Context, vendor string) (model.ClassificationResult, bool, error)
	Put(ctx context.Context, vendor string, result model.ClassificationResult) error
}

// Merge combines a freshly imported batch with the saved one. Entries are
// matched by id and the analysed entry wins; when both or neither are
// analysed the saved entry is kept. Saved order comes first, followed by new
// incoming ids in their incoming order.
func Merge(incoming, saved []model.Transaction) []model.Transaction {
	byID := make(map[string]int, len(saved)+len(incoming))
	out := make([]model.Transaction, 0, len(saved)+len(incoming))

	for _, tx := range saved {
		if i, ok := byID[tx.ID]; ok {
			out[i] = prefer(out[i], tx)
			continue
		}
		byID[tx.ID] = len(out)
		out = append(out, tx)
	}
	for _, tx := range incoming {
		if i, ok := byID[tx.ID]; ok {
			out[i] = prefer(out[i], tx)
			continue
		}
		byID[tx.ID] = len(out)
		out = append(out, tx)
	}
	return out
}

// prefer picks the analysed entry. CreditApplied is sticky across both.
func prefer(existing, candidate model.Transaction) model.Transaction {
	consumed := existing.CreditApplied || candidate.CreditApplied
	out := existing
	if candidate.Analyzed && !existing.Analyzed {
		out = candidate
	}
	out.CreditApplied = consumed
	return out
}
