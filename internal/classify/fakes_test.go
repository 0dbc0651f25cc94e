package classify

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ethos-ledger/ethos/internal/model"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]model.ClassificationResult
	getErr  map[string]error
	putErr  error
	gets    []string
	puts    []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]model.ClassificationResult{}, getErr: map[string]error{}}
}

func (c *fakeCache) Get(_ context.Context, vendor string) (model.ClassificationResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets = append(c.gets, vendor)
	if err := c.getErr[vendor]; err != nil {
		return model.ClassificationResult{}, false, err
	}
	r, ok := c.entries[vendor]
	return r, ok, nil
}

func (c *fakeCache) Put(_ context.Context, vendor string, r model.ClassificationResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts = append(c.puts, vendor)
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[vendor] = r
	return nil
}

type fakeClassifier struct {
	calls   [][]model.Transaction
	results []model.ClassificationResult
	err     error
}

func (c *fakeClassifier) Classify(_ context.Context, txs []model.Transaction) ([]model.ClassificationResult, error) {
	c.calls = append(c.calls, txs)
	if c.err != nil {
		return nil, c.err
	}
	return c.results, nil
}

var errBoom = errors.New("boom")

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func result(txID, vendor, practice, weight string) model.ClassificationResult {
	return model.ClassificationResult{
		MatchingTransactionID: txID,
		VendorName:            vendor,
		UnethicalPractices:    []string{practice},
		EthicalPractices:      []string{},
		PracticeWeights:       map[string]decimal.Decimal{practice: dec(weight)},
		PracticeCategories:    map[string]string{practice: "Environment"},
		Information:           vendor + " summary",
	}
}

func tx(txID, name, amount string) model.Transaction {
	return model.Transaction{ID: txID, Name: name, Amount: dec(amount)}
}
