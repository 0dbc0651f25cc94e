package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethos-ledger/ethos/internal/apperr"
	"github.com/ethos-ledger/ethos/internal/logger"
	"github.com/ethos-ledger/ethos/internal/model"
)

func newTestResolver(cache Cache, classifier Classifier) *Resolver {
	return NewResolver(cache, classifier, ResolverConfig{Timeout: time.Second, LookupConcurrency: 2}, logger.Nop())
}

func TestResolve_AllCached(t *testing.T) {
	cache := newFakeCache()
	cache.entries["starbucks"] = result("", "Starbucks", "Packaging Waste", "5")
	classifier := &fakeClassifier{}

	txs := []model.Transaction{tx("a", "STARBUCKS STORE 123", "5.40"), tx("b", "Starbucks #99", "3.10")}
	res, err := newTestResolver(cache, classifier).Resolve(context.Background(), txs)
	require.NoError(t, err)

	assert.Empty(t, classifier.calls)
	assert.Equal(t, []string{"a", "b"}, res.CacheHits)
	assert.Equal(t, []string{"starbucks"}, cache.gets, "one lookup per vendor")
	for _, got := range res.Transactions {
		assert.True(t, got.Analyzed)
		assert.Equal(t, []string{"Packaging Waste"}, got.UnethicalPractices)
	}
	assert.False(t, txs[0].Analyzed, "input is not modified")
}

func TestResolve_MissesGoToClassifierInOneBatch(t *testing.T) {
	cache := newFakeCache()
	cache.entries["starbucks"] = result("", "Starbucks", "Packaging Waste", "5")
	classifier := &fakeClassifier{results: []model.ClassificationResult{
		result("b", "Exxon", "Emissions", "40"),
		result("c", "Unknown", "Mystery", "10"),
	}}

	analysed := tx("z", "Already Done", "1")
	analysed.Analyzed = true
	txs := []model.Transaction{tx("a", "Starbucks", "5"), tx("b", "EXXONMOBIL 4431", "60"), tx("c", "", "12"), analysed}

	res, err := newTestResolver(cache, classifier).Resolve(context.Background(), txs)
	require.NoError(t, err)

	require.Len(t, classifier.calls, 1)
	var sent []string
	for _, s := range classifier.calls[0] {
		sent = append(sent, s.ID)
	}
	assert.Equal(t, []string{"b", "c"}, sent)

	assert.Equal(t, []string{"a"}, res.CacheHits)
	assert.Equal(t, []string{"b", "c"}, res.Classified)
	assert.Empty(t, res.Pending)
	assert.Equal(t, []string{"exxonmobil"}, res.CacheWrites)
	assert.Equal(t, []string{"exxonmobil"}, cache.puts, "sentinel vendor is never cached")

	cached := cache.entries["exxonmobil"]
	assert.Empty(t, cached.MatchingTransactionID)
	assert.Equal(t, "exxonmobil", cached.VendorName)
	assert.Len(t, res.Transactions, 4)
}

func TestResolve_ClassifierFailureKeepsCacheHits(t *testing.T) {
	cache := newFakeCache()
	cache.entries["patagonia"] = result("", "Patagonia", "Synthetic Fibers", "3")
	classifier := &fakeClassifier{err: errBoom}

	txs := []model.Transaction{tx("a", "Patagonia", "120"), tx("b", "Nestle", "8")}
	res, err := newTestResolver(cache, classifier).Resolve(context.Background(), txs)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"a"}, res.CacheHits)
	assert.Equal(t, []string{"b"}, res.Pending)
	assert.True(t, res.Transactions[0].Analyzed)
	assert.False(t, res.Transactions[1].Analyzed)
	assert.Empty(t, cache.puts)
}

func TestResolve_NoClassifier(t *testing.T) {
	res, err := newTestResolver(newFakeCache(), nil).Resolve(context.Background(), []model.Transaction{tx("a", "Nestle", "8")})
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.ErrorIs(t, err, ErrNoClassifier)
	assert.Equal(t, []string{"a"}, res.Pending)
}

func TestResolve_CacheWriteFailureIsNotFatal(t *testing.T) {
	cache := newFakeCache()
	cache.putErr = errBoom
	classifier := &fakeClassifier{results: []model.ClassificationResult{result("a", "Nestle", "Water Extraction", "20")}}

	res, err := newTestResolver(cache, classifier).Resolve(context.Background(), []model.Transaction{tx("a", "Nestle", "8")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Classified)
	assert.Empty(t, res.CacheWrites)
	assert.True(t, res.Transactions[0].Analyzed)
}

func TestResolve_LookupErrorsAndIncompleteEntriesAreMisses(t *testing.T) {
	cache := newFakeCache()
	cache.getErr["nestle"] = errBoom
	cache.entries["exxon"] = model.ClassificationResult{VendorName: "exxon"}
	classifier := &fakeClassifier{results: []model.ClassificationResult{
		result("a", "Nestle", "Water Extraction", "20"),
		result("b", "Exxon", "Emissions", "40"),
	}}

	res, err := newTestResolver(cache, classifier).Resolve(context.Background(),
		[]model.Transaction{tx("a", "Nestle", "8"), tx("b", "Exxon", "50")})
	require.NoError(t, err)
	assert.Empty(t, res.CacheHits)
	assert.Equal(t, []string{"a", "b"}, res.Classified)
	assert.ElementsMatch(t, []string{"nestle", "exxon"}, res.CacheWrites)
}

func TestResolve_FallsBackToVendorName(t *testing.T) {
	classifier := &fakeClassifier{results: []model.ClassificationResult{
		result("tx-mangled", "Wal-Mart", "Low Wages", "15"),
		result("also-wrong", "Costco Wholesale", "Bulk Packaging", "2"),
		result("nope", "Completely Different", "Nothing", "1"),
	}}
	txs := []model.Transaction{tx("a", "WALMART", "40"), tx("b", "COSTCO WHOLSALE #12", "90")}

	res, err := newTestResolver(nil, classifier).Resolve(context.Background(), txs)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Classified)
	assert.Equal(t, []string{"Low Wages"}, res.Transactions[0].UnethicalPractices)
	assert.Equal(t, []string{"Bulk Packaging"}, res.Transactions[1].UnethicalPractices)
}

func TestResolve_UnmatchedResultsLeavePending(t *testing.T) {
	classifier := &fakeClassifier{results: []model.ClassificationResult{
		{MatchingTransactionID: "a", VendorName: "Nestle"}, // incomplete
	}}
	res, err := newTestResolver(nil, classifier).Resolve(context.Background(), []model.Transaction{tx("a", "Nestle", "8")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Pending)
	assert.Empty(t, res.Classified)
}

func TestResolve_NothingPending(t *testing.T) {
	done := tx("a", "Nestle", "8")
	done.Analyzed = true
	record := tx("credit_1", "Ethical credit applied", "10")
	record.IsCreditApplication = true
	classifier := &fakeClassifier{err: errors.New("must not be called")}

	res, err := newTestResolver(nil, classifier).Resolve(context.Background(), []model.Transaction{done, record})
	require.NoError(t, err)
	assert.Empty(t, classifier.calls)
	assert.Len(t, res.Transactions, 2)
}
