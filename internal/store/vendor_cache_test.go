package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethos-ledger/ethos/internal/model"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func cachedResult() model.ClassificationResult {
	return model.ClassificationResult{
		VendorName:         "exxonmobil",
		UnethicalPractices: []string{"Emissions"},
		EthicalPractices:   []string{},
		PracticeWeights:    map[string]decimal.Decimal{"Emissions": dec("40")},
		PracticeCategories: map[string]string{"Emissions": "Environment"},
		Information:        "Oil major",
	}
}

func TestVendorCache_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	cache := s.VendorCache(0)

	_, ok, err := cache.Get(ctx, "exxonmobil")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "exxonmobil", cachedResult()))

	got, ok, err := cache.Get(ctx, "exxonmobil")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Complete())
	assert.Equal(t, []string{"Emissions"}, got.UnethicalPractices)
	assert.True(t, dec("40").Equal(got.PracticeWeights["Emissions"]))
}

func TestVendorCache_Expiry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := s.VendorCache(DefaultCacheValidity).WithClock(c.Now)

	require.NoError(t, cache.Put(ctx, "exxonmobil", cachedResult()))

	c.t = c.t.Add(89 * 24 * time.Hour)
	_, ok, err := cache.Get(ctx, "exxonmobil")
	require.NoError(t, err)
	assert.True(t, ok)

	c.t = c.t.Add(2 * 24 * time.Hour)
	_, ok, err = cache.Get(ctx, "exxonmobil")
	require.NoError(t, err)
	assert.False(t, ok, "entries past the validity window are absent")

	// A fresh write revives the entry.
	require.NoError(t, cache.Put(ctx, "exxonmobil", cachedResult()))
	_, ok, err = cache.Get(ctx, "exxonmobil")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVendorCache_Prune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := s.VendorCache(24 * time.Hour).WithClock(c.Now)

	require.NoError(t, cache.Put(ctx, "old", cachedResult()))
	c.t = c.t.Add(36 * time.Hour)
	require.NoError(t, cache.Put(ctx, "new", cachedResult()))

	n, err := cache.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, err := cache.Get(ctx, "new")
	require.NoError(t, err)
	assert.True(t, ok)
}
