package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethos-ledger/ethos/internal/model"
)

// DefaultCacheValidity is how long a vendor classification stays usable.
const DefaultCacheValidity = 90 * 24 * time.Hour

// VendorCache is the shared classification cache keyed by normalised vendor
// name. Entries older than the validity window are reported absent.
type VendorCache struct {
	db       *sql.DB
	validity time.Duration
	now      func() time.Time
}

// VendorCache returns the cache backed by this store. A non-positive
// validity selects DefaultCacheValidity.
func (s *Store) VendorCache(validity time.Duration) *VendorCache {
	if validity <= 0 {
		validity = DefaultCacheValidity
	}
	return &VendorCache{db: s.db, validity: validity, now: s.now}
}

// WithClock returns a copy of the cache that reads time from now.
func (c *VendorCache) WithClock(now func() time.Time) *VendorCache {
	cp := *c
	cp.now = now
	return &cp
}

// Get returns the cached classification for vendor.
func (c *VendorCache) Get(ctx context.Context, vendor string) (model.ClassificationResult, bool, error) {
	var (
		payload  string
		cachedAt int64
	)
	err := c.db.QueryRowContext(ctx, `
	SELECT payload, cached_at FROM vendor_cache WHERE vendor = ?
	`, vendor).Scan(&payload, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ClassificationResult{}, false, nil
	}
	if err != nil {
		return model.ClassificationResult{}, false, fmt.Errorf("reading vendor cache %s: %w", vendor, err)
	}
	if c.expired(cachedAt) {
		return model.ClassificationResult{}, false, nil
	}

	var result model.ClassificationResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return model.ClassificationResult{}, false, fmt.Errorf("decoding vendor cache %s: %w", vendor, err)
	}
	return result, true, nil
}

// Put stores result for vendor, replacing any earlier entry.
func (c *VendorCache) Put(ctx context.Context, vendor string, result model.ClassificationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding vendor cache %s: %w", vendor, err)
	}
	_, err = c.db.ExecContext(ctx, `
	INSERT INTO vendor_cache(vendor, payload, cached_at)
	VALUES(?, ?, ?)
	ON CONFLICT(vendor) DO UPDATE SET
		payload = excluded.payload,
		cached_at = excluded.cached_at
	`, vendor, string(payload), c.now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("writing vendor cache %s: %w", vendor, err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (c *VendorCache) Prune(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.validity).UTC().Unix()
	res, err := c.db.ExecContext(ctx, `DELETE FROM vendor_cache WHERE cached_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning vendor cache: %w", err)
	}
	return res.RowsAffected()
}

func (c *VendorCache) expired(cachedAt int64) bool {
	return c.now().Sub(time.Unix(cachedAt, 0)) > c.validity
}
