package classify

import (
	"context"
	"errors"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ethos-ledger/ethos/internal/apperr"
	"github.com/ethos-ledger/ethos/internal/model"
)

const (
	DefaultTimeout           = 60 * time.Second
	DefaultLookupConcurrency = 8

	// fuzzyMinLength and fuzzyMaxDistance bound vendor-name fallback matching.
	fuzzyMinLength   = 6
	fuzzyMaxDistance = 2
)

// ErrNoClassifier is returned when misses remain and no classifier is configured.
var ErrNoClassifier = errors.New("no classifier configured")

// ResolverConfig tunes a Resolver. Zero values take the defaults.
type ResolverConfig struct {
	Timeout           time.Duration
	LookupConcurrency int
}

// Resolver fills in classifications for unanalysed transactions.
type Resolver struct {
	cache             Cache
	classifier        Classifier
	timeout           time.Duration
	lookupConcurrency int
	logger            zerolog.Logger
}

// NewResolver creates a resolver. cache and classifier may be nil.
func NewResolver(cache Cache, classifier Classifier, cfg ResolverConfig, logger zerolog.Logger) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = DefaultLookupConcurrency
	}
	return &Resolver{
		cache:             cache,
		classifier:        classifier,
		timeout:           cfg.Timeout,
		lookupConcurrency: cfg.LookupConcurrency,
		logger:            logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolution is the outcome of one Resolve call. Transactions is always the
// full batch; the id lists say what happened to each unanalysed entry.
type Resolution struct {
	Transactions []model.Transaction
	CacheHits    []string
	Classified   []string
	Pending      []string
	CacheWrites  []string
}

// Resolve classifies every unanalysed transaction in txs. Cache hits are
// applied first; misses go to the classifier in one batch with no retry.
// When the classifier fails the returned Resolution still carries the cache
// hits, the misses stay unanalysed, and the error wraps apperr.ErrUpstream.
func (r *Resolver) Resolve(ctx context.Context, txs []model.Transaction) (Resolution, error) {
	res := Resolution{Transactions: append([]model.Transaction(nil), txs...)}
	out := res.Transactions

	var pending []int
	for i, tx := range out {
		if tx.Analyzed || tx.IsCreditApplication {
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return res, nil
	}

	hits := r.lookup(ctx, out, pending)

	var misses []int
	for _, i := range pending {
		if hit, ok := hits[NormalizeVendor(out[i].Name)]; ok {
			hit.ApplyTo(&out[i])
			res.CacheHits = append(res.CacheHits, out[i].ID)
			continue
		}
		misses = append(misses, i)
	}
	r.logger.Debug().
		Int("pending", len(pending)).
		Int("cache_hits", len(res.CacheHits)).
		Int("misses", len(misses)).
		Msg("cache lookup complete")

	if len(misses) == 0 {
		return res, nil
	}

	results, err := r.classify(ctx, out, misses)
	if err != nil {
		for _, i := range misses {
			res.Pending = append(res.Pending, out[i].ID)
		}
		r.logger.Error().Err(err).Int("misses", len(misses)).Msg("classifier failed")
		return res, apperr.Upstream("classifying transactions", err)
	}

	matched := match(out, misses, results)
	written := make(map[string]bool)
	for _, i := range misses {
		result, ok := matched[i]
		if !ok {
			res.Pending = append(res.Pending, out[i].ID)
			continue
		}
		result.ApplyTo(&out[i])
		res.Classified = append(res.Classified, out[i].ID)

		vendor := NormalizeVendor(out[i].Name)
		if vendor == UnknownVendor || r.cache == nil || written[vendor] {
			continue
		}
		written[vendor] = true
		if err := r.cache.Put(ctx, vendor, result.ForCache(vendor)); err != nil {
			r.logger.Warn().Err(err).Str("vendor", vendor).Msg("cache write failed")
			continue
		}
		res.CacheWrites = append(res.CacheWrites, vendor)
	}

	if len(res.Pending) > 0 {
		r.logger.Warn().Strs("pending", res.Pending).Msg("classifier returned no result for some transactions")
	}
	return res, nil
}

// lookup reads the cache once per distinct vendor. Lookup errors and
// incomplete entries are logged and treated as misses.
func (r *Resolver) lookup(ctx context.Context, txs []model.Transaction, pending []int) map[string]model.ClassificationResult {
	if r.cache == nil {
		return nil
	}

	var vendors []string
	seen := make(map[string]bool)
	for _, i := range pending {
		v := NormalizeVendor(txs[i].Name)
		if v == UnknownVendor || seen[v] {
			continue
		}
		seen[v] = true
		vendors = append(vendors, v)
	}

	found := make([]*model.ClassificationResult, len(vendors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.lookupConcurrency)
	for n, vendor := range vendors {
		g.Go(func() error {
			result, ok, err := r.cache.Get(gctx, vendor)
			switch {
			case err != nil:
				r.logger.Warn().Err(err).Str("vendor", vendor).Msg("cache lookup failed")
			case !ok:
			case !result.Complete():
				r.logger.Warn().Str("vendor", vendor).Msg("cached classification is incomplete")
			default:
				found[n] = &result
			}
			return nil
		})
	}
	_ = g.Wait()

	hits := make(map[string]model.ClassificationResult)
	for n, vendor := range vendors {
		if found[n] != nil {
			hits[vendor] = *found[n]
		}
	}
	return hits
}

func (r *Resolver) classify(ctx context.Context, txs []model.Transaction, misses []int) ([]model.ClassificationResult, error) {
	if r.classifier == nil {
		return nil, ErrNoClassifier
	}
	batch := make([]model.Transaction, len(misses))
	for n, i := range misses {
		batch[n] = txs[i]
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.classifier.Classify(cctx, batch)
}

// match pairs classifier results with miss indices. Results are matched by
// transaction id first; a result whose id is unknown falls back to the
// closest unmatched vendor name. Unmatched and incomplete results are dropped.
func match(txs []model.Transaction, misses []int, results []model.ClassificationResult) map[int]model.ClassificationResult {
	byID := make(map[string]int, len(misses))
	for _, i := range misses {
		byID[txs[i].ID] = i
	}

	matched := make(map[int]model.ClassificationResult, len(results))
	var leftovers []model.ClassificationResult
	for _, result := range results {
		if !result.Complete() {
			continue
		}
		i, ok := byID[result.MatchingTransactionID]
		if !ok {
			leftovers = append(leftovers, result)
			continue
		}
		if _, dup := matched[i]; !dup {
			matched[i] = result
		}
	}

	for _, result := range leftovers {
		if i, ok := closestVendor(txs, misses, matched, result.VendorName); ok {
			matched[i] = result
		}
	}
	return matched
}

func closestVendor(txs []model.Transaction, misses []int, matched map[int]model.ClassificationResult, vendorName string) (int, bool) {
	want := NormalizeVendor(vendorName)
	if want == UnknownVendor {
		return 0, false
	}

	best, bestDist := -1, fuzzyMaxDistance+1
	for _, i := range misses {
		if _, taken := matched[i]; taken {
			continue
		}
		got := NormalizeVendor(txs[i].Name)
		if got == want {
			return i, true
		}
		if len(got) < fuzzyMinLength || len(want) < fuzzyMinLength {
			continue
		}
		if d := levenshtein.ComputeDistance(got, want); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}
