// Package service orchestrates the pure impact, values and credit packages
// with persistence and classification for one user at a time.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ethos-ledger/ethos/internal/apperr"
	"github.com/ethos-ledger/ethos/internal/classify"
	"github.com/ethos-ledger/ethos/internal/credit"
	"github.com/ethos-ledger/ethos/internal/id"
	"github.com/ethos-ledger/ethos/internal/impact"
	"github.com/ethos-ledger/ethos/internal/model"
	"github.com/ethos-ledger/ethos/internal/store"
	"github.com/ethos-ledger/ethos/internal/values"
)

// Store is the persistence the service needs. *store.Store implements it.
type Store interface {
	LoadValueSettings(ctx context.Context, userID string) (values.Settings, error)
	SaveValueSettings(ctx context.Context, userID string, settings values.Settings) error
	LoadSnapshot(ctx context.Context, userID string) (store.Snapshot, error)
	SaveLedger(ctx context.Context, userID string, readVersion int64, state model.CreditState, txs []model.Transaction, a impact.Analysis) error
	ResetAccount(ctx context.Context, userID string) error
}

// Resolver classifies unanalysed transactions. *classify.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, txs []model.Transaction) (classify.Resolution, error)
}

// Service is the caller-facing API.
type Service struct {
	store    Store
	resolver Resolver
	guard    *Guard
	now      func() time.Time
	newID    func() string
	logger   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(st Store, resolver Resolver, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    st,
		resolver: resolver,
		guard:    NewGuard(),
		now:      time.Now,
		newID:    id.NewCreditApplicationID,
		logger:   logger.With().Str("component", "service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ledgerKey guards operations that rewrite the transaction batch or credit state.
func ledgerKey(userID string) string { return "ledger:" + userID }

// valuesKey guards read-modify-write of value settings.
func valuesKey(userID string) string { return "values:" + userID }

// ComputeImpact recomputes the user's analysis from one consistent snapshot.
func (s *Service) ComputeImpact(ctx context.Context, userID string) (impact.Analysis, error) {
	snap, err := s.store.LoadSnapshot(ctx, userID)
	if err != nil {
		return impact.Analysis{}, fmt.Errorf("computing impact: %w", err)
	}
	return impact.Analyze(snap.Batch.Transactions, snap.Credit.AppliedCredit, &snap.Settings), nil
}

// Breakdown returns the ranked negative and positive categories for the
// user's saved batch.
func (s *Service) Breakdown(ctx context.Context, userID string, limit int) (negative, positive []impact.CategoryEntry, err error) {
	snap, err := s.store.LoadSnapshot(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("computing breakdown: %w", err)
	}
	txs := snap.Batch.Transactions
	return impact.TopNegativeCategories(txs, &snap.Settings, limit), impact.TopPositiveCategories(txs, limit), nil
}

// Transactions returns the user's saved batch.
func (s *Service) Transactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	snap, err := s.store.LoadSnapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	return snap.Batch.Transactions, nil
}

// ValueSettings returns the user's current settings.
func (s *Service) ValueSettings(ctx context.Context, userID string) (values.Settings, error) {
	settings, err := s.store.LoadValueSettings(ctx, userID)
	if err != nil {
		return values.Settings{}, fmt.Errorf("loading value settings: %w", err)
	}
	return settings, nil
}

// UpdateValueLevel sets one category's level, rebalancing the others.
func (s *Service) UpdateValueLevel(ctx context.Context, userID, categoryID string, level int) (values.Settings, error) {
	return s.updateSettings(ctx, userID, func(cur values.Settings) (values.Settings, error) {
		return cur.UpdateLevel(categoryID, level)
	})
}

// ReorderCategories replaces the rebalancing priority order.
func (s *Service) ReorderCategories(ctx context.Context, userID string, order []string) (values.Settings, error) {
	return s.updateSettings(ctx, userID, func(cur values.Settings) (values.Settings, error) {
		return cur.Reorder(order)
	})
}

// ResetValues returns every category to its default level and canonical order.
func (s *Service) ResetValues(ctx context.Context, userID string) (values.Settings, error) {
	return s.updateSettings(ctx, userID, func(cur values.Settings) (values.Settings, error) {
		return cur.Reset(), nil
	})
}

func (s *Service) updateSettings(ctx context.Context, userID string, fn func(values.Settings) (values.Settings, error)) (values.Settings, error) {
	release, err := s.guard.TryAcquire(valuesKey(userID))
	if err != nil {
		return values.Settings{}, err
	}
	defer release()

	cur, err := s.store.LoadValueSettings(ctx, userID)
	if err != nil {
		return values.Settings{}, fmt.Errorf("loading value settings: %w", err)
	}
	next, err := fn(cur)
	if err != nil {
		return cur, err
	}
	if err := s.store.SaveValueSettings(ctx, userID, next); err != nil {
		return cur, fmt.Errorf("saving value settings: %w", err)
	}
	return next, nil
}

// AnalyzeResult reports one run of the analysis pipeline.
type AnalyzeResult struct {
	RunID      string
	Analysis   impact.Analysis
	Resolution classify.Resolution
}

// Analyze merges incoming with the saved batch, resolves classifications and
// saves the batch with a fresh analysis. When the classifier fails, the
// cache-resolved progress is still saved and the upstream error returned.
func (s *Service) Analyze(ctx context.Context, userID string, incoming []model.Transaction) (AnalyzeResult, error) {
	release, err := s.guard.TryAcquire(ledgerKey(userID))
	if err != nil {
		return AnalyzeResult{}, err
	}
	defer release()

	runID := id.NewRunID()
	log := s.logger.With().Str("user", userID).Str("run", runID).Logger()

	snap, err := s.store.LoadSnapshot(ctx, userID)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("loading snapshot: %w", err)
	}

	merged := classify.Merge(incoming, snap.Batch.Transactions)
	res, resolveErr := s.resolver.Resolve(ctx, merged)
	if res.Transactions == nil {
		res.Transactions = merged
	}

	a := impact.Analyze(res.Transactions, snap.Credit.AppliedCredit, &snap.Settings)
	reconciled := credit.Reconcile(snap.Credit, a)
	if err := s.store.SaveLedger(ctx, userID, snap.Batch.Version, reconciled, res.Transactions, a); err != nil {
		return AnalyzeResult{}, fmt.Errorf("saving transaction batch: %w", err)
	}

	log.Info().
		Int("transactions", len(res.Transactions)).
		Int("cache_hits", len(res.CacheHits)).
		Int("classified", len(res.Classified)).
		Int("pending", len(res.Pending)).
		Str("effective_debt", a.EffectiveDebt.StringFixed(2)).
		Msg("analysis complete")

	out := AnalyzeResult{RunID: runID, Analysis: a, Resolution: res}
	if resolveErr != nil {
		return out, fmt.Errorf("resolving classifications: %w", resolveErr)
	}
	return out, nil
}

// ApplyCredit consumes positive impact from the saved batch against the
// user's debt. A credit-application record is appended to the batch and the
// new state and batch are saved together.
func (s *Service) ApplyCredit(ctx context.Context, userID string, amount decimal.Decimal) (credit.Result, error) {
	release, err := s.guard.TryAcquire(ledgerKey(userID))
	if err != nil {
		return credit.Result{}, err
	}
	defer release()

	snap, err := s.store.LoadSnapshot(ctx, userID)
	if err != nil {
		return credit.Result{}, fmt.Errorf("loading snapshot: %w", err)
	}

	now := s.now()
	result, err := credit.Apply(snap.Credit, snap.Batch.Transactions, amount, now)
	if err != nil {
		return credit.Result{}, err
	}
	if !result.Success {
		s.logger.Info().Str("user", userID).Str("requested", amount.String()).Msg("no unconsumed credit available")
		return result, nil
	}

	txs := append(append([]model.Transaction(nil), snap.Batch.Transactions...),
		credit.NewApplicationRecord(result.AmountApplied, now, s.newID))
	a := impact.Analyze(txs, result.State.AppliedCredit, &snap.Settings)
	result.State = credit.Reconcile(result.State, a)

	if err := s.store.SaveLedger(ctx, userID, snap.Batch.Version, result.State, txs, a); err != nil {
		return credit.Result{}, fmt.Errorf("saving credit application: %w", err)
	}

	s.logger.Info().
		Str("user", userID).
		Str("requested", amount.String()).
		Str("applied", result.AmountApplied.String()).
		Str("shortfall", result.Shortfall.String()).
		Strs("consumed", result.ConsumedIDs).
		Msg("credit applied")
	return result, nil
}

// ResetAccount deletes the user's settings, credit state and batch.
func (s *Service) ResetAccount(ctx context.Context, userID string) error {
	release, err := s.guard.TryAcquire(ledgerKey(userID))
	if err != nil {
		return err
	}
	defer release()

	if err := s.store.ResetAccount(ctx, userID); err != nil {
		return fmt.Errorf("resetting account: %w", err)
	}
	s.logger.Warn().Str("user", userID).Msg("account reset")
	return nil
}

// IsRejected reports whether err means the operation was dropped because
// another one was in flight.
func IsRejected(err error) bool {
	return errors.Is(err, apperr.ErrInFlight)
}
