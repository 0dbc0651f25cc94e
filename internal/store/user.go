package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ethos-ledger/ethos/internal/apperr"
	"github.com/ethos-ledger/ethos/internal/impact"
	"github.com/ethos-ledger/ethos/internal/model"
	"github.com/ethos-ledger/ethos/internal/values"
)

// Batch is a user's saved transactions and the analysis last computed from them.
type Batch struct {
	Transactions []model.Transaction
	Analysis     impact.Analysis
	UpdatedAt    time.Time
	Version      int64 // bumped on every save; 0 when nothing is saved
}

// Snapshot is everything needed to recompute a user's impact, read at one point in time.
type Snapshot struct {
	Settings values.Settings
	Credit   model.CreditState
	Batch    Batch
}

// LoadValueSettings returns the user's settings, or neutral defaults if none are saved.
func (s *Store) LoadValueSettings(ctx context.Context, userID string) (values.Settings, error) {
	return loadSettings(ctx, s.db, userID)
}

// SaveValueSettings validates and saves settings.
func (s *Store) SaveValueSettings(ctx context.Context, userID string, settings values.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return saveSettings(ctx, s.db, userID, settings, s.stamp())
}

// LoadCreditState returns the user's credit state, or the zero state if none is saved.
func (s *Store) LoadCreditState(ctx context.Context, userID string) (model.CreditState, error) {
	return loadCredit(ctx, s.db, userID)
}

// LoadSnapshot reads settings, credit state and batch in one transaction.
func (s *Store) LoadSnapshot(ctx context.Context, userID string) (Snapshot, error) {
	var snap Snapshot
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if snap.Settings, err = loadSettings(ctx, tx, userID); err != nil {
			return err
		}
		if snap.Credit, err = loadCredit(ctx, tx, userID); err != nil {
			return err
		}
		snap.Batch, err = loadBatch(ctx, tx, userID)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// ErrStale is returned by SaveLedger when the batch was saved by someone
// else after it was read. It wraps apperr.ErrInFlight.
var ErrStale = fmt.Errorf("ledger changed since it was read: %w", apperr.ErrInFlight)

// SaveLedger writes the credit state and the batch in one transaction,
// provided the saved batch is still at readVersion (Snapshot.Batch.Version).
// Otherwise nothing is written and ErrStale is returned.
func (s *Store) SaveLedger(ctx context.Context, userID string, readVersion int64, state model.CreditState, txs []model.Transaction, a impact.Analysis) error {
	now := s.stamp()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := batchVersion(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current != readVersion {
			return ErrStale
		}
		if err := saveCredit(ctx, tx, userID, state, now); err != nil {
			return err
		}
		return saveBatch(ctx, tx, userID, txs, a, now)
	})
}

// ResetAccount deletes all of the user's rows. The vendor cache is shared and kept.
func (s *Store) ResetAccount(ctx context.Context, userID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"value_settings", "credit_state", "transaction_batches"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ?", userID); err != nil {
				return fmt.Errorf("resetting %s: %w", table, err)
			}
		}
		return nil
	})
}

func loadSettings(ctx context.Context, q querier, userID string) (values.Settings, error) {
	var levels, order string
	err := q.QueryRowContext(ctx, `
	SELECT levels, category_order FROM value_settings WHERE user_id = ?
	`, userID).Scan(&levels, &order)
	if errors.Is(err, sql.ErrNoRows) {
		return values.NewSettings(), nil
	}
	if err != nil {
		return values.Settings{}, fmt.Errorf("loading value settings: %w", err)
	}

	var settings values.Settings
	if err := json.Unmarshal([]byte(levels), &settings.Levels); err != nil {
		return values.Settings{}, fmt.Errorf("decoding value levels: %w", err)
	}
	if err := json.Unmarshal([]byte(order), &settings.Order); err != nil {
		return values.Settings{}, fmt.Errorf("decoding category order: %w", err)
	}
	return settings.Clone(), nil
}

func saveSettings(ctx context.Context, q querier, userID string, settings values.Settings, now int64) error {
	levels, err := json.Marshal(settings.Levels)
	if err != nil {
		return fmt.Errorf("encoding value levels: %w", err)
	}
	order, err := json.Marshal(settings.Order)
	if err != nil {
		return fmt.Errorf("encoding category order: %w", err)
	}
	_, err = q.ExecContext(ctx, `
	INSERT INTO value_settings(user_id, levels, category_order, updated_at)
	VALUES(?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		levels = excluded.levels,
		category_order = excluded.category_order,
		updated_at = excluded.updated_at
	`, userID, string(levels), string(order), now)
	if err != nil {
		return fmt.Errorf("saving value settings: %w", err)
	}
	return nil
}

func loadCredit(ctx context.Context, q querier, userID string) (model.CreditState, error) {
	var (
		state   model.CreditState
		ids     string
		applied string
	)
	err := q.QueryRowContext(ctx, `
	SELECT available_credit, applied_credit, credit_transaction_ids, last_applied_amount, last_applied_at
	FROM credit_state WHERE user_id = ?
	`, userID).Scan(&state.AvailableCredit, &state.AppliedCredit, &ids, &state.LastAppliedAmount, &applied)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CreditState{}, nil
	}
	if err != nil {
		return model.CreditState{}, fmt.Errorf("loading credit state: %w", err)
	}
	if err := json.Unmarshal([]byte(ids), &state.CreditTransactionIDs); err != nil {
		return model.CreditState{}, fmt.Errorf("decoding credit transaction ids: %w", err)
	}
	if applied != "" {
		if state.LastAppliedAt, err = time.Parse(time.RFC3339Nano, applied); err != nil {
			return model.CreditState{}, fmt.Errorf("decoding last applied time: %w", err)
		}
	}
	return state, nil
}

func saveCredit(ctx context.Context, q querier, userID string, state model.CreditState, now int64) error {
	ids := state.CreditTransactionIDs
	if ids == nil {
		ids = []string{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding credit transaction ids: %w", err)
	}
	var applied string
	if !state.LastAppliedAt.IsZero() {
		applied = state.LastAppliedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err = q.ExecContext(ctx, `
	INSERT INTO credit_state(user_id, available_credit, applied_credit, credit_transaction_ids,
		last_applied_amount, last_applied_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		available_credit = excluded.available_credit,
		applied_credit = excluded.applied_credit,
		credit_transaction_ids = excluded.credit_transaction_ids,
		last_applied_amount = excluded.last_applied_amount,
		last_applied_at = excluded.last_applied_at,
		updated_at = excluded.updated_at
	`, userID, decString(state.AvailableCredit), decString(state.AppliedCredit), string(encoded),
		decString(state.LastAppliedAmount), applied, now)
	if err != nil {
		return fmt.Errorf("saving credit state: %w", err)
	}
	return nil
}

func loadBatch(ctx context.Context, q querier, userID string) (Batch, error) {
	var (
		txs, analysis    string
		updated, version int64
	)
	err := q.QueryRowContext(ctx, `
	SELECT transactions, analysis, updated_at, version FROM transaction_batches WHERE user_id = ?
	`, userID).Scan(&txs, &analysis, &updated, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return Batch{}, nil
	}
	if err != nil {
		return Batch{}, fmt.Errorf("loading transaction batch: %w", err)
	}

	var b Batch
	if err := json.Unmarshal([]byte(txs), &b.Transactions); err != nil {
		return Batch{}, fmt.Errorf("decoding transactions: %w", err)
	}
	if err := json.Unmarshal([]byte(analysis), &b.Analysis); err != nil {
		return Batch{}, fmt.Errorf("decoding analysis: %w", err)
	}
	b.UpdatedAt = time.Unix(updated, 0).UTC()
	b.Version = version
	return b, nil
}

func batchVersion(ctx context.Context, q querier, userID string) (int64, error) {
	var version int64
	err := q.QueryRowContext(ctx, `
	SELECT version FROM transaction_batches WHERE user_id = ?
	`, userID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading batch version: %w", err)
	}
	return version, nil
}

func saveBatch(ctx context.Context, q querier, userID string, txs []model.Transaction, a impact.Analysis, now int64) error {
	if txs == nil {
		txs = []model.Transaction{}
	}
	encodedTxs, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("encoding transactions: %w", err)
	}
	encodedAnalysis, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	_, err = q.ExecContext(ctx, `
	INSERT INTO transaction_batches(user_id, transactions, analysis, updated_at, version)
	VALUES(?, ?, ?, ?, 1)
	ON CONFLICT(user_id) DO UPDATE SET
		transactions = excluded.transactions,
		analysis = excluded.analysis,
		updated_at = excluded.updated_at,
		version = transaction_batches.version + 1
	`, userID, string(encodedTxs), string(encodedAnalysis), now)
	if err != nil {
		return fmt.Errorf("saving transaction batch: %w", err)
	}
	return nil
}

func decString(d decimal.Decimal) string {
	return d.String()
}
