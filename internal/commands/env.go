package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ethos-ledger/ethos/internal/activity"
	"github.com/ethos-ledger/ethos/internal/classify"
	"github.com/ethos-ledger/ethos/internal/config"
	"github.com/ethos-ledger/ethos/internal/logger"
	"github.com/ethos-ledger/ethos/internal/service"
	"github.com/ethos-ledger/ethos/internal/store"
)

// env is the wiring shared by every command that touches a ledger.
type env struct {
	root   string
	cfg    *config.Config
	log    zerolog.Logger
	store  *store.Store
	cache  *store.VendorCache
	svc    *service.Service
	userID string
}

// openEnv loads <dir>/ethos.yaml and opens the ledger it points at.
func openEnv(ctx context.Context, dir string) (*env, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no %s in %s (run `ethos init` first): %w", config.FileName, root, err)
		}
		return nil, err
	}

	log := logger.WithFields(logger.NewWithLevel(cfg.Log.Level), map[string]any{"user": cfg.User.ID})

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, err
	}

	cache := st.VendorCache(cfg.CacheValidity())

	var classifier classify.Classifier
	if key := cfg.APIKey(); key != "" {
		gc, err := classify.NewGeminiClassifier(ctx, key, cfg.Classifier.Model, log)
		if err != nil {
			st.Close()
			return nil, err
		}
		classifier = gc
	} else {
		log.Debug().Str("env", cfg.Classifier.APIKeyEnv).Msg("no classifier api key; only cached classifications will resolve")
	}

	resolver := classify.NewResolver(cache, classifier, classify.ResolverConfig{
		Timeout:           cfg.ClassifierTimeout(),
		LookupConcurrency: cfg.Classifier.LookupConcurrency,
	}, log)

	return &env{
		root:   root,
		cfg:    cfg,
		log:    log,
		store:  st,
		cache:  cache,
		svc:    service.NewService(st, resolver, log),
		userID: cfg.User.ID,
	}, nil
}

// record appends to the activity log. Failures are logged, not returned,
// because the ledger change has already been saved.
func (e *env) record(action activity.Action, details, ref string, effectiveDebt decimal.Decimal) {
	err := activity.Append(e.root, activity.Entry{
		Timestamp:     time.Now(),
		User:          e.userID,
		Action:        action,
		Details:       details,
		Ref:           ref,
		EffectiveDebt: effectiveDebt,
	})
	if err != nil {
		e.log.Warn().Err(err).Str("action", string(action)).Msg("activity log write failed")
	}
}

// effectiveDebt recomputes the debt after a change, for the activity log.
func (e *env) effectiveDebt(ctx context.Context) decimal.Decimal {
	a, err := e.svc.ComputeImpact(ctx, e.userID)
	if err != nil {
		return decimal.Zero
	}
	return a.EffectiveDebt
}

func (e *env) Close() error {
	return e.store.Close()
}
