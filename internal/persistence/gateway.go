// Package persistence saves and restores a GameState through a store.Store.
//
// Storage failures never reach the caller: a failed write is logged and the
// game carries on in memory, and a failed or damaged read falls back to
// defaults field by field.
package persistence

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/tatianab/cyber-clicker/internal/models"
	"github.com/tatianab/cyber-clicker/internal/store"
)

var (
	ErrStorageWriteFailed = errors.New("storage write failed")
	ErrStorageReadCorrupt = errors.New("storage read corrupt")
)

// Gateway binds one game instance to its storage key.
type Gateway struct {
	store  store.Store
	key    string
	logger *zap.Logger
}

func NewGateway(s store.Store, gameID string, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	key := store.StateKey(gameID)
	return &Gateway{
		store:  s,
		key:    key,
		logger: logger.With(zap.String("key", key)),
	}
}

// Key is the storage key this gateway reads and writes.
func (g *Gateway) Key() string {
	return g.key
}

// Save writes st and reports whether the write landed. Failures are logged
// and swallowed.
func (g *Gateway) Save(ctx context.Context, st models.GameState) bool {
	data, err := models.EncodeSnapshot(st)
	if err != nil {
		g.logger.Warn("Failed to encode snapshot", zap.Error(errors.Join(ErrStorageWriteFailed, err)))
		return false
	}
	if err := g.store.Set(ctx, g.key, string(data)); err != nil {
		g.logger.Warn("Failed to save game, continuing without persistence",
			zap.Error(errors.Join(ErrStorageWriteFailed, err)))
		return false
	}
	g.logger.Debug("Saved game", zap.Int("bytes", len(data)))
	return true
}

// Load returns the stored state, or defaults for whatever could not be read.
func (g *Gateway) Load(ctx context.Context) models.GameState {
	raw, found, err := g.store.Get(ctx, g.key)
	if err != nil {
		g.logger.Warn("Failed to read saved game, starting fresh", zap.Error(err))
		return models.DefaultState()
	}
	if !found {
		g.logger.Debug("No saved game, starting fresh")
		return models.DefaultState()
	}

	st, rep := models.DecodeSnapshot([]byte(raw))
	switch {
	case rep.Corrupt:
		g.logger.Warn("Saved game is corrupt, starting fresh",
			zap.Error(errors.Join(ErrStorageReadCorrupt, rep.Err)))
	case !rep.Clean():
		g.logger.Warn("Saved game was partially repaired",
			zap.Error(ErrStorageReadCorrupt),
			zap.Strings("defaulted", rep.Defaulted),
			zap.Strings("dropped_upgrades", rep.Dropped))
	default:
		g.logger.Debug("Loaded saved game", zap.Int("level", st.Level))
	}
	return st
}
