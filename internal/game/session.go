package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tatianab/cyber-clicker/internal/clock"
	"github.com/tatianab/cyber-clicker/internal/engine"
	"github.com/tatianab/cyber-clicker/internal/events"
	"github.com/tatianab/cyber-clicker/internal/models"
	"github.com/tatianab/cyber-clicker/internal/persistence"
)

// Phase is the load lifecycle of a Session.
type Phase int

const (
	PhaseUnloaded Phase = iota
	PhaseLoading
	PhaseReady
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseUnloaded:
		return "unloaded"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseClosed:
		return "closed"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

var (
	// ErrNotReady is returned for mutations attempted before Load finishes.
	ErrNotReady      = errors.New("game not ready")
	ErrAlreadyLoaded = errors.New("game already loaded")
	ErrClosed        = errors.New("game closed")
)

const (
	DefaultSaveInterval = time.Second
	DefaultTickInterval = time.Second
	DefaultEventBuffer  = 64
)

// Options tunes a Session. A SaveInterval of zero or less saves on every
// mutation; other zero values take the defaults.
type Options struct {
	SaveInterval time.Duration
	TickInterval time.Duration
	EventBuffer  int
	Clock        clock.Clock
	Logger       *zap.Logger
}

// Session owns one live GameState. All mutations are serialized by mu and
// each accepted one goes through the same pipeline: apply, level up, diff
// achievements, emit events, schedule a save.
type Session struct {
	id           string
	eng          *engine.Engine
	gw           *persistence.Gateway
	clk          clock.Clock
	logger       *zap.Logger
	saveInterval time.Duration
	tickInterval time.Duration
	eventBuffer  int

	mu          sync.Mutex
	phase       Phase
	st          models.GameState
	tickCarry   time.Duration
	dirty       bool
	lastSaveOK  bool
	flushTimer  clock.Timer
	nextEventID uint64
	subs        map[int]chan events.Event
	nextSubID   int

	tickStop chan struct{}
	tickWG   sync.WaitGroup
}

func NewSession(eng *engine.Engine, gw *persistence.Gateway, opts Options) *Session {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		id:           id,
		eng:          eng,
		gw:           gw,
		clk:          opts.Clock,
		logger:       opts.Logger.With(zap.String("session", id)),
		saveInterval: opts.SaveInterval,
		tickInterval: opts.TickInterval,
		eventBuffer:  opts.EventBuffer,
		st:           models.DefaultState(),
		subs:         make(map[int]chan events.Event),
		lastSaveOK:   true,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Engine() *engine.Engine {
	return s.eng
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Load restores the saved state and opens the session for mutations. The
// store is read without holding the lock, so concurrent callers see
// ErrNotReady until it completes.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	switch s.phase {
	case PhaseUnloaded:
	case PhaseClosed:
		s.mu.Unlock()
		return ErrClosed
	default:
		s.mu.Unlock()
		return ErrAlreadyLoaded
	}
	s.phase = PhaseLoading
	s.mu.Unlock()

	st := s.gw.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed {
		return ErrClosed
	}
	s.st = st
	s.phase = PhaseReady
	s.logger.Info("Game loaded",
		zap.Int("level", st.Level),
		zap.Float64("currency", st.Currency),
		zap.Float64("auto_rate", st.AutoRate))
	s.ensureTickerLocked()
	return nil
}

// State returns a deep copy of the live state.
func (s *Session) State() (models.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady && s.phase != PhaseClosed {
		return models.GameState{}, ErrNotReady
	}
	return s.st.Clone(), nil
}

// Achievements returns what the current state unlocks.
func (s *Session) Achievements() ([]engine.Achievement, error) {
	st, err := s.State()
	if err != nil {
		return nil, err
	}
	return engine.DeriveAchievements(st), nil
}

// Cost is the current price of an upgrade.
func (s *Session) Cost(upgradeID string) (float64, error) {
	st, err := s.State()
	if err != nil {
		return 0, err
	}
	return s.eng.Cost(st, upgradeID)
}

// LastSaveOK reports whether the most recent save attempt landed.
func (s *Session) LastSaveOK() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaveOK
}

// ManualAction credits one click.
func (s *Session) ManualAction(ctx context.Context) error {
	return s.mutate(ctx, func(st models.GameState) (models.GameState, error) {
		return s.eng.ApplyManualAction(st), nil
	})
}

// OnTick credits passive income. Elapsed time is applied in whole seconds;
// the remainder carries into the next call.
func (s *Session) OnTick(ctx context.Context, elapsed time.Duration) error {
	return s.mutate(ctx, func(st models.GameState) (models.GameState, error) {
		s.tickCarry += elapsed
		secs := int(s.tickCarry / time.Second)
		if secs <= 0 || st.AutoRate <= 0 {
			if st.AutoRate <= 0 {
				s.tickCarry = 0
			}
			return st, errUnchanged
		}
		s.tickCarry -= time.Duration(secs) * time.Second
		return s.eng.ApplyTick(st, secs), nil
	})
}

// Purchase buys one unit of upgradeID. A rejected purchase leaves the state
// untouched and returns an *engine.PurchaseError.
func (s *Session) Purchase(ctx context.Context, upgradeID string) error {
	return s.mutate(ctx, func(st models.GameState) (models.GameState, error) {
		next, cost, err := s.eng.PurchaseUpgrade(st, upgradeID)
		if err != nil {
			if errors.Is(err, engine.ErrUnknownUpgrade) {
				s.logger.Error("Purchase of unknown upgrade", zap.String("upgrade", upgradeID))
			} else {
				s.logger.Debug("Purchase rejected", zap.String("upgrade", upgradeID), zap.Error(err))
			}
			s.emitLocked(events.EventTypePurchaseFailed, events.PurchaseFailedData{
				UpgradeID: upgradeID,
				Reason:    err.Error(),
			})
			return st, err
		}
		owned := next.Owned(upgradeID)
		s.logger.Info("Upgrade purchased",
			zap.String("upgrade", upgradeID),
			zap.Float64("cost", cost),
			zap.Int("owned", owned))
		s.emitLocked(events.EventTypePurchaseSucceeded, events.PurchaseSucceededData{
			UpgradeID:  upgradeID,
			Cost:       cost,
			OwnedCount: owned,
		})
		return next, nil
	})
}

// errUnchanged lets an op accept a call without producing a new state.
var errUnchanged = errors.New("unchanged")

func (s *Session) mutate(ctx context.Context, op func(models.GameState) (models.GameState, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case PhaseReady:
	case PhaseClosed:
		return ErrClosed
	default:
		return ErrNotReady
	}

	before := s.st
	next, err := op(before.Clone())
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}

	next, levels := s.eng.CheckLevelUp(next)
	s.st = next

	if len(levels) > 0 {
		s.logger.Info("Level up", zap.Int("level", next.Level), zap.Int("gained", len(levels)))
	}
	for _, lvl := range levels {
		s.emitLocked(events.EventTypeLevelUp, events.LevelUpData{NewLevel: lvl})
	}
	for _, a := range engine.NewlyUnlocked(before, next) {
		s.emitLocked(events.EventTypeAchievementUnlocked, events.AchievementUnlockedData{
			AchievementID: a.ID,
			Name:          a.Name,
		})
	}

	s.markDirtyLocked(ctx)
	s.ensureTickerLocked()
	return nil
}
