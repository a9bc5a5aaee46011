package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tatianab/cyber-clicker/internal/models"
	"github.com/tatianab/cyber-clicker/internal/store"
)

type failingStore struct {
	store.Store
	getErr error
	setErr error
}

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Store.Set(ctx, key, value)
}

func newObserved() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func warnings(logs *observer.ObservedLogs) []observer.LoggedEntry {
	return logs.FilterLevelExact(zapcore.WarnLevel).All()
}

func TestLoadEmptyStoreReturnsDefaults(t *testing.T) {
	logger, logs := newObserved()
	gw := NewGateway(store.NewMemoryStore(), "clicker", logger)

	got := gw.Load(context.Background())
	if diff := cmp.Diff(models.DefaultState(), got); diff != "" {
		t.Errorf("Expected defaults (-want +got):\n%s", diff)
	}
	if n := len(warnings(logs)); n != 0 {
		t.Errorf("Expected no warnings for an empty store, got %d", n)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	gw := NewGateway(store.NewMemoryStore(), "clicker", nil)

	st := models.GameState{
		Currency:   42.75,
		ClickPower: 3,
		AutoRate:   1.5,
		Level:      3,
		Experience: 17.2,
		Upgrades:   map[string]models.UpgradeState{"firewall": {OwnedCount: 2}},
	}
	if !gw.Save(ctx, st) {
		t.Fatalf("Expected save to succeed")
	}
	if diff := cmp.Diff(st, gw.Load(ctx)); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGatewaysDoNotShareKeys(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	clicker := NewGateway(s, "clicker", nil)
	fortress := NewGateway(s, "fortress", nil)

	st := models.DefaultState()
	st.Currency = 500
	clicker.Save(ctx, st)

	if got := fortress.Load(ctx); got.Currency != 0 {
		t.Errorf("Expected fortress to start fresh, got currency %v", got.Currency)
	}
	if clicker.Key() == fortress.Key() {
		t.Errorf("Expected distinct keys, both were %s", clicker.Key())
	}
}

func TestSaveFailureIsSwallowed(t *testing.T) {
	logger, logs := newObserved()
	fs := &failingStore{Store: store.NewMemoryStore(), setErr: errors.New("quota exceeded")}
	gw := NewGateway(fs, "clicker", logger)

	if gw.Save(context.Background(), models.DefaultState()) {
		t.Errorf("Expected save to report failure")
	}
	w := warnings(logs)
	if len(w) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(w))
	}
	if w[0].ContextMap()["error"] == nil {
		t.Errorf("Expected error field on warning, got %v", w[0].ContextMap())
	}
}

func TestLoadReadFailureReturnsDefaults(t *testing.T) {
	logger, logs := newObserved()
	fs := &failingStore{Store: store.NewMemoryStore(), getErr: errors.New("storage disabled")}
	gw := NewGateway(fs, "clicker", logger)

	if diff := cmp.Diff(models.DefaultState(), gw.Load(context.Background())); diff != "" {
		t.Errorf("Expected defaults (-want +got):\n%s", diff)
	}
	if len(warnings(logs)) != 1 {
		t.Errorf("Expected a warning for a failed read")
	}
}

func TestLoadCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	logger, logs := newObserved()
	s := store.NewMemoryStore()
	gw := NewGateway(s, "clicker", logger)

	if err := s.Set(ctx, gw.Key(), "}}} definitely not a snapshot"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(models.DefaultState(), gw.Load(ctx)); diff != "" {
		t.Errorf("Expected defaults (-want +got):\n%s", diff)
	}
	w := warnings(logs)
	if len(w) != 1 || w[0].Message != "Saved game is corrupt, starting fresh" {
		t.Errorf("Expected corrupt warning, got %v", w)
	}
}

func TestLoadPartialSnapshot(t *testing.T) {
	ctx := context.Background()
	logger, logs := newObserved()
	s := store.NewMemoryStore()
	gw := NewGateway(s, "clicker", logger)

	snapshot := `{"currency": 300, "clickPower": 4, "level": 2, "experience": 30, "upgrades": {"firewall": {"ownedCount": 3}}}`
	if err := s.Set(ctx, gw.Key(), snapshot); err != nil {
		t.Fatal(err)
	}
	want := models.GameState{
		Currency:   300,
		ClickPower: 4,
		AutoRate:   0,
		Level:      2,
		Experience: 30,
		Upgrades:   map[string]models.UpgradeState{"firewall": {OwnedCount: 3}},
	}
	if diff := cmp.Diff(want, gw.Load(ctx)); diff != "" {
		t.Errorf("Unexpected state (-want +got):\n%s", diff)
	}
	w := warnings(logs)
	if len(w) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(w))
	}
	if diff := cmp.Diff([]interface{}{"autoRate"}, w[0].ContextMap()["defaulted"]); diff != "" {
		t.Errorf("Unexpected defaulted field list (-want +got):\n%s", diff)
	}
}
