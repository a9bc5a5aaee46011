package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tatianab/cyber-clicker/internal/engine"
	"github.com/tatianab/cyber-clicker/internal/game"
	"github.com/tatianab/cyber-clicker/internal/models"
	"github.com/tatianab/cyber-clicker/internal/persistence"
	"github.com/tatianab/cyber-clicker/internal/store"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestClickStatusReset(t *testing.T) {
	dir := t.TempDir()
	base := []string{"--save-dir", dir, "--game", "cli-test", "--store", "file"}

	out := run(t, append(base, "click", "12")...)
	if !strings.Contains(out, "Packets: 12, level 1.") {
		t.Errorf("Unexpected click output: %q", out)
	}

	out = run(t, append(base, "status")...)
	if !strings.Contains(out, "Packets:     12") || !strings.Contains(out, "First Packet") {
		t.Errorf("Expected saved progress in status, got:\n%s", out)
	}

	run(t, append(base, "reset")...)
	out = run(t, append(base, "status")...)
	if !strings.Contains(out, "Packets:     0") || !strings.Contains(out, "(none yet)") {
		t.Errorf("Expected fresh game after reset, got:\n%s", out)
	}
}

func TestUpgradesListsCatalog(t *testing.T) {
	out := run(t, "--store", "memory", "--save-dir", t.TempDir(), "upgrades")
	if !strings.Contains(out, "1. Strong Password") {
		t.Errorf("Expected catalog listing, got:\n%s", out)
	}
}

func TestClickRejectsBadCount(t *testing.T) {
	rootCmd.SetArgs([]string{"--store", "memory", "--save-dir", t.TempDir(), "click", "zero"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for non-numeric click count")
	}
}

func newTestSession(t *testing.T) *game.Session {
	t.Helper()
	logger = zap.NewNop()
	cat, err := models.DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	gw := persistence.NewGateway(store.NewMemoryStore(), "run", nil)
	sess := game.NewSession(engine.New(engine.DefaultRules(), cat), gw, game.Options{})
	if err := sess.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return sess
}

func TestRunGameClosesSessionWhenUIQuits(t *testing.T) {
	sess := newTestSession(t)
	err := runGame(context.Background(), sess, func(ctx context.Context) error {
		return sess.ManualAction(ctx)
	})
	if err != nil {
		t.Fatal(err)
	}
	if sess.Phase() != game.PhaseClosed {
		t.Errorf("Expected session closed after the UI returned, got %v", sess.Phase())
	}
}

func TestRunGameClosesSessionOnCancel(t *testing.T) {
	sess := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- runGame(ctx, sess, func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return nil
		})
	}()

	<-started
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runGame did not return after cancel")
	}
	if sess.Phase() != game.PhaseClosed {
		t.Errorf("Expected session closed after cancel, got %v", sess.Phase())
	}
}

func TestRunGameReturnsUIError(t *testing.T) {
	sess := newTestSession(t)
	boom := errors.New("terminal gone")
	err := runGame(context.Background(), sess, func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("Expected UI error, got %v", err)
	}
	if sess.Phase() != game.PhaseClosed {
		t.Errorf("Expected session closed after a UI error, got %v", sess.Phase())
	}
}
