package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/cyber-clicker/internal/engine"
	"github.com/tatianab/cyber-clicker/internal/events"
	"github.com/tatianab/cyber-clicker/internal/game"
	"github.com/tatianab/cyber-clicker/internal/models"
	"github.com/tatianab/cyber-clicker/internal/persistence"
	"github.com/tatianab/cyber-clicker/internal/store"
	"github.com/tatianab/cyber-clicker/internal/tutor"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	cat, err := models.DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	gw := persistence.NewGateway(store.NewMemoryStore(), "tui", nil)
	sess := game.NewSession(engine.New(engine.DefaultRules(), cat), gw, game.Options{})
	t.Cleanup(func() { sess.Close(context.Background()) })

	m := NewModel(sess, tutor.Static{})
	if msg := m.load()(); msg != (loadedMsg{}) {
		t.Fatalf("Expected loadedMsg, got %#v", msg)
	}
	next, _ := m.Update(loadedMsg{})
	next, _ = next.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(model)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoadingView(t *testing.T) {
	cat, _ := models.DefaultCatalog()
	gw := persistence.NewGateway(store.NewMemoryStore(), "tui", nil)
	sess := game.NewSession(engine.New(engine.DefaultRules(), cat), gw, game.Options{})
	defer sess.Close(context.Background())

	m := NewModel(sess, tutor.Static{})
	if !strings.Contains(m.View(), "Loading") {
		t.Errorf("Expected loading view, got %q", m.View())
	}
	next, _ := m.Update(key(" "))
	if next.(model).state != stateLoading {
		t.Errorf("Expected keys to be ignored while loading")
	}
}

func TestSpaceClicks(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 3; i++ {
		next, _ := m.Update(key(" "))
		m = next.(model)
	}
	st, _ := m.session.State()
	if st.Currency != 3 {
		t.Errorf("Expected 3 packets after 3 clicks, got %v", st.Currency)
	}
	if !strings.Contains(m.View(), "Packets:     3") {
		t.Errorf("Expected packets in view:\n%s", m.View())
	}
}

func TestDigitBuysUpgrade(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 10; i++ {
		next, _ := m.Update(key(" "))
		m = next.(model)
	}
	// Firewall is second in the catalog.
	next, _ := m.Update(key("2"))
	m = next.(model)

	st, _ := m.session.State()
	if st.Owned("firewall") != 1 || st.AutoRate != 1 {
		t.Errorf("Expected one firewall, got %+v", st)
	}
}

func TestEventsAreLogged(t *testing.T) {
	m := newTestModel(t)
	next, cmd := m.Update(eventMsg{events.New(1, time.Time{}, m.session.ID(), events.EventTypeLevelUp, events.LevelUpData{NewLevel: 3})})
	m = next.(model)
	if cmd == nil {
		t.Errorf("Expected a lesson command after level up")
	}
	if !strings.Contains(m.gameLog, "level 3") {
		t.Errorf("Expected level-up in log, got %q", m.gameLog)
	}

	next, _ = m.Update(lessonMsg{"Use a passphrase."})
	m = next.(model)
	if !strings.Contains(m.gameLog, "Use a passphrase.") {
		t.Errorf("Expected lesson in log, got %q", m.gameLog)
	}
}

func TestQuitKeys(t *testing.T) {
	m := newTestModel(t)
	for _, k := range []tea.KeyMsg{key("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(k)
		if cmd == nil {
			t.Fatalf("Expected quit command for %v", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("Expected QuitMsg for %v", k)
		}
	}
	if _, ok := <-m.events; ok {
		t.Errorf("Expected event subscription closed on quit")
	}
	if msg := m.listen()(); msg != (eventsClosedMsg{}) {
		t.Errorf("Expected eventsClosedMsg after quit, got %#v", msg)
	}
}
