package events

import (
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ev := New(7, at, "sess-1", EventTypeLevelUp, LevelUpData{NewLevel: 2})

	if ev.ID != 7 || ev.SessionID != "sess-1" || ev.Type != EventTypeLevelUp {
		t.Fatalf("unexpected event envelope: %+v", ev)
	}
	if !ev.At.Equal(at) {
		t.Fatalf("expected At %v got %v", at, ev.At)
	}
	data, ok := ev.Data.(LevelUpData)
	if !ok {
		t.Fatalf("expected LevelUpData payload got %T", ev.Data)
	}
	if data.NewLevel != 2 {
		t.Fatalf("expected NewLevel 2 got %d", data.NewLevel)
	}
}
