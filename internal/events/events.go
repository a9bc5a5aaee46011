package events

import "time"

// EventType describes the kind of event emitted by a game session.
type EventType string

const (
	EventTypeLevelUp             EventType = "LevelUp"
	EventTypePurchaseSucceeded   EventType = "PurchaseSucceeded"
	EventTypePurchaseFailed      EventType = "PurchaseFailed"
	EventTypeAchievementUnlocked EventType = "AchievementUnlocked"
)

// LevelUpData is the payload for a level-up event.
type LevelUpData struct {
	NewLevel int
}

// PurchaseSucceededData is the payload for an accepted upgrade purchase.
type PurchaseSucceededData struct {
	UpgradeID  string
	Cost       float64
	OwnedCount int
}

// PurchaseFailedData is the payload for a rejected upgrade purchase.
type PurchaseFailedData struct {
	UpgradeID string
	Reason    string
}

// AchievementUnlockedData is the payload sent when an achievement predicate
// starts holding.
type AchievementUnlockedData struct {
	AchievementID string
	Name          string
}

// Event represents something the UI may want to show.
type Event struct {
	ID        uint64
	At        time.Time
	SessionID string
	Type      EventType
	Data      any
}

// New constructs a new Event with the provided fields.
func New(id uint64, at time.Time, sessionID string, eventType EventType, data any) Event {
	return Event{
		ID:        id,
		At:        at,
		SessionID: sessionID,
		Type:      eventType,
		Data:      data,
	}
}
