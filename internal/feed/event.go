package feed

import (
	"time"

	"github.com/rocketscienceinc/pictionary-server/internal/entity"
)

type EventType string

const (
	EventPlayerJoined     EventType = "player_joined"
	EventPlayerLeft       EventType = "player_left"
	EventCountdownStarted EventType = "countdown_started"
	EventRoundStarted     EventType = "round_started"
	EventRoundWon         EventType = "round_won"
	EventRoundAbandoned   EventType = "round_abandoned"
)

// Event is a lobby notification for outside observers. It never carries the secret word
// of a round that is still running.
type Event struct {
	Type    EventType `json:"type"`
	Player  string    `json:"player,omitempty"`
	Drawer  string    `json:"drawer,omitempty"`
	Word    string    `json:"word,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	Players int       `json:"players"`
	At      time.Time `json:"at"`

	Scores []entity.PlayerView `json:"scores,omitempty"`
}

// Publisher accepts events without blocking the caller.
type Publisher interface {
	Publish(event Event)
}

// Nop drops every event. It is used when redis is disabled.
type Nop struct{}

func (Nop) Publish(Event) {}
