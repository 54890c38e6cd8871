package entity

import "golang.org/x/time/rate"

// Transport is the outbound side of a connected participant.
type Transport interface {
	Send(frame []byte) error
	Close() error
}

// Session is the server-side handle of one connected participant.
type Session struct {
	ID       string `json:"-"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsDrawer bool   `json:"is_drawer"`

	Transport    Transport     `json:"-"`
	GuessLimiter *rate.Limiter `json:"-"`
}

// PlayerView is the public, copyable part of a session that goes on the wire.
type PlayerView struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsDrawer bool   `json:"is_drawer"`
}

func NewSession(id, name string, transport Transport) *Session {
	return &Session{
		ID:        id,
		Name:      name,
		Transport: transport,
	}
}

// AddScore - increases the score; non-positive amounts are ignored so a score never goes down.
func (that *Session) AddScore(points int) {
	if points <= 0 {
		return
	}

	that.Score += points
}

func (that *Session) View() PlayerView {
	return PlayerView{
		Name:     that.Name,
		Score:    that.Score,
		IsDrawer: that.IsDrawer,
	}
}

// AllowGuess - reports whether the guess rate limiter lets one more guess through.
func (that *Session) AllowGuess() bool {
	if that.GuessLimiter == nil {
		return true
	}

	return that.GuessLimiter.Allow()
}
