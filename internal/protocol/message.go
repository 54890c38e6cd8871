package protocol

import "github.com/rocketscienceinc/pictionary-server/internal/entity"

// Kind is the value of the "type" field of a frame.
type Kind string

const (
	KindState     Kind = "STATE"
	KindDraw      Kind = "DRAW"
	KindClear     Kind = "CLEAR"
	KindGuess     Kind = "GUESS"
	KindCountdown Kind = "COUNTDOWN"
	KindResult    Kind = "RESULT"
	KindHint      Kind = "HINT"
)

// Message is the closed set of frame payloads. Only types in this package implement it,
// so a type switch over the concrete types below covers every kind.
type Message interface {
	Kind() Kind
	message()
}

// State is the personalized game snapshot. Word is set only for the drawer.
type State struct {
	State    entity.Phase        `json:"state"`
	Players  []entity.PlayerView `json:"players"`
	IsDrawer bool                `json:"is_drawer"`
	Word     string              `json:"word,omitempty"`
}

// Draw carries one stroke.
type Draw struct {
	entity.Stroke
}

type Clear struct{}

// Guess is sent by guessers with only Guess set and echoed by the server with Player filled in.
type Guess struct {
	Player string `json:"player,omitempty"`
	Guess  string `json:"guess"`
}

type Countdown struct {
	Seconds int `json:"seconds"`
}

// Result ends a round: either Winner or Error is set.
type Result struct {
	Winner string `json:"winner,omitempty"`
	Error  string `json:"error,omitempty"`
	Word   string `json:"word,omitempty"`
}

// Hint tells a guesser privately that a wrong guess was close.
type Hint struct {
	Guess    string `json:"guess"`
	Distance int    `json:"distance"`
}

func (State) Kind() Kind     { return KindState }
func (Draw) Kind() Kind      { return KindDraw }
func (Clear) Kind() Kind     { return KindClear }
func (Guess) Kind() Kind     { return KindGuess }
func (Countdown) Kind() Kind { return KindCountdown }
func (Result) Kind() Kind    { return KindResult }
func (Hint) Kind() Kind      { return KindHint }

func (State) message()     {}
func (Draw) message()      {}
func (Clear) message()     {}
func (Guess) message()     {}
func (Countdown) message() {}
func (Result) message()    {}
func (Hint) message()      {}
