package dispatch

import (
	"log/slog"

	"github.com/rocketscienceinc/pictionary-server/internal/entity"
	"github.com/rocketscienceinc/pictionary-server/internal/protocol"
)

type roster interface {
	Sessions() []*entity.Session
	List() []entity.PlayerView
}

// Dispatcher delivers encoded frames to sessions. A session whose transport fails is
// remembered and skipped until the caller takes it with TakeFailed and removes it.
type Dispatcher struct {
	logger *slog.Logger
	roster roster

	failed   []*entity.Session
	isFailed map[*entity.Session]struct{}
}

func New(logger *slog.Logger, roster roster) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		roster:   roster,
		isFailed: make(map[*entity.Session]struct{}),
	}
}

// Send - delivers one message to one session.
func (that *Dispatcher) Send(session *entity.Session, msg protocol.Message) {
	frame, ok := that.encode(msg)
	if !ok {
		return
	}

	that.deliver(session, frame)
}

// Broadcast - encodes the message once and delivers it to every session except exclude.
func (that *Dispatcher) Broadcast(msg protocol.Message, exclude *entity.Session) {
	frame, ok := that.encode(msg)
	if !ok {
		return
	}

	for _, session := range that.roster.Sessions() {
		if session == exclude {
			continue
		}

		that.deliver(session, frame)
	}
}

// SendState - sends the personalized snapshot to one session. With replay set the strokes
// kept for the current round follow as DRAW frames so a late joiner sees the canvas.
func (that *Dispatcher) SendState(session *entity.Session, round *entity.Round, replay bool) {
	that.sendState(session, round, that.roster.List())

	if !replay {
		return
	}

	for _, stroke := range round.StrokeHistory() {
		that.Send(session, protocol.Draw{Stroke: stroke})
	}
}

// BroadcastState - sends every session except exclude its own snapshot of the round.
func (that *Dispatcher) BroadcastState(round *entity.Round, exclude *entity.Session) {
	players := that.roster.List()

	for _, session := range that.roster.Sessions() {
		if session == exclude {
			continue
		}

		that.sendState(session, round, players)
	}
}

// TakeFailed - returns the sessions whose delivery failed since the last call and forgets them.
func (that *Dispatcher) TakeFailed() []*entity.Session {
	failed := that.failed

	that.failed = nil
	that.isFailed = make(map[*entity.Session]struct{})

	return failed
}

func (that *Dispatcher) HasFailed() bool {
	return len(that.failed) > 0
}

func (that *Dispatcher) sendState(session *entity.Session, round *entity.Round, players []entity.PlayerView) {
	state := protocol.State{
		State:    round.Phase,
		Players:  players,
		IsDrawer: round.IsDrawer(session),
	}

	if state.IsDrawer {
		state.Word = round.Word
	}

	that.Send(session, state)
}

func (that *Dispatcher) encode(msg protocol.Message) ([]byte, bool) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		that.logger.Error("failed to encode message", "type", msg.Kind(), "error", err)
		return nil, false
	}

	return frame, true
}

func (that *Dispatcher) deliver(session *entity.Session, frame []byte) {
	if _, failed := that.isFailed[session]; failed {
		return
	}

	if err := session.Transport.Send(frame); err != nil {
		that.logger.Warn("failed to deliver frame", "player", session.Name, "error", err)

		that.failed = append(that.failed, session)
		that.isFailed[session] = struct{}{}
	}
}
