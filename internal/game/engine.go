package game

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/agnivade/levenshtein"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/pictionary-server/internal/apperror"
	"github.com/rocketscienceinc/pictionary-server/internal/dispatch"
	"github.com/rocketscienceinc/pictionary-server/internal/entity"
	"github.com/rocketscienceinc/pictionary-server/internal/feed"
	"github.com/rocketscienceinc/pictionary-server/internal/protocol"
	"github.com/rocketscienceinc/pictionary-server/internal/registry"
)

const reasonDrawerDisconnected = "Drawer disconnected"

// Scheduler runs task on the goroutine that drives the Engine after the delay.
// The returned func cancels the task if it has not run yet.
type Scheduler interface {
	After(delay time.Duration, task func()) (cancel func())
}

type WordSource interface {
	Random() string
}

// Snapshot is a point-in-time public view of the lobby. It never contains the word.
type Snapshot struct {
	State   entity.Phase        `json:"state"`
	Players []entity.PlayerView `json:"players"`
	Strokes int                 `json:"strokes"`
}

// Engine is the round state machine. It is not safe for concurrent use:
// one loop goroutine calls every method, including the tasks handed to the Scheduler.
type Engine struct {
	logger  *slog.Logger
	options Options

	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	round      *entity.Round

	scheduler Scheduler
	words     WordSource
	feed      feed.Publisher

	cancelPending func()
	pickIndex     func(n int) int
	now           func() time.Time
}

func New(logger *slog.Logger, scheduler Scheduler, words WordSource, publisher feed.Publisher, options Options) *Engine {
	return NewWithRegistry(logger, registry.New(), scheduler, words, publisher, options)
}

// NewWithRegistry - builds an engine around an existing registry.
func NewWithRegistry(
	logger *slog.Logger,
	reg *registry.Registry,
	scheduler Scheduler,
	words WordSource,
	publisher feed.Publisher,
	options Options,
) *Engine {
	if publisher == nil {
		publisher = feed.Nop{}
	}

	if options.MinPlayers < 1 {
		options.MinPlayers = 1
	}

	return &Engine{
		logger:  logger,
		options: options,

		registry:   reg,
		dispatcher: dispatch.New(logger, reg),
		round:      entity.NewRound(),

		scheduler: scheduler,
		words:     words,
		feed:      publisher,

		pickIndex: rand.Intn, //nolint:gosec // drawer choice does not need a secure source
		now:       time.Now,
	}
}

// Join - registers a new participant, sends it the state with the canvas replayed
// and tells everybody else about the new roster.
func (that *Engine) Join(transport entity.Transport) *entity.Session {
	log := that.logger.With("method", "Join")

	session := that.registry.Register(transport)
	if that.options.GuessRate > 0 {
		session.GuessLimiter = rate.NewLimiter(rate.Limit(that.options.GuessRate), that.options.GuessBurst)
	}

	log.Info("player joined", "player", session.Name, "players", that.registry.Count())

	that.dispatcher.SendState(session, that.round, true)
	that.dispatcher.BroadcastState(that.round, session)
	that.publish(feed.Event{Type: feed.EventPlayerJoined, Player: session.Name})

	that.settle()

	return session
}

// Leave - removes a participant after a disconnect or a transport error.
func (that *Engine) Leave(session *entity.Session) {
	that.remove(session)
	that.settle()
}

// Handle - applies one inbound message from a session. Actions the sender is not allowed
// to take are ignored.
func (that *Engine) Handle(session *entity.Session, msg protocol.Message) {
	log := that.logger.With("method", "Handle")

	if !that.registry.Has(session) {
		log.Debug("message from unknown session", "type", msg.Kind())
		return
	}

	switch msg := msg.(type) {
	case protocol.Draw:
		that.handleDraw(session, msg)
	case protocol.Clear:
		that.handleClear(session)
	case protocol.Guess:
		that.handleGuess(session, msg)
	case protocol.State, protocol.Countdown, protocol.Result, protocol.Hint:
		log.Debug("ignoring server-only message", "player", session.Name, "type", msg.Kind())
	}

	that.settle()
}

// Reassess - re-runs the minimum player check and starts a countdown when possible.
func (that *Engine) Reassess() {
	that.settle()
}

// Stop - cancels the pending timer.
func (that *Engine) Stop() {
	that.cancelTimer()
}

func (that *Engine) Snapshot() Snapshot {
	return Snapshot{
		State:   that.round.Phase,
		Players: that.registry.List(),
		Strokes: len(that.round.Strokes),
	}
}

func (that *Engine) Phase() entity.Phase {
	return that.round.Phase
}

func (that *Engine) PlayerCount() int {
	return that.registry.Count()
}

func (that *Engine) handleDraw(session *entity.Session, msg protocol.Draw) {
	if err := that.confirmDrawer(session); err != nil {
		that.logger.Debug("stroke rejected", "player", session.Name, "error", err)
		return
	}

	that.round.AddStroke(msg.Stroke)
	that.dispatcher.Broadcast(msg, session)
}

func (that *Engine) handleClear(session *entity.Session) {
	if err := that.confirmDrawer(session); err != nil {
		that.logger.Debug("clear rejected", "player", session.Name, "error", err)
		return
	}

	that.round.ClearStrokes()
	that.dispatcher.Broadcast(protocol.Clear{}, nil)
}

func (that *Engine) handleGuess(session *entity.Session, msg protocol.Guess) {
	log := that.logger.With("method", "handleGuess")

	if that.round.IsDrawer(session) {
		log.Debug("guess rejected", "player", session.Name, "error", apperror.ErrDrawerGuess)
		return
	}

	guess := entity.NormalizeGuess(msg.Guess)

	evalErr := that.round.ConfirmPlaying()
	correct := evalErr == nil && that.round.Matches(guess)

	// the limiter only throttles chat, a correct guess always counts
	if !correct && !session.AllowGuess() {
		log.Debug("guess rate limited", "player", session.Name)
		return
	}

	that.dispatcher.Broadcast(protocol.Guess{Player: session.Name, Guess: guess}, nil)

	if evalErr != nil {
		log.Debug("guess not evaluated", "player", session.Name, "error", evalErr)
		return
	}

	if correct {
		that.finishRound(session)
		return
	}

	if guess != "" {
		that.sendHint(session, guess)
	}
}

func (that *Engine) confirmDrawer(session *entity.Session) error {
	if err := that.round.ConfirmPlaying(); err != nil {
		return err
	}

	if !that.round.IsDrawer(session) {
		return apperror.ErrNotDrawer
	}

	return nil
}

func (that *Engine) sendHint(session *entity.Session, guess string) {
	if that.options.CloseGuessDistance <= 0 {
		return
	}

	distance := levenshtein.ComputeDistance(guess, entity.NormalizeGuess(that.round.Word))
	if distance > that.options.CloseGuessDistance {
		return
	}

	that.dispatcher.Send(session, protocol.Hint{Guess: guess, Distance: distance})
}

func (that *Engine) finishRound(winner *entity.Session) {
	log := that.logger.With("method", "finishRound")

	word := that.round.Word

	winner.AddScore(that.options.GuesserPoints)
	if drawer := that.round.Drawer; drawer != nil && that.registry.Has(drawer) {
		drawer.AddScore(that.options.DrawerPoints)
	}

	that.transition(entity.PhaseRoundEnd)

	log.Info("round won", "player", winner.Name, "word", word)

	that.dispatcher.Broadcast(protocol.Result{Winner: winner.Name, Word: word}, nil)
	that.dispatcher.BroadcastState(that.round, nil)
	that.publish(feed.Event{
		Type:   feed.EventRoundWon,
		Player: winner.Name,
		Word:   word,
		Scores: that.registry.List(),
	})

	that.schedule(that.options.RoundRestartDelay, that.startRound)
}

// remove - drops the session and reacts to a drawer leaving mid-round.
func (that *Engine) remove(session *entity.Session) {
	log := that.logger.With("method", "remove")

	wasDrawer := that.round.IsDrawer(session)

	if _, err := that.registry.Unregister(session); err != nil {
		log.Debug("session already removed", "error", err)
		return
	}

	log.Info("player left", "player", session.Name, "players", that.registry.Count())

	session.IsDrawer = false
	if wasDrawer {
		that.round.Drawer = nil
	}

	that.publish(feed.Event{Type: feed.EventPlayerLeft, Player: session.Name})

	if wasDrawer && that.round.IsPlaying() {
		word := that.round.Word
		that.enterWaiting()

		log.Info("round abandoned", "player", session.Name, "word", word)

		that.dispatcher.Broadcast(protocol.Result{Error: reasonDrawerDisconnected, Word: word}, nil)
		that.publish(feed.Event{
			Type:   feed.EventRoundAbandoned,
			Drawer: session.Name,
			Word:   word,
			Reason: reasonDrawerDisconnected,
		})
	}

	that.dispatcher.BroadcastState(that.round, nil)
}

// settle - removes sessions whose delivery failed and advances the round
// until no more failures are pending.
func (that *Engine) settle() {
	for {
		for _, session := range that.dispatcher.TakeFailed() {
			that.remove(session)
		}

		if that.dispatcher.HasFailed() {
			continue
		}

		that.progress()

		if !that.dispatcher.HasFailed() {
			return
		}
	}
}

func (that *Engine) progress() {
	enough := that.registry.Count() >= that.options.MinPlayers

	switch {
	case !enough && !that.round.IsWaiting():
		that.logger.Info("not enough players, back to waiting", "phase", that.round.Phase)
		that.enterWaiting()
		that.dispatcher.BroadcastState(that.round, nil)
	case enough && that.round.IsWaiting():
		that.startCountdown()
	}
}

func (that *Engine) startCountdown() {
	that.transition(entity.PhaseCountdown)
	that.round.Countdown = that.options.CountdownSeconds

	that.logger.Info("countdown started", "seconds", that.round.Countdown)

	that.dispatcher.BroadcastState(that.round, nil)
	that.publish(feed.Event{Type: feed.EventCountdownStarted})

	that.tick()
}

func (that *Engine) tick() {
	if !that.round.IsCountdown() {
		return
	}

	if that.registry.Count() < that.options.MinPlayers {
		that.enterWaiting()
		that.dispatcher.BroadcastState(that.round, nil)

		return
	}

	if that.round.Countdown <= 0 {
		that.startRound()
		return
	}

	that.dispatcher.Broadcast(protocol.Countdown{Seconds: that.round.Countdown}, nil)
	that.round.Countdown--

	that.schedule(that.options.TickInterval, that.tick)
}

// startRound - picks a drawer and a word. Falls back to waiting when players are missing.
func (that *Engine) startRound() {
	log := that.logger.With("method", "startRound")

	sessions := that.registry.Sessions()
	if len(sessions) < that.options.MinPlayers {
		that.enterWaiting()
		that.dispatcher.BroadcastState(that.round, nil)

		return
	}

	that.cancelTimer()

	drawer := sessions[that.pickIndex(len(sessions))]

	that.round.ClearStrokes()
	that.round.Drawer = drawer
	that.round.Word = that.words.Random()
	that.round.Countdown = 0

	for _, session := range sessions {
		session.IsDrawer = session == drawer
	}

	that.transition(entity.PhasePlaying)

	log.Info("round started", "drawer", drawer.Name, "players", len(sessions))

	that.dispatcher.Broadcast(protocol.Clear{}, nil)
	that.dispatcher.BroadcastState(that.round, nil)
	that.publish(feed.Event{Type: feed.EventRoundStarted, Drawer: drawer.Name})
}

func (that *Engine) enterWaiting() {
	that.cancelTimer()
	that.round.Reset()

	for _, session := range that.registry.Sessions() {
		session.IsDrawer = false
	}
}

func (that *Engine) transition(phase entity.Phase) {
	if err := that.round.Transition(phase); err != nil {
		that.logger.Error("failed to change phase", "phase", phase, "error", err)
	}
}

// schedule - runs task after delay unless the round changed phase in between.
func (that *Engine) schedule(delay time.Duration, task func()) {
	that.cancelTimer()

	epoch := that.round.Epoch
	that.cancelPending = that.scheduler.After(delay, func() {
		if that.round.Epoch != epoch {
			that.logger.Debug("skipping stale timer", "phase", that.round.Phase)
			return
		}

		task()
		that.settle()
	})
}

func (that *Engine) cancelTimer() {
	if that.cancelPending != nil {
		that.cancelPending()
		that.cancelPending = nil
	}
}

func (that *Engine) publish(event feed.Event) {
	event.Players = that.registry.Count()
	event.At = that.now()

	that.feed.Publish(event)
}
