package game

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/pictionary-server/internal/entity"
	"github.com/rocketscienceinc/pictionary-server/internal/feed"
	"github.com/rocketscienceinc/pictionary-server/internal/protocol"
)

var errBrokenPipe = errors.New("broken pipe")

type wordsMock struct {
	mock.Mock
}

func (that *wordsMock) Random() string {
	return that.Called().String(0)
}

type publisherMock struct {
	mock.Mock
}

func (that *publisherMock) Publish(event feed.Event) {
	that.Called(event)
}

func (that *publisherMock) events() []feed.Event {
	events := make([]feed.Event, 0, len(that.Calls))
	for _, call := range that.Calls {
		events = append(events, call.Arguments.Get(0).(feed.Event))
	}

	return events
}

func (that *publisherMock) types() []feed.EventType {
	var types []feed.EventType
	for _, event := range that.events() {
		types = append(types, event.Type)
	}

	return types
}

type scheduledTask struct {
	delay     time.Duration
	run       func()
	cancelled bool
	done      bool
}

// manualScheduler runs tasks only when the test fires them.
type manualScheduler struct {
	tasks []*scheduledTask
}

func (that *manualScheduler) After(delay time.Duration, task func()) func() {
	scheduled := &scheduledTask{delay: delay, run: task}
	that.tasks = append(that.tasks, scheduled)

	return func() { scheduled.cancelled = true }
}

func (that *manualScheduler) pending() []*scheduledTask {
	var pending []*scheduledTask
	for _, task := range that.tasks {
		if !task.cancelled && !task.done {
			pending = append(pending, task)
		}
	}

	return pending
}

// fire runs the oldest pending task and returns its delay.
func (that *manualScheduler) fire(t *testing.T) time.Duration {
	t.Helper()

	pending := that.pending()
	require.NotEmpty(t, pending, "no pending task")

	task := pending[0]
	task.done = true
	task.run()

	return task.delay
}

// fireAll runs every task ever scheduled, cancelled ones included, to prove stale timers do nothing.
func (that *manualScheduler) fireAll() {
	for _, task := range that.tasks {
		task.done = true
		task.run()
	}
}

type fakeTransport struct {
	frames [][]byte
	fail   bool
	closed bool
}

func (that *fakeTransport) Send(frame []byte) error {
	if that.fail || that.closed {
		return errBrokenPipe
	}

	that.frames = append(that.frames, frame)
	return nil
}

func (that *fakeTransport) Close() error {
	that.closed = true
	return nil
}

func (that *fakeTransport) messages(t *testing.T) []protocol.Message {
	t.Helper()

	var msgs []protocol.Message
	for _, frame := range that.frames {
		decoded, rest, errs := protocol.Decode(frame)
		require.Empty(t, errs)
		require.Empty(t, rest)
		msgs = append(msgs, decoded...)
	}

	return msgs
}

// take returns the messages received since the last call.
func (that *fakeTransport) take(t *testing.T) []protocol.Message {
	t.Helper()

	msgs := that.messages(t)
	that.frames = nil

	return msgs
}

func ofKind[T protocol.Message](msgs []protocol.Message) []T {
	var found []T
	for _, msg := range msgs {
		if typed, ok := msg.(T); ok {
			found = append(found, typed)
		}
	}

	return found
}

type harness struct {
	engine    *Engine
	scheduler *manualScheduler
	words     *wordsMock
	feed      *publisherMock
}

func newHarness(t *testing.T, options Options) *harness {
	t.Helper()

	words := &wordsMock{}
	words.On("Random").Return("apple").Maybe()

	publisher := &publisherMock{}
	publisher.On("Publish", mock.Anything).Maybe()

	scheduler := &manualScheduler{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine := New(logger, scheduler, words, publisher, options)
	engine.pickIndex = func(int) int { return 0 }
	engine.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	return &harness{
		engine:    engine,
		scheduler: scheduler,
		words:     words,
		feed:      publisher,
	}
}

// quickOptions skips the countdown so a round starts as soon as enough players joined.
func quickOptions() Options {
	options := DefaultOptions()
	options.CountdownSeconds = 0
	options.GuessRate = 0

	return options
}

type player struct {
	*entity.Session
	transport *fakeTransport
}

func (that *harness) join() player {
	transport := &fakeTransport{}
	session := that.engine.Join(transport)

	return player{Session: session, transport: transport}
}

func (that *harness) joinAll(n int) []player {
	players := make([]player, 0, n)
	for range n {
		players = append(players, that.join())
	}

	return players
}

func clearAll(t *testing.T, players ...player) {
	t.Helper()

	for _, p := range players {
		p.transport.take(t)
	}
}
