package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/rocketscienceinc/pictionary-server/internal/apperror"
	"github.com/rocketscienceinc/pictionary-server/internal/entity"
	"github.com/rocketscienceinc/pictionary-server/internal/game"
	"github.com/rocketscienceinc/pictionary-server/internal/protocol"
)

var ErrNotListening = errors.New("server is not listening")

type gameEngine interface {
	Join(transport entity.Transport) *entity.Session
	Leave(session *entity.Session)
	Handle(session *entity.Session, msg protocol.Message)
	Reassess()
	Snapshot() game.Snapshot
	Stop()
}

type Options struct {
	PollInterval time.Duration
	WriteTimeout time.Duration
	SendQueue    int
	MaxFrameSize int
	ReadBuffer   int
}

func DefaultOptions() Options {
	return Options{
		PollInterval: 100 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		SendQueue:    256,
		MaxFrameSize: protocol.DefaultMaxFrameSize,
		ReadBuffer:   4096,
	}
}

// Server accepts client connections and runs the single loop that owns the game.
// Connection readers, timers and queries reach the game only by posting tasks into that loop.
type Server struct {
	logger  *slog.Logger
	options Options

	listener net.Listener
	engine   gameEngine

	tasks   chan func()
	stopped chan struct{}
	wg      sync.WaitGroup

	// owned by the loop
	sessions map[*peer]*entity.Session
}

func New(logger *slog.Logger, options Options) *Server {
	defaults := DefaultOptions()

	if options.PollInterval <= 0 {
		options.PollInterval = defaults.PollInterval
	}

	if options.WriteTimeout <= 0 {
		options.WriteTimeout = defaults.WriteTimeout
	}

	if options.SendQueue <= 0 {
		options.SendQueue = defaults.SendQueue
	}

	if options.MaxFrameSize <= 0 {
		options.MaxFrameSize = defaults.MaxFrameSize
	}

	if options.ReadBuffer <= 0 {
		options.ReadBuffer = defaults.ReadBuffer
	}

	return &Server{
		logger:  logger,
		options: options,

		tasks:   make(chan func()),
		stopped: make(chan struct{}),

		sessions: make(map[*peer]*entity.Session),
	}
}

// Listen - binds the listening socket.
func (that *Server) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	that.listener = listener

	return nil
}

func (that *Server) Addr() net.Addr {
	if that.listener == nil {
		return nil
	}

	return that.listener.Addr()
}

// Start - binds addr and serves until ctx is done.
func (that *Server) Start(ctx context.Context, addr string, engine gameEngine) error {
	if err := that.Listen(addr); err != nil {
		return err
	}

	return that.Serve(ctx, engine)
}

// Serve - runs the game loop until ctx is done or accepting fails.
func (that *Server) Serve(ctx context.Context, engine gameEngine) error {
	log := that.logger.With("method", "Serve")

	if that.listener == nil {
		return ErrNotListening
	}

	that.engine = engine

	acceptErr := make(chan error, 1)

	that.wg.Add(1)
	go func() {
		defer that.wg.Done()
		acceptErr <- that.acceptLoop()
	}()

	log.Info("game server is listening", "addr", that.listener.Addr().String())

	ticker := time.NewTicker(that.options.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			that.shutdown()
			return nil
		case err := <-acceptErr:
			that.shutdown()
			return fmt.Errorf("failed to accept connection: %w", err)
		case task := <-that.tasks:
			task()
		case <-ticker.C:
			that.engine.Reassess()
		}
	}
}

// After - runs task inside the game loop once delay has passed.
func (that *Server) After(delay time.Duration, task func()) func() {
	timer := time.AfterFunc(delay, func() {
		that.post(context.Background(), task)
	})

	return func() {
		timer.Stop()
	}
}

// Snapshot - asks the game loop for a point-in-time view of the lobby.
func (that *Server) Snapshot(ctx context.Context) (game.Snapshot, error) {
	reply := make(chan game.Snapshot, 1)

	if !that.post(ctx, func() { reply <- that.engine.Snapshot() }) {
		if err := ctx.Err(); err != nil {
			return game.Snapshot{}, err
		}

		return game.Snapshot{}, apperror.ErrServerStopped
	}

	select {
	case snapshot := <-reply:
		return snapshot, nil
	case <-ctx.Done():
		return game.Snapshot{}, ctx.Err()
	case <-that.stopped:
		return game.Snapshot{}, apperror.ErrServerStopped
	}
}

// post - hands task to the game loop. It reports false if the loop is gone.
func (that *Server) post(ctx context.Context, task func()) bool {
	select {
	case that.tasks <- task:
		return true
	case <-that.stopped:
		return false
	case <-ctx.Done():
		return false
	}
}

func (that *Server) acceptLoop() error {
	log := that.logger.With("method", "acceptLoop")

	for {
		conn, err := that.listener.Accept()
		if err != nil {
			select {
			case <-that.stopped:
				return nil
			default:
			}

			return err
		}

		log.Debug("accepted connection", "remote", conn.RemoteAddr().String())

		p := newPeer(that.logger, conn, that.options.SendQueue, that.options.WriteTimeout)

		if !that.post(context.Background(), func() { that.join(p) }) {
			_ = p.Close()
			return nil
		}

		that.wg.Add(2)

		go func() {
			defer that.wg.Done()
			p.writeLoop()
		}()

		go func() {
			defer that.wg.Done()
			that.readLoop(p)
		}()
	}
}

func (that *Server) readLoop(p *peer) {
	log := p.logger.With("method", "readLoop")

	decoder := protocol.NewDecoder(that.options.MaxFrameSize)
	buf := make([]byte, that.options.ReadBuffer)

	for {
		n, err := p.conn.Read(buf)
		if n > 0 {
			msgs, errs := decoder.Feed(buf[:n])

			for _, decodeErr := range errs {
				log.Warn("dropping frame", "error", decodeErr)
			}

			if len(msgs) > 0 && !that.post(context.Background(), func() { that.handle(p, msgs) }) {
				return
			}
		}

		if err != nil {
			log.Debug("connection closed", "error", err)
			that.post(context.Background(), func() { that.leave(p) })

			return
		}
	}
}

func (that *Server) join(p *peer) {
	that.sessions[p] = that.engine.Join(p)
}

func (that *Server) handle(p *peer, msgs []protocol.Message) {
	session, ok := that.sessions[p]
	if !ok {
		return
	}

	for _, msg := range msgs {
		that.engine.Handle(session, msg)
	}
}

func (that *Server) leave(p *peer) {
	session, ok := that.sessions[p]
	if !ok {
		return
	}

	delete(that.sessions, p)
	that.engine.Leave(session)
}

func (that *Server) shutdown() {
	log := that.logger.With("method", "shutdown")

	close(that.stopped)

	if err := that.listener.Close(); err != nil {
		log.Warn("failed to close listener", "error", err)
	}

	that.engine.Stop()

	for p := range that.sessions {
		_ = p.Close()
	}

	that.wg.Wait()

	log.Info("game server stopped")
}
