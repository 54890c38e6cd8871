package tcp

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/rocketscienceinc/pictionary-server/internal/apperror"
)

// peer is the transport of one client connection. Frames are queued and written by
// a dedicated goroutine, so Send never waits on the network.
type peer struct {
	logger *slog.Logger
	conn   net.Conn

	out          chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
}

func newPeer(logger *slog.Logger, conn net.Conn, queueSize int, writeTimeout time.Duration) *peer {
	return &peer{
		logger:       logger.With("remote", conn.RemoteAddr().String()),
		conn:         conn,
		out:          make(chan []byte, queueSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

// Send - queues a frame. A full queue means the client stopped reading.
func (that *peer) Send(frame []byte) error {
	select {
	case <-that.done:
		return apperror.ErrPeerClosed
	default:
	}

	select {
	case that.out <- frame:
		return nil
	default:
		return apperror.ErrSlowPeer
	}
}

// Close - closes the connection once. Queued frames that were not written yet are dropped.
func (that *peer) Close() error {
	err := apperror.ErrPeerClosed

	that.closeOnce.Do(func() {
		close(that.done)

		err = that.conn.Close()
		if err != nil {
			err = fmt.Errorf("failed to close connection: %w", err)
		}
	})

	return err
}

func (that *peer) writeLoop() {
	log := that.logger.With("method", "writeLoop")

	for {
		select {
		case <-that.done:
			return
		case frame := <-that.out:
			if err := that.write(frame); err != nil {
				log.Warn("failed to write frame", "error", err)
				_ = that.Close()

				return
			}
		}
	}
}

func (that *peer) write(frame []byte) error {
	if err := that.conn.SetWriteDeadline(time.Now().Add(that.writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if _, err := that.conn.Write(frame); err != nil {
		return fmt.Errorf("failed to write: %w", err)
	}

	return nil
}
