package apperror

import "errors"

var (
	ErrMalformedFrame     = errors.New("malformed frame")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrFrameTooLarge      = errors.New("frame exceeds maximum size")

	ErrSessionNotFound = errors.New("session not found")
	ErrPeerClosed      = errors.New("peer is closed")
	ErrSlowPeer        = errors.New("peer send queue is full")

	ErrRoundNotStarted   = errors.New("round is not started")
	ErrRoundFinished     = errors.New("round is already finished")
	ErrInvalidTransition = errors.New("round cannot move to that phase")
	ErrNotDrawer         = errors.New("only the drawer may do this")
	ErrDrawerGuess       = errors.New("the drawer cannot guess")

	ErrEmptyWordBank     = errors.New("word bank is empty")
	ErrRedisAddrNotFound = errors.New("redis address string is empty")
	ErrServerStopped     = errors.New("server is stopped")
)
