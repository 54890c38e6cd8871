package entity

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rocketscienceinc/pictionary-server/internal/apperror"
)

type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseRoundEnd  Phase = "round_end"
)

var ErrUnknownPhase = errors.New("unknown round phase")

// nextPhases lists where each phase may go. Any phase may fall back to waiting.
var nextPhases = map[Phase][]Phase{
	PhaseWaiting:   {PhaseWaiting, PhaseCountdown},
	PhaseCountdown: {PhaseWaiting, PhasePlaying},
	PhasePlaying:   {PhaseWaiting, PhaseRoundEnd},
	PhaseRoundEnd:  {PhaseWaiting, PhasePlaying},
}

// Stroke is one line segment drawn on the canvas.
type Stroke struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Round is the single active game round.
// Epoch changes on every phase transition so scheduled work can detect that it went stale.
type Round struct {
	Phase     Phase
	Drawer    *Session
	Word      string
	Strokes   []Stroke
	Countdown int
	Epoch     uint64
}

func NewRound() *Round {
	return &Round{
		Phase: PhaseWaiting,
	}
}

func (that *Round) IsWaiting() bool {
	return that.Phase == PhaseWaiting
}

func (that *Round) IsCountdown() bool {
	return that.Phase == PhaseCountdown
}

func (that *Round) IsPlaying() bool {
	return that.Phase == PhasePlaying
}

func (that *Round) IsRoundEnd() bool {
	return that.Phase == PhaseRoundEnd
}

// Transition - moves the round to the given phase and bumps the epoch.
// Moves that would skip a phase are refused and leave the round untouched.
func (that *Round) Transition(phase Phase) error {
	if _, known := nextPhases[phase]; !known {
		return fmt.Errorf("%w: %s", ErrUnknownPhase, phase)
	}

	if err := that.ConfirmTransition(phase); err != nil {
		return err
	}

	that.Phase = phase
	that.Epoch++

	return nil
}

// ConfirmTransition - returns an error unless the round may move to phase from where it is now.
func (that *Round) ConfirmTransition(phase Phase) error {
	allowed, known := nextPhases[that.Phase]
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownPhase, that.Phase)
	}

	if !slices.Contains(allowed, phase) {
		return fmt.Errorf("%w: %s to %s", apperror.ErrInvalidTransition, that.Phase, phase)
	}

	return nil
}

// Reset - returns the round to waiting and forgets the drawer, word, strokes and countdown.
func (that *Round) Reset() {
	that.Phase = PhaseWaiting
	that.Drawer = nil
	that.Word = ""
	that.Strokes = nil
	that.Countdown = 0
	that.Epoch++
}

func (that *Round) AddStroke(stroke Stroke) {
	that.Strokes = append(that.Strokes, stroke)
}

func (that *Round) ClearStrokes() {
	that.Strokes = nil
}

// StrokeHistory - returns a copy of the strokes drawn so far this round.
func (that *Round) StrokeHistory() []Stroke {
	history := make([]Stroke, len(that.Strokes))
	copy(history, that.Strokes)

	return history
}

func (that *Round) IsDrawer(session *Session) bool {
	return session != nil && that.Drawer == session
}

// Matches - reports whether an already normalized guess hits the secret word.
func (that *Round) Matches(guess string) bool {
	return that.Word != "" && guess == NormalizeGuess(that.Word)
}

// ConfirmPlaying - returns an error unless guesses and strokes are accepted right now.
func (that *Round) ConfirmPlaying() error {
	switch that.Phase {
	case PhasePlaying:
		return nil
	case PhaseWaiting, PhaseCountdown:
		return apperror.ErrRoundNotStarted
	case PhaseRoundEnd:
		return apperror.ErrRoundFinished
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPhase, that.Phase)
	}
}

// NormalizeGuess - trims surrounding whitespace and folds case.
func NormalizeGuess(guess string) string {
	return strings.ToLower(strings.TrimSpace(guess))
}
