package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/pictionary-server/internal/apperror"
)

// Delimiter terminates every frame. JSON encoding escapes it inside strings,
// so it never shows up in a frame body.
const Delimiter byte = '\n'

const DefaultMaxFrameSize = 64 * 1024

type envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode - serializes a message into one delimited frame.
func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s data: %w", msg.Kind(), err)
	}

	frame, err := json.Marshal(envelope{Type: msg.Kind(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s frame: %w", msg.Kind(), err)
	}

	return append(frame, Delimiter), nil
}

// Decode - extracts every complete frame from buf. Frames that fail to parse are skipped and
// reported in errs; the returned remainder starts right after the last delimiter.
func Decode(buf []byte) ([]Message, []byte, []error) {
	var (
		msgs []Message
		errs []error
	)

	for {
		idx := bytes.IndexByte(buf, Delimiter)
		if idx < 0 {
			return msgs, buf, errs
		}

		line := bytes.TrimSpace(buf[:idx])
		buf = buf[idx+1:]

		if len(line) == 0 {
			continue
		}

		msg, err := decodeFrame(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		msgs = append(msgs, msg)
	}
}

func decodeFrame(line []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedFrame, err)
	}

	switch env.Type {
	case KindDraw:
		return decodeDraw(env.Data)
	case KindClear:
		return Clear{}, nil
	case KindGuess:
		return decodeGuess(env.Data)
	case KindState:
		return decodeInto[State](env)
	case KindCountdown:
		return decodeInto[Countdown](env)
	case KindResult:
		return decodeInto[Result](env)
	case KindHint:
		return decodeInto[Hint](env)
	default:
		return nil, fmt.Errorf("%w: %w: %q", apperror.ErrMalformedFrame, apperror.ErrUnknownMessageType, env.Type)
	}
}

func decodeInto[T Message](env envelope) (Message, error) {
	var msg T
	if err := decodeData(env, &msg); err != nil {
		return nil, err
	}

	return msg, nil
}

func decodeData(env envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s frame without data", apperror.ErrMalformedFrame, env.Type)
	}

	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s data: %w", apperror.ErrMalformedFrame, env.Type, err)
	}

	return nil
}

func decodeDraw(data json.RawMessage) (Message, error) {
	var raw struct {
		X1 *float64 `json:"x1"`
		Y1 *float64 `json:"y1"`
		X2 *float64 `json:"x2"`
		Y2 *float64 `json:"y2"`
	}

	if err := decodeData(envelope{Type: KindDraw, Data: data}, &raw); err != nil {
		return nil, err
	}

	if raw.X1 == nil || raw.Y1 == nil || raw.X2 == nil || raw.Y2 == nil {
		return nil, fmt.Errorf("%w: DRAW needs x1, y1, x2 and y2", apperror.ErrMalformedFrame)
	}

	msg := Draw{}
	msg.X1, msg.Y1, msg.X2, msg.Y2 = *raw.X1, *raw.Y1, *raw.X2, *raw.Y2

	return msg, nil
}

func decodeGuess(data json.RawMessage) (Message, error) {
	var raw struct {
		Player string  `json:"player"`
		Guess  *string `json:"guess"`
	}

	if err := decodeData(envelope{Type: KindGuess, Data: data}, &raw); err != nil {
		return nil, err
	}

	if raw.Guess == nil {
		return nil, fmt.Errorf("%w: GUESS needs guess", apperror.ErrMalformedFrame)
	}

	return Guess{Player: raw.Player, Guess: *raw.Guess}, nil
}

// Decoder keeps the unparsed tail of one connection's byte stream between reads.
type Decoder struct {
	maxFrameSize int
	pending      []byte
}

func NewDecoder(maxFrameSize int) *Decoder {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}

	return &Decoder{maxFrameSize: maxFrameSize}
}

// Feed - appends freshly read bytes and returns the frames they complete.
// An oversized partial frame is dropped; the stream realigns at the next delimiter.
func (that *Decoder) Feed(data []byte) ([]Message, []error) {
	that.pending = append(that.pending, data...)

	msgs, rest, errs := Decode(that.pending)

	if len(rest) > that.maxFrameSize {
		errs = append(errs, fmt.Errorf("%w: %d bytes without delimiter", apperror.ErrFrameTooLarge, len(rest)))
		rest = nil
	}

	that.pending = append(that.pending[:0:0], rest...)

	return msgs, errs
}

// Pending - returns how many bytes wait for a delimiter.
func (that *Decoder) Pending() int {
	return len(that.pending)
}
