package protocol

import (
	"errors"
	"fmt"

	"pooledlist/internal/shared/pool"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	// FrameHeaderSize is the type byte in front of every payload
	FrameHeaderSize = 1
	MaxFrameSize    = 1 * 1024 * 1024
)

var (
	// ErrEmptyFrame is returned for a websocket message with no type byte
	ErrEmptyFrame = errors.New("empty frame")

	// ErrFrameTooLarge is returned for payloads over MaxFrameSize
	ErrFrameTooLarge = errors.New("frame too large")
)

// FrameType identifies the message carried by a frame
type FrameType byte

const (
	FrameTypeBind    FrameType = 0x01
	FrameTypeScroll  FrameType = 0x02
	FrameTypeResize  FrameType = 0x03
	FrameTypeRefresh FrameType = 0x04
	FrameTypeStats   FrameType = 0x05

	FrameTypeWindow     FrameType = 0x10
	FrameTypeStatsReply FrameType = 0x11
	FrameTypeError      FrameType = 0x12
)

// String returns the string representation of frame type
func (t FrameType) String() string {
	switch t {
	case FrameTypeBind:
		return "Bind"
	case FrameTypeScroll:
		return "Scroll"
	case FrameTypeResize:
		return "Resize"
	case FrameTypeRefresh:
		return "Refresh"
	case FrameTypeStats:
		return "Stats"
	case FrameTypeWindow:
		return "Window"
	case FrameTypeStatsReply:
		return "StatsReply"
	case FrameTypeError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// FromClient reports whether t is a request type
func (t FrameType) FromClient() bool {
	return t >= FrameTypeBind && t <= FrameTypeStats
}

// Frame is one binary websocket message: a type byte followed by a msgpack body
type Frame struct {
	Type    FrameType
	Payload []byte
}

// Encode serializes v behind a type byte. The scratch buffer comes from the
// shared buffer pool; the returned slice is a copy the caller owns.
func Encode(t FrameType, v any) ([]byte, error) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	buf.WriteByte(byte(t))
	if v != nil {
		if err := msgpack.NewEncoder(buf).Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", t, err)
		}
	}

	if buf.Len()-FrameHeaderSize > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, buf.Len()-FrameHeaderSize, MaxFrameSize)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// ReadFrame splits a websocket message into its type and payload
func ReadFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, ErrEmptyFrame
	}
	if len(data)-FrameHeaderSize > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, len(data)-FrameHeaderSize, MaxFrameSize)
	}
	return &Frame{
		Type:    FrameType(data[0]),
		Payload: data[FrameHeaderSize:],
	}, nil
}

// Decode unmarshals the payload into v. An empty payload leaves v untouched.
func (f *Frame) Decode(v any) error {
	if len(f.Payload) == 0 {
		return nil
	}
	if err := msgpack.Unmarshal(f.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", f.Type, err)
	}
	return nil
}
