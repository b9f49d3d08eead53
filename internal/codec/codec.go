// Package codec defines the byte-level collaborators that move traffic
// commands on and off the wire. Encoders only accept validated commands;
// decoders return the raw wire shape so the action choice is resolved by
// the validator.
package codec

import (
	"errors"
	"fmt"

	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

var (
	// ErrCodec matches every error produced by a codec.
	ErrCodec = errors.New("codec error")
	// ErrNilCommand is returned when encoding a nil command.
	ErrNilCommand = errors.New("nil command")
)

// Codec encodes and decodes traffic commands.
type Codec interface {
	Name() string
	Encode(cmd *osi.ValidatedCommand) ([]byte, error)
	Decode(data []byte) (*osi.RawTrafficCommand, error)
}

// Error wraps a failure of a named codec. It is opaque to the core: bytes
// are never repaired.
type Error struct {
	Codec string
	Op    string // "encode" or "decode"
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("CodecError: %s %s: %v", e.Codec, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrCodec }

// Wrap returns err as a *Error, or nil when err is nil.
func Wrap(codec, op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Codec: codec, Op: op, Err: err}
}

var registry = map[string]func() Codec{}

// Register makes a codec constructor available to Lookup. It is called
// from init functions of codec implementations.
func Register(name string, ctor func() Codec) {
	registry[name] = ctor
}

// Lookup returns a new codec registered under name.
func Lookup(name string) (Codec, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
	return ctor(), nil
}
