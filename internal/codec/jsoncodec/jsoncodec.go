// Package jsoncodec encodes traffic commands as JSON documents keyed by the
// schema field names. It is meant for tooling, fixtures and consumers that
// cannot link a protobuf runtime.
package jsoncodec

import (
	"bytes"
	"encoding/json"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/codec"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// Name is the registry name of this codec.
const Name = "json"

func init() {
	codec.Register(Name, func() codec.Codec { return New() })
}

// Option configures the codec.
type Option func(*Codec)

// WithIndent pretty-prints encoded documents.
func WithIndent(indent string) Option {
	return func(c *Codec) {
		c.indent = indent
	}
}

// Codec is the JSON codec.
type Codec struct {
	indent string
}

// New creates a JSON codec.
func New(opts ...Option) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codec) Name() string { return Name }

// Encode serializes a validated command.
func (c *Codec) Encode(cmd *osi.ValidatedCommand) ([]byte, error) {
	if cmd == nil {
		return nil, codec.Wrap(Name, "encode", codec.ErrNilCommand)
	}
	data, err := c.MarshalRaw(cmd.Command().Raw())
	return data, codec.Wrap(Name, "encode", err)
}

// MarshalRaw encodes a wire-shaped command without validating it.
func (c *Codec) MarshalRaw(raw *osi.RawTrafficCommand) ([]byte, error) {
	doc := toCommandJSON(raw)
	if c.indent != "" {
		return json.MarshalIndent(doc, "", c.indent)
	}
	return json.Marshal(doc)
}

// Decode parses a JSON document into the raw wire shape.
func (c *Codec) Decode(data []byte) (*osi.RawTrafficCommand, error) {
	var doc commandJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, codec.Wrap(Name, "decode", err)
	}
	return fromCommandJSON(doc), nil
}

// MarshalAction encodes a single action as it appears inside the action
// list of a command document.
func MarshalAction(a osi.TrafficAction) ([]byte, error) {
	return json.Marshal(toActionJSON(a.Raw()))
}
