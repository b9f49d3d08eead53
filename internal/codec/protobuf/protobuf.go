// Package protobuf implements the binary wire format of traffic commands.
// Field numbers and enum literal values match deployed peers bit for bit,
// so payloads interoperate with any generated protobuf binding of the same
// schema. Unknown fields are skipped on decode.
package protobuf

import (
	"github.com/IqraJilani-aai/open-simulation-interface/internal/codec"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// Name is the registry name of this codec.
const Name = "protobuf"

func init() {
	codec.Register(Name, func() codec.Codec { return New() })
}

// Codec is the protobuf wire codec. It is stateless.
type Codec struct{}

// New creates a protobuf codec.
func New() *Codec {
	return &Codec{}
}

func (c *Codec) Name() string { return Name }

// Encode serializes a validated command.
func (c *Codec) Encode(cmd *osi.ValidatedCommand) ([]byte, error) {
	if cmd == nil {
		return nil, codec.Wrap(Name, "encode", codec.ErrNilCommand)
	}
	return MarshalRaw(cmd.Command().Raw()), nil
}

// Decode parses a payload into the raw wire shape.
func (c *Codec) Decode(data []byte) (*osi.RawTrafficCommand, error) {
	cmd, err := unmarshalCommand(data)
	if err != nil {
		return nil, codec.Wrap(Name, "decode", err)
	}
	return cmd, nil
}
