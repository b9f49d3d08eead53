package worker

import (
	"errors"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/codec"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/model/core"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// Reason kinds that do not come from a validation violation.
const (
	KindCodecError          = "CodecError"
	KindVersionIncompatible = "VersionIncompatible"
	KindInternal            = "InternalError"
)

// Reasons flattens a pipeline error into rejection reasons. Violations
// produce one reason each.
func Reasons(err error) []core.Reason {
	if err == nil {
		return nil
	}

	if v, ok := osi.AsViolations(err); ok {
		out := make([]core.Reason, 0, len(v))
		for _, e := range v {
			r := core.Reason{Kind: e.Kind.String(), Path: e.Path, Message: e.Reason}
			if e.ActionID != nil {
				id := uint64(*e.ActionID)
				r.ActionID = &id
			}
			out = append(out, r)
		}
		return out
	}

	var ve *osi.VersionError
	if errors.As(err, &ve) {
		return []core.Reason{{Kind: KindVersionIncompatible, Path: "version", Message: ve.Reason}}
	}

	if errors.Is(err, codec.ErrCodec) {
		return []core.Reason{{Kind: KindCodecError, Message: err.Error()}}
	}
	return []core.Reason{{Kind: KindInternal, Message: err.Error()}}
}
