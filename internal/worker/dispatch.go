package worker

import (
	"strconv"
	"strings"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/dispatcher"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// DefaultBufferSize is the per-participant queue length.
const DefaultBufferSize = 1000

const channelPrefix = "participant:"

// Channel names the dispatcher channel of a traffic participant.
func Channel(id osi.Identifier) string {
	return channelPrefix + strconv.FormatUint(uint64(id), 10)
}

// ParseChannel returns the participant of a channel built by Channel.
func ParseChannel(ch string) (osi.Identifier, bool) {
	rest, ok := strings.CutPrefix(ch, channelPrefix)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return osi.Identifier(v), true
}

// RegisterHandlers gives every known participant its own buffered queue so
// its commands are processed in order, and routes everything else through
// a synchronous fallback.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher, participants []osi.Identifier, bufferSize int) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	for _, p := range participants {
		d.Register(Channel(p), m.Handle, dispatcher.Buffered(bufferSize), dispatcher.Blocking(), dispatcher.Logged())
	}
	d.RegisterFallback(m.Handle, dispatcher.Logged())
}
