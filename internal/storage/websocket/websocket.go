// Package websocket forwards accepted commands and rejections to a live
// consumer over WebSocket instead of storing them.
package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/codec/jsoncodec"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/model/core"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/streaming"
)

// ErrNoSession is returned when recording outside a session.
var ErrNoSession = errors.New("no active session")

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams session data to a consumer. It implements
// storage.Backend but not storage.Exportable.
type Backend struct {
	conn  *connection
	cfg   Config
	log   zerolog.Logger
	codec *jsoncodec.Codec

	mu        sync.Mutex
	sessionID string
}

func New(cfg Config, log zerolog.Logger) *Backend {
	return &Backend{
		conn:  newConnection(log),
		cfg:   cfg,
		log:   log,
		codec: jsoncodec.New(),
	}
}

// Init connects to the consumer.
func (b *Backend) Init() error {
	if err := b.conn.dial(b.cfg.URL, b.cfg.Secret); err != nil {
		return err
	}
	b.log.Info().Str("url", b.cfg.URL).Msg("Connected to command consumer")
	return nil
}

// Close disconnects from the consumer.
func (b *Backend) Close() error {
	if n := b.conn.droppedCount(); n > 0 {
		b.log.Warn().Uint64("dropped", n).Msg("Messages dropped while streaming")
	}
	return b.conn.close()
}

func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

func (b *Backend) activeSession() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sessionID == "" {
		return "", ErrNoSession
	}
	return b.sessionID, nil
}

// StartSession announces the session and waits for the consumer's ack.
func (b *Backend) StartSession(s *core.Session) error {
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{
		ID:         s.ID,
		StartedAt:  s.StartedAt,
		Codec:      s.Codec,
		Uniqueness: s.Uniqueness,
		VersionMin: s.VersionMin,
		VersionMax: s.VersionMax,
	})
	if err != nil {
		return err
	}

	b.conn.setReplay(data)

	if err := b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout); err != nil {
		return err
	}

	b.mu.Lock()
	b.sessionID = s.ID
	b.mu.Unlock()
	return nil
}

// EndSession sends end_session and waits for the ack.
func (b *Backend) EndSession() error {
	id, err := b.activeSession()
	if err != nil {
		return err
	}
	data, err := marshalEnvelope(streaming.TypeEndSession, map[string]string{"id": id})
	if err != nil {
		return err
	}
	err = b.conn.sendAndWait(data, streaming.TypeEndSession, ackTimeout)

	b.conn.setReplay(nil)
	b.mu.Lock()
	b.sessionID = ""
	b.mu.Unlock()

	return err
}

func (b *Backend) RecordCommand(r *core.CommandRecord) error {
	id, err := b.activeSession()
	if err != nil {
		return err
	}
	doc, err := b.codec.Encode(r.Command)
	if err != nil {
		return err
	}
	return b.sendEnvelope(streaming.TypeCommand, streaming.CommandPayload{
		SessionID:  id,
		ReceivedAt: r.ReceivedAt,
		Source:     r.Source,
		Codec:      r.Codec,
		Command:    doc,
	})
}

func (b *Backend) RecordRejection(r *core.Rejection) error {
	id, err := b.activeSession()
	if err != nil {
		return err
	}
	p := streaming.RejectionPayload{
		SessionID:  id,
		ReceivedAt: r.ReceivedAt,
		Source:     r.Source,
		Codec:      r.Codec,
		Stage:      string(r.Stage),
		Reasons:    make([]streaming.Reason, 0, len(r.Reasons)),
	}
	if r.TrafficParticipantID != nil {
		v := uint64(*r.TrafficParticipantID)
		p.TrafficParticipantID = &v
	}
	for _, reason := range r.Reasons {
		p.Reasons = append(p.Reasons, streaming.Reason{
			Kind:     reason.Kind,
			Path:     reason.Path,
			ActionID: reason.ActionID,
			Message:  reason.Message,
		})
	}
	return b.sendEnvelope(streaming.TypeRejection, p)
}
