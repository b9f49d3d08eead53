package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/model/core"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/streaming"
)

// testServer upgrades to WebSocket, records received envelopes and acks
// start_session and end_session.
func testServer(t *testing.T) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.setSecret(r.URL.Query().Get("secret"))
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			if env.Type == streaming.TypeStartSession || env.Type == streaming.TypeEndSession {
				data, _ := json.Marshal(streaming.AckMessage{Type: streaming.TypeAck, For: env.Type})
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	secret   string
	messages []streaming.Envelope
}

func (m *messageLog) setSecret(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = s
}

func (m *messageLog) getSecret() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.secret
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func command(t *testing.T) *osi.ValidatedCommand {
	t.Helper()
	vc, err := osi.NewValidator().Validate(&osi.TrafficCommand{
		Timestamp:            &osi.Timestamp{Seconds: 1},
		TrafficParticipantID: osi.ID(77),
		Actions: []osi.TrafficAction{osi.NewTrafficAction(&osi.AcquireGlobalPositionAction{
			Header:   osi.ActionHeader{ActionID: osi.ID(1)},
			Position: &osi.Vector3d{X: 1, Y: 2},
		})},
	})
	require.NoError(t, err)
	return vc
}

func TestStartAndEndSession(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "test"}, zerolog.Nop())
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartSession(&core.Session{ID: "abc", Codec: "protobuf"}))
	require.NoError(t, b.EndSession())

	msgs := ml.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, streaming.TypeStartSession, msgs[0].Type)
	assert.Equal(t, streaming.TypeEndSession, msgs[1].Type)
	assert.Equal(t, "test", ml.getSecret())

	var start streaming.StartSessionPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &start))
	assert.Equal(t, "abc", start.ID)
	assert.Equal(t, "protobuf", start.Codec)
}

func TestRecordsStreamInOrder(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)}, zerolog.Nop())
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartSession(&core.Session{ID: "s"}))
	require.NoError(t, b.RecordCommand(&core.CommandRecord{Source: "a.bin", Codec: "protobuf", Command: command(t)}))
	actionID := uint64(4)
	require.NoError(t, b.RecordRejection(&core.Rejection{
		Stage:                core.StageValidation,
		TrafficParticipantID: osi.ID(77),
		Reasons:              []core.Reason{{Kind: "DuplicateActionId", ActionID: &actionID, Message: "dup"}},
		Payload:              []byte("secret bytes"),
	}))
	require.NoError(t, b.EndSession())

	msgs := ml.all()
	require.Len(t, msgs, 4)
	assert.Equal(t, streaming.TypeCommand, msgs[1].Type)
	assert.Equal(t, streaming.TypeRejection, msgs[2].Type)

	var cmd streaming.CommandPayload
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &cmd))
	assert.Equal(t, "s", cmd.SessionID)
	assert.Contains(t, string(cmd.Command), `"acquire_global_position_action"`)

	var rej streaming.RejectionPayload
	require.NoError(t, json.Unmarshal(msgs[2].Payload, &rej))
	assert.Equal(t, "validation", rej.Stage)
	require.NotNil(t, rej.TrafficParticipantID)
	assert.Equal(t, uint64(77), *rej.TrafficParticipantID)
	require.Len(t, rej.Reasons, 1)
	assert.Equal(t, uint64(4), *rej.Reasons[0].ActionID)
	assert.NotContains(t, string(msgs[2].Payload), "secret bytes")
}

func TestRecord_NoSession(t *testing.T) {
	b := New(Config{}, zerolog.Nop())
	assert.ErrorIs(t, b.RecordCommand(&core.CommandRecord{Command: command(t)}), ErrNoSession)
	assert.ErrorIs(t, b.RecordRejection(&core.Rejection{}), ErrNoSession)
	assert.ErrorIs(t, b.EndSession(), ErrNoSession)
}

func TestInit_DialFailure(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1/none"}, zerolog.Nop())
	assert.Error(t, b.Init())
}

func TestInit_InvalidURL(t *testing.T) {
	b := New(Config{URL: "://bad"}, zerolog.Nop())
	assert.ErrorContains(t, b.Init(), "invalid websocket URL")
}

func TestStartSession_AckTimeoutWhenClosed(t *testing.T) {
	srv, _ := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)}, zerolog.Nop())
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())

	done := make(chan error, 1)
	go func() { done <- b.StartSession(&core.Session{ID: "late"}) }()
	select {
	case err := <-done:
		assert.ErrorContains(t, err, "connection closed")
	case <-time.After(2 * time.Second):
		t.Fatal("StartSession did not return after close")
	}
}

func TestClose_Idempotent(t *testing.T) {
	srv, _ := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)}, zerolog.Nop())
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}
