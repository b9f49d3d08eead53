// Package worker runs the receive pipeline: decode a payload, check its
// interface version, validate it, and hand the result to storage. Every
// payload ends up either as an accepted command or as a rejection.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/cache"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/codec"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/dispatcher"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/logging"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/model/core"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/session"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/storage"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// ErrNoSession is returned when a payload arrives outside a session.
var ErrNoSession = errors.New("no active session")

// RejectedError is returned for payloads that were recorded as rejections.
// Err is the codec, version or validation error.
type RejectedError struct {
	Stage core.Stage
	Err   error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected at %s: %v", e.Stage, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// MetricsSink receives a copy of every outcome. *influx.Manager implements it.
type MetricsSink interface {
	RecordCommand(r *core.CommandRecord) error
	RecordRejection(r *core.Rejection) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Codec      codec.Codec
	Session    *session.Context
	LogManager *logging.SlogManager
	Metrics    MetricsSink // optional
}

// Stats counts outcomes since the manager was created.
type Stats struct {
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
	Actions  int64 `json:"actions"`
	// StoreFailed counts payloads the backend could not record.
	StoreFailed int64 `json:"storeFailed,omitempty"`
}

// Manager runs the pipeline for every inbound payload.
type Manager struct {
	deps      Dependencies
	backend   storage.Backend
	validator *osi.Validator

	accepted cache.SafeCounter
	rejected cache.SafeCounter
	actions  cache.SafeCounter
	failed   cache.SafeCounter

	acceptedCounter metric.Int64Counter
	rejectedCounter metric.Int64Counter
	actionCounter   metric.Int64Counter
	latency         metric.Float64Histogram
}

func NewManager(deps Dependencies, backend storage.Backend) (*Manager, error) {
	if deps.Codec == nil {
		return nil, errors.New("worker: codec is required")
	}
	if deps.Session == nil {
		return nil, errors.New("worker: session context is required")
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}

	m := &Manager{
		deps:      deps,
		backend:   backend,
		validator: deps.Session.Validator(),
	}
	if err := m.initInstruments(); err != nil {
		return nil, err
	}
	return m, nil
}

const instrumentationName = "github.com/IqraJilani-aai/open-simulation-interface/internal/worker"

func (m *Manager) initInstruments() error {
	mt := otel.Meter(instrumentationName)
	var err error

	m.acceptedCounter, err = mt.Int64Counter("receiver.commands.accepted",
		metric.WithDescription("Traffic commands that passed validation"))
	if err != nil {
		return fmt.Errorf("creating accepted counter: %w", err)
	}
	m.rejectedCounter, err = mt.Int64Counter("receiver.commands.rejected",
		metric.WithDescription("Payloads rejected, by stage"))
	if err != nil {
		return fmt.Errorf("creating rejected counter: %w", err)
	}
	m.actionCounter, err = mt.Int64Counter("receiver.actions",
		metric.WithDescription("Accepted actions, by kind"))
	if err != nil {
		return fmt.Errorf("creating action counter: %w", err)
	}
	m.latency, err = mt.Float64Histogram("receiver.pipeline.duration",
		metric.WithDescription("Time from dispatch to storage"),
		metric.WithUnit("ms"))
	if err != nil {
		return fmt.Errorf("creating latency histogram: %w", err)
	}
	return nil
}

func (m *Manager) logger() *slog.Logger {
	return m.deps.LogManager.Logger()
}

// Stats returns the outcome counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Accepted:    m.accepted.Value(),
		Rejected:    m.rejected.Value(),
		Actions:     m.actions.Value(),
		StoreFailed: m.failed.Value(),
	}
}

// Receive runs one payload through the pipeline. Rejected payloads are
// recorded and returned as *RejectedError.
func (m *Manager) Receive(e dispatcher.Event) (*osi.ValidatedCommand, error) {
	start := time.Now()
	sessionID := m.deps.Session.ID()
	if sessionID == "" {
		return nil, ErrNoSession
	}
	if e.Received.IsZero() {
		e.Received = start
	}

	raw, err := m.deps.Codec.Decode(e.Payload)
	if err != nil {
		return nil, m.reject(sessionID, e, core.StageDecode, nil, err)
	}

	vc, err := m.validator.ValidateRaw(raw)
	if err != nil {
		stage := core.StageValidation
		if errors.Is(err, osi.ErrVersionIncompatible) {
			stage = core.StageVersion
		}
		return nil, m.reject(sessionID, e, stage, raw.TrafficParticipantID, err)
	}

	rec := &core.CommandRecord{
		SessionID:  sessionID,
		ReceivedAt: e.Received,
		Source:     e.Source,
		Codec:      m.deps.Codec.Name(),
		Command:    vc,
	}
	if err := m.backend.RecordCommand(rec); err != nil {
		m.failed.Inc()
		m.logger().Error("Storing command failed",
			"source", e.Source,
			"participant", uint64(vc.TrafficParticipantID()),
			"error", err,
		)
		return vc, fmt.Errorf("storing command: %w", err)
	}
	m.record(rec)

	m.accepted.Inc()
	m.actions.Add(int64(vc.NumActions()))

	ctx := context.Background()
	m.acceptedCounter.Add(ctx, 1)
	for _, a := range vc.Actions() {
		m.actionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", a.Kind().String())))
	}
	m.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000)

	m.logger().Debug("Command accepted",
		"source", e.Source,
		"participant", uint64(vc.TrafficParticipantID()),
		"actions", vc.NumActions(),
	)
	return vc, nil
}

// Handle adapts Receive to dispatcher.HandlerFunc.
func (m *Manager) Handle(e dispatcher.Event) (any, error) {
	vc, err := m.Receive(e)
	if err != nil {
		return nil, err
	}
	return vc, nil
}

func (m *Manager) reject(sessionID string, e dispatcher.Event, stage core.Stage, participant *osi.Identifier, cause error) error {
	r := &core.Rejection{
		SessionID:            sessionID,
		ReceivedAt:           e.Received,
		Source:               e.Source,
		Codec:                m.deps.Codec.Name(),
		Stage:                stage,
		TrafficParticipantID: participant,
		Reasons:              Reasons(cause),
		Payload:              e.Payload,
	}

	m.rejected.Inc()
	m.rejectedCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("stage", string(stage))))
	m.logger().Warn("Command rejected",
		"source", e.Source,
		"stage", stage,
		"reasons", len(r.Reasons),
		"error", cause,
	)

	rejected := &RejectedError{Stage: stage, Err: cause}
	if err := m.backend.RecordRejection(r); err != nil {
		m.failed.Inc()
		m.logger().Error("Storing rejection failed", "source", e.Source, "stage", stage, "error", err)
		return errors.Join(rejected, fmt.Errorf("storing rejection: %w", err))
	}
	m.recordRejection(r)
	return rejected
}

func (m *Manager) record(r *core.CommandRecord) {
	if m.deps.Metrics == nil {
		return
	}
	if err := m.deps.Metrics.RecordCommand(r); err != nil {
		m.logger().Debug("Metrics write failed", "error", err)
	}
}

func (m *Manager) recordRejection(r *core.Rejection) {
	if m.deps.Metrics == nil {
		return
	}
	if err := m.deps.Metrics.RecordRejection(r); err != nil {
		m.logger().Debug("Metrics write failed", "error", err)
	}
}

// Send validates an outbound command against the configured version range
// and encodes it. Session uniqueness is not applied to outbound commands.
func (m *Manager) Send(cmd *osi.TrafficCommand) ([]byte, error) {
	v := osi.NewValidator(osi.WithVersionCheck(m.deps.Session.Settings().Versions))
	vc, err := v.Validate(cmd)
	if err != nil {
		return nil, err
	}
	return m.deps.Codec.Encode(vc)
}
