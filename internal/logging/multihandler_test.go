package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct{ slog.Handler }

func (failingSink) Enabled(context.Context, slog.Level) bool { return true }

func (failingSink) Handle(context.Context, slog.Record) error { return errors.New("gelf unreachable") }

func textSink(buf *bytes.Buffer, lvl slog.Level) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: lvl})
}

func TestMultiHandler_FansOut(t *testing.T) {
	var file, console bytes.Buffer
	multi := NewMultiHandler(nil, textSink(&file, slog.LevelInfo), nil, textSink(&console, slog.LevelWarn))
	require.Len(t, multi.sinks, 2)

	logger := slog.New(multi)
	logger.Info("accepted")
	logger.Warn("rejected")

	assert.Contains(t, file.String(), "accepted")
	assert.Contains(t, file.String(), "rejected")
	assert.NotContains(t, console.String(), "accepted")
	assert.Contains(t, console.String(), "rejected")
}

func TestMultiHandler_Enabled(t *testing.T) {
	ctx := context.Background()
	info := textSink(&bytes.Buffer{}, slog.LevelInfo)
	debug := textSink(&bytes.Buffer{}, slog.LevelDebug)

	assert.False(t, NewMultiHandler().Enabled(ctx, slog.LevelError))
	assert.False(t, NewMultiHandler(info).Enabled(ctx, slog.LevelDebug))
	assert.True(t, NewMultiHandler(info, debug).Enabled(ctx, slog.LevelDebug))
}

func TestMultiHandler_FailingSink(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(failingSink{}, textSink(&buf, slog.LevelInfo))

	slog.New(multi).Info("still written")
	assert.Contains(t, buf.String(), "still written")

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "direct", 0)
	assert.EqualError(t, multi.Handle(context.Background(), rec), "gelf unreachable")
}

func TestMultiHandler_Derive(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(textSink(&buf, slog.LevelInfo))

	slog.New(multi.WithAttrs([]slog.Attr{slog.String("component", "dispatcher")}).WithGroup("event")).
		Info("queued", "channel", "participant:7")

	assert.Contains(t, buf.String(), "component=dispatcher")
	assert.Contains(t, buf.String(), "event.channel=participant:7")
	assert.Same(t, multi, multi.WithGroup(""))
}

func TestContextHandler_EvaluatesPerRecord(t *testing.T) {
	var buf bytes.Buffer
	n := 0
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		n++
		return []slog.Attr{slog.Int("seq", n)}
	})
	logger := slog.New(h).With("component", "worker")

	logger.Info("one")
	logger.Info("two")

	assert.Contains(t, buf.String(), "seq=1")
	assert.Contains(t, buf.String(), "seq=2")
	assert.Contains(t, buf.String(), "component=worker")
}
