package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/config"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/logging"
	intotel "github.com/IqraJilani-aai/open-simulation-interface/internal/otel"
)

const appName = "osi-trafficcmd"

// app holds the loggers shared by the long running commands.
type app struct {
	logs    *logging.SlogManager
	log     *slog.Logger
	zlog    zerolog.Logger
	otel    *intotel.Provider
	logPath string
	closers []io.Closer
}

// newApp sets up logging. Records go to a file under logsDir, or to
// console when logsDir is empty. GELF and OTel are added when enabled.
// attrs may be nil.
func newApp(ctx context.Context, console io.Writer, started time.Time, attrs logging.AttrsFunc) (*app, error) {
	a := &app{logs: logging.NewSlogManager()}
	if attrs != nil {
		a.logs.WithAttrs(attrs)
	}
	level := config.GetString("logLevel")

	var out io.Writer = console
	if dir := config.GetString("logsDir"); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		a.logPath = logging.LogFilePath(dir, appName, started)
		f, err := os.OpenFile(a.logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		a.closers = append(a.closers, f)
		out = f
	}

	var sinks []io.Writer
	if config.GetBool("graylog.enabled") {
		w, err := logging.NewGraylogWriter(config.GetString("graylog.address"))
		if err != nil {
			fmt.Fprintln(console, "Graylog disabled:", err)
		} else {
			sinks = append(sinks, w)
			if c, ok := any(w).(io.Closer); ok {
				a.closers = append(a.closers, c)
			}
		}
	}

	otelCfg := config.GetOTelConfig()
	p, err := intotel.New(ctx, intotel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: version,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      out,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("otel: %w", err)
	}
	a.otel = p

	var provider *sdklog.LoggerProvider
	if p.Enabled() {
		provider = p.LoggerProvider()
	}
	a.logs.Setup(out, level, provider, sinks...)
	a.log = a.logs.Logger()
	a.zlog = logging.NewZerolog(level, append([]io.Writer{out}, sinks...)...).
		With().Str("component", "storage").Logger()
	return a, nil
}

// close flushes telemetry and closes the log file and sinks.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.otel != nil {
		errs = append(errs, a.otel.Shutdown(ctx))
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}
