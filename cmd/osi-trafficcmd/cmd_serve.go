package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/api"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/codec"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/config"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/dispatcher"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/geo"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/influx"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/logging"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/monitor"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/session"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/storage"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/worker"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// newServeCmd creates the "serve" subcommand.
func newServeCmd() *cobra.Command {
	var (
		watch      time.Duration
		statusFile string
	)

	cmd := &cobra.Command{
		Use:   "serve <dir>",
		Short: "Receive command payloads from a directory",
		Long: "Run every payload file in dir through the receiver within one session.\n" +
			"Files in a subdirectory named by a participant id are handled in name order\n" +
			"on that participant's queue; files directly in dir are handled in order on\n" +
			"the shared queue. With --watch the directory is polled for new files until\n" +
			"interrupted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mcfg := config.GetMonitorConfig()
			if statusFile != "" {
				mcfg.StatusFile = statusFile
			}
			return serve(ctx, cmd.OutOrStdout(), args[0], watch, mcfg)
		},
	}

	cmd.Flags().DurationVar(&watch, "watch", 0, "poll interval for new files (0 processes the directory once)")
	cmd.Flags().StringVar(&statusFile, "status-file", "", "write the receiver status as JSON to this file")
	return cmd
}

// server feeds payload files to the dispatcher.
type server struct {
	dir        string
	dispatcher *dispatcher.Dispatcher
	log        *slog.Logger
	seen       map[string]bool
}

func serve(ctx context.Context, out io.Writer, dir string, watch time.Duration, mcfg config.MonitorConfig) (err error) {
	vcfg, err := config.GetValidationConfig()
	if err != nil {
		return err
	}
	c, err := codec.Lookup(config.GetString("codec"))
	if err != nil {
		return err
	}
	sess := session.NewContext(session.Settings{
		Codec:      c.Name(),
		Uniqueness: vcfg.Uniqueness,
		Versions:   vcfg.Versions,
	})

	a, err := newApp(ctx, out, time.Now(), func() []slog.Attr {
		if id := sess.ID(); id != "" {
			return []slog.Attr{slog.String("session", id)}
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.close(context.Background()))
	}()
	log := a.log

	georef, err := georeference()
	if err != nil {
		return err
	}

	backend, err := storage.NewBackend(config.GetStorageConfig(), config.GetDBConfig(), georef, a.zlog)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing storage: %w", cerr))
		}
	}()

	var metrics worker.MetricsSink
	if icfg := config.GetInfluxConfig(); icfg.Enabled {
		im := influx.NewManager(icfg, a.zlog)
		if cerr := im.Connect(ctx); cerr != nil {
			log.Warn("InfluxDB disabled", "error", cerr)
		} else {
			metrics = im
			defer im.Close()
		}
	}

	w, err := worker.NewManager(worker.Dependencies{
		Codec:      c,
		Session:    sess,
		LogManager: a.logs,
		Metrics:    metrics,
	}, backend)
	if err != nil {
		return err
	}

	participants, err := participantDirs(dir)
	if err != nil {
		return err
	}

	s, err := sess.Begin()
	if err != nil {
		return err
	}
	if err := backend.StartSession(s); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	log.Info("Session started", "session", s.ID, "codec", c.Name(), "participants", len(participants))

	d, err := dispatcher.New(logging.NewZerologAdapter(a.zlog))
	if err != nil {
		return err
	}
	w.RegisterHandlers(d, participants, mcfg.BufferSize)

	mon := monitor.NewService(monitor.Dependencies{
		LogManager: a.logs,
		Session:    sess,
		Worker:     w,
		Backend:    backend,
		StatusFile: mcfg.StatusFile,
		Interval:   mcfg.Interval,
	})
	if err := mon.Start(); err != nil {
		return err
	}

	srv := &server{dir: dir, dispatcher: d, log: log, seen: map[string]bool{}}
	runErr := srv.run(ctx, watch)

	d.Close()
	mon.Stop()
	if mcfg.StatusFile != "" {
		if werr := mon.WriteStatusFile(mon.Snapshot()); werr != nil {
			log.Error("Error writing status file", "error", werr)
		}
	}

	if eerr := backend.EndSession(); eerr != nil {
		runErr = errors.Join(runErr, fmt.Errorf("ending session: %w", eerr))
	}
	ended := time.Now()
	if closed, eerr := sess.End(); eerr != nil {
		runErr = errors.Join(runErr, eerr)
	} else {
		ended = closed.EndedAt
	}

	st := w.Stats()
	log.Info("Session ended", "session", s.ID, "accepted", st.Accepted, "rejected", st.Rejected)
	fmt.Fprintf(out, "session %s: %d accepted, %d rejected, %d actions\n", s.ID, st.Accepted, st.Rejected, st.Actions)
	if exp, ok := backend.(storage.Exportable); ok && exp.ExportedFilePath() != "" {
		fmt.Fprintf(out, "export: %s\n", exp.ExportedFilePath())
		if ucfg := config.GetUploadConfig(); ucfg.Enabled {
			err := uploadExport(ctx, ucfg, exp.ExportedFilePath(), api.SessionUpload{
				SessionID: s.ID,
				Codec:     s.Codec,
				StartedAt: s.StartedAt,
				EndedAt:   ended,
				Accepted:  st.Accepted,
				Rejected:  st.Rejected,
			})
			if err != nil {
				log.Error("Upload failed", "path", exp.ExportedFilePath(), "error", err)
				fmt.Fprintf(out, "upload failed: %v\n", err)
			} else {
				fmt.Fprintf(out, "uploaded to %s\n", ucfg.URL)
			}
		}
	}
	if a.logPath != "" {
		fmt.Fprintf(out, "log: %s\n", a.logPath)
	}
	return runErr
}

func uploadExport(ctx context.Context, cfg config.UploadConfig, path string, meta api.SessionUpload) error {
	c := api.New(cfg.URL, cfg.APIKey)
	if err := c.Healthcheck(ctx); err != nil {
		return err
	}
	return c.Upload(ctx, path, meta)
}

// georeference returns nil when no anchor is configured.
func georeference() (*geo.Georeference, error) {
	g := config.GetGeoreferenceConfig()
	if !g.Enabled {
		return nil, nil
	}
	return geo.NewGeoreference(g.Longitude, g.Latitude)
}

// participantDirs returns the participant ids of the numeric
// subdirectories of dir.
func participantDirs(dir string) ([]osi.Identifier, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var ids []osi.Identifier
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if id, err := strconv.ParseUint(e.Name(), 10, 64); err == nil {
			ids = append(ids, osi.Identifier(id))
		}
	}
	return ids, nil
}

func (s *server) run(ctx context.Context, watch time.Duration) error {
	for {
		if err := s.scan(); err != nil {
			return err
		}
		if watch <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(watch):
		}
	}
}

// scan dispatches every file not seen before. Files of a participant
// directory go to its channel, top level files to the fallback.
func (s *server) scan() error {
	files, err := payloadFiles(s.dir)
	if err != nil {
		return err
	}
	for _, f := range files {
		if s.seen[f.path] {
			continue
		}
		s.seen[f.path] = true

		data, err := os.ReadFile(f.path)
		if err != nil {
			s.log.Error("Error reading payload", "path", f.path, "error", err)
			continue
		}
		_, err = s.dispatcher.Dispatch(dispatcher.Event{
			Channel:  f.channel,
			Source:   f.path,
			Payload:  data,
			Received: time.Now(),
		})
		var rejected *worker.RejectedError
		if err != nil && !errors.As(err, &rejected) {
			return fmt.Errorf("dispatching %s: %w", f.path, err)
		}
	}
	return nil
}

type payloadFile struct {
	path    string
	channel string
}

// payloadFiles lists dir and its participant subdirectories in name order.
// Hidden files are skipped.
func payloadFiles(dir string) ([]payloadFile, error) {
	var files []payloadFile
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		switch len(parts) {
		case 1:
			files = append(files, payloadFile{path: path})
		case 2:
			id, perr := strconv.ParseUint(parts[0], 10, 64)
			if perr != nil {
				return nil
			}
			files = append(files, payloadFile{path: path, channel: worker.Channel(osi.Identifier(id))})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, nil
}
