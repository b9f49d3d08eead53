package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/codec/jsoncodec"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/model/core"
)

// SessionExport is the root JSON structure
type SessionExport struct {
	Session    core.Session    `json:"session"`
	EndedAt    time.Time       `json:"endedAt"`
	Summary    Summary         `json:"summary"`
	Commands   []CommandJSON   `json:"commands"`
	Rejections []RejectionJSON `json:"rejections"`
}

// Summary counts what happened in the session.
type Summary struct {
	Accepted int            `json:"accepted"`
	Rejected int            `json:"rejected"`
	Actions  int            `json:"actions"`
	ByStage  map[string]int `json:"byStage"`
	ByKind   map[string]int `json:"byKind"`
}

// CommandJSON is an accepted command; Command is the same document the
// json codec produces.
type CommandJSON struct {
	ReceivedAt time.Time       `json:"receivedAt"`
	Source     string          `json:"source,omitempty"`
	Codec      string          `json:"codec"`
	Command    json.RawMessage `json:"command"`
}

// RejectionJSON is a rejected payload. Payload is base64 encoded.
type RejectionJSON struct {
	ReceivedAt           time.Time     `json:"receivedAt"`
	Source               string        `json:"source,omitempty"`
	Codec                string        `json:"codec"`
	Stage                core.Stage    `json:"stage"`
	TrafficParticipantID *uint64       `json:"trafficParticipantId,omitempty,string"`
	Reasons              []core.Reason `json:"reasons"`
	Payload              []byte        `json:"payload,omitempty"`
}

// exportJSON must be called with b.mu held.
func (b *Backend) exportJSON() error {
	export, err := b.buildExport(time.Now().UTC())
	if err != nil {
		return err
	}

	name := strings.NewReplacer(" ", "_", ":", "_", "/", "_").Replace(b.session.ID)
	stamp := b.session.StartedAt.Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.json", name, stamp)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport(endedAt time.Time) (SessionExport, error) {
	export := SessionExport{
		Session:    *b.session,
		EndedAt:    endedAt,
		Commands:   make([]CommandJSON, 0, len(b.commands)),
		Rejections: make([]RejectionJSON, 0, len(b.rejections)),
		Summary: Summary{
			Accepted: len(b.commands),
			Rejected: len(b.rejections),
			ByStage:  make(map[string]int),
			ByKind:   make(map[string]int),
		},
	}

	codec := jsoncodec.New()
	for _, rec := range b.commands {
		doc, err := codec.Encode(rec.Command)
		if err != nil {
			return SessionExport{}, fmt.Errorf("failed to encode command from %s: %w", rec.Source, err)
		}
		export.Commands = append(export.Commands, CommandJSON{
			ReceivedAt: rec.ReceivedAt,
			Source:     rec.Source,
			Codec:      rec.Codec,
			Command:    doc,
		})
		export.Summary.Actions += rec.Command.NumActions()
	}

	for _, r := range b.rejections {
		rj := RejectionJSON{
			ReceivedAt: r.ReceivedAt,
			Source:     r.Source,
			Codec:      r.Codec,
			Stage:      r.Stage,
			Reasons:    r.Reasons,
			Payload:    r.Payload,
		}
		if r.TrafficParticipantID != nil {
			id := uint64(*r.TrafficParticipantID)
			rj.TrafficParticipantID = &id
		}
		export.Rejections = append(export.Rejections, rj)

		export.Summary.ByStage[string(r.Stage)]++
		for _, reason := range r.Reasons {
			export.Summary.ByKind[reason.Kind]++
		}
	}

	return export, nil
}

func writeJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(data); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}
