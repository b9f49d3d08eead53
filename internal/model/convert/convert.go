// Package convert turns storage records into gorm rows.
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/codec/jsoncodec"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/geo"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/model"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/model/core"
)

var payloadCodec = jsoncodec.New()

// SessionToModel converts a session record.
func SessionToModel(s core.Session) model.Session {
	return model.Session{
		ID:         s.ID,
		StartedAt:  s.StartedAt,
		Codec:      s.Codec,
		Uniqueness: s.Uniqueness,
		VersionMin: s.VersionMin,
		VersionMax: s.VersionMax,
	}
}

// CommandToModel converts an accepted command and its actions. georef may
// be nil.
func CommandToModel(rec core.CommandRecord, georef *geo.Georeference) (model.Command, error) {
	if rec.Command == nil {
		return model.Command{}, fmt.Errorf("command record without command")
	}
	cmd := rec.Command.Command()

	payload, err := payloadCodec.MarshalRaw(cmd.Raw())
	if err != nil {
		return model.Command{}, fmt.Errorf("failed to encode payload: %w", err)
	}

	participant := model.ToDBID(rec.Command.TrafficParticipantID())
	ts := rec.Command.Timestamp()

	row := model.Command{
		SessionID:            rec.SessionID,
		ReceivedAt:           rec.ReceivedAt,
		Source:               rec.Source,
		Codec:                rec.Codec,
		TrafficParticipantID: participant,
		TimestampSeconds:     ts.Seconds,
		TimestampNanos:       ts.Nanos,
		ActionCount:          len(cmd.Actions),
		Payload:              datatypes.JSON(payload),
	}
	if cmd.Version != nil {
		row.Version = cmd.Version.String()
	}

	for i, a := range cmd.Actions {
		detail, err := jsoncodec.MarshalAction(a)
		if err != nil {
			return model.Command{}, fmt.Errorf("failed to encode action[%d]: %w", i, err)
		}
		action := model.Action{
			Index:                i,
			TrafficParticipantID: participant,
			Kind:                 a.Kind().String(),
			Detail:               datatypes.JSON(detail),
		}
		if id := a.Action().ActionHeader().ActionID; id != nil {
			action.ActionID = model.ToDBID(*id)
		}
		if g, ok := geo.ActionGeometry(a); ok {
			action.Geometry = geo.WKB(g)
			action.HorizontalLength = geo.HorizontalLength(g)
		}
		if georef != nil {
			if target, ok := geo.Target(a); ok {
				lon, lat, _ := georef.ToWGS84(target)
				action.TargetLongitude = sql.NullFloat64{Float64: lon, Valid: true}
				action.TargetLatitude = sql.NullFloat64{Float64: lat, Valid: true}
			}
		}
		row.Actions = append(row.Actions, action)
	}

	return row, nil
}

// RejectionToModel converts a rejected payload.
func RejectionToModel(r core.Rejection) model.Rejection {
	row := model.Rejection{
		SessionID:  r.SessionID,
		ReceivedAt: r.ReceivedAt,
		Source:     r.Source,
		Codec:      r.Codec,
		Stage:      string(r.Stage),
		Reasons:    reasonsToJSON(r.Reasons),
		Payload:    r.Payload,
	}
	if r.TrafficParticipantID != nil {
		row.TrafficParticipantID = sql.NullInt64{Int64: model.ToDBID(*r.TrafficParticipantID), Valid: true}
	}
	return row
}

func reasonsToJSON(reasons []core.Reason) datatypes.JSON {
	if len(reasons) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(reasons)
	return datatypes.JSON(data)
}
