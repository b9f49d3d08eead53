package influx

import (
	"strconv"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/model/core"
)

// CommandPoint tags an accepted command by session and participant and
// counts its actions per kind.
func CommandPoint(r *core.CommandRecord) *influxdb2_write.Point {
	vc := r.Command
	p := influxdb2_write.NewPointWithMeasurement(MeasurementCommand).
		AddTag("session", r.SessionID).
		AddTag("codec", r.Codec).
		AddTag("participant", strconv.FormatUint(uint64(vc.TrafficParticipantID()), 10)).
		AddField("actions", vc.NumActions()).
		AddField("sim_time", vc.Timestamp().Duration().Seconds()).
		SetTime(receivedAt(r.ReceivedAt))

	counts := make(map[string]int)
	for _, a := range vc.Actions() {
		counts[a.Kind().String()]++
	}
	for kind, n := range counts {
		p.AddField(kind, n)
	}
	return p
}

// RejectionPoint tags a rejection by stage and counts its reasons.
func RejectionPoint(r *core.Rejection) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementRejection).
		AddTag("session", r.SessionID).
		AddTag("codec", r.Codec).
		AddTag("stage", string(r.Stage)).
		AddField("reasons", len(r.Reasons)).
		SetTime(receivedAt(r.ReceivedAt))

	if r.TrafficParticipantID != nil {
		p.AddTag("participant", strconv.FormatUint(uint64(*r.TrafficParticipantID), 10))
	}
	if len(r.Reasons) > 0 {
		p.AddTag("first_kind", r.Reasons[0].Kind)
	}
	return p
}

func receivedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
