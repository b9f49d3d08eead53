package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/IqraJilani-aai/open-simulation-interface/internal/dispatcher"

type instruments struct {
	depth     metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter
}

// newInstruments registers the dispatcher metrics on the global meter.
// depths is polled on every collection.
func newInstruments(depths func(func(channel string, n int))) (*instruments, error) {
	m := otel.Meter(instrumentationName)
	ins := &instruments{}

	var err error
	if ins.depth, err = m.Int64ObservableGauge("dispatcher.queue.size",
		metric.WithDescription("Current number of commands waiting per channel")); err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	if _, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		depths(func(channel string, n int) {
			o.ObserveInt64(ins.depth, int64(n), channelAttr(channel))
		})
		return nil
	}, ins.depth); err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}
	if ins.processed, err = m.Int64Counter("dispatcher.commands.processed",
		metric.WithDescription("Total commands handled by buffered channels")); err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	if ins.dropped, err = m.Int64Counter("dispatcher.commands.dropped",
		metric.WithDescription("Total commands dropped due to full queue")); err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	return ins, nil
}

func channelAttr(channel string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("channel", channel))
}
