package traffic

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/lixenwraith/vi-traffic/event"
)

const instrumentationName = "github.com/lixenwraith/vi-traffic/traffic"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// metrics holds the simulation instruments
// Uses the global OTel meter, no-op unless a provider is installed
type metrics struct {
	steps        metric.Int64Counter
	despawns     metric.Int64Counter
	blinkChanges metric.Int64Counter
	speed        metric.Float64Histogram
	live         metric.Int64ObservableGauge
	liveReg      metric.Registration
}

func newMetrics(s *Sim) (*metrics, error) {
	m := meter()
	var (
		out metrics
		err error
	)

	out.steps, err = m.Int64Counter(
		"traffic.steps",
		metric.WithDescription("Simulation steps executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating steps counter: %w", err)
	}

	out.despawns, err = m.Int64Counter(
		"traffic.despawns",
		metric.WithDescription("Vehicles removed from the simulation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating despawns counter: %w", err)
	}

	out.blinkChanges, err = m.Int64Counter(
		"traffic.blink_changes",
		metric.WithDescription("Blinker mode transitions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating blink changes counter: %w", err)
	}

	out.speed, err = m.Float64Histogram(
		"traffic.speed",
		metric.WithDescription("Vehicle speed per step"),
		metric.WithUnit("m/s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating speed histogram: %w", err)
	}

	out.live, err = m.Int64ObservableGauge(
		"traffic.vehicles.live",
		metric.WithDescription("Vehicles currently simulated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating live gauge: %w", err)
	}

	out.liveReg, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			for route, n := range s.LiveByRoute() {
				o.ObserveInt64(out.live, int64(n), metric.WithAttributes(attribute.String("route", route)))
			}
			return nil
		},
		out.live,
	)
	if err != nil {
		return nil, fmt.Errorf("registering live callback: %w", err)
	}

	return &out, nil
}

// close unregisters the live gauge callback, later calls are no-ops
func (m *metrics) close() error {
	if m.liveReg == nil {
		return nil
	}
	err := m.liveReg.Unregister()
	m.liveReg = nil
	if err != nil {
		return fmt.Errorf("unregistering live callback: %w", err)
	}
	return nil
}

// EventTypes implements event.Handler
func (m *metrics) EventTypes() []event.EventType {
	return []event.EventType{event.EventVehicleDespawned, event.EventBlinkerChanged}
}

// HandleEvent implements event.Handler
func (m *metrics) HandleEvent(ev event.SimEvent) {
	ctx := context.Background()
	switch p := ev.Payload.(type) {
	case *event.VehicleDespawnedPayload:
		m.despawns.Add(ctx, 1, metric.WithAttributes(attribute.String("route", p.Route)))
	case *event.BlinkerChangedPayload:
		m.blinkChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", p.To.String())))
	}
}
