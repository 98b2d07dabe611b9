package eventconsumers

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jiaming2012/tradebox/src/eventmodels"
	"github.com/jiaming2012/tradebox/src/eventpubsub"
)

// MetricsConsumer counts executions, placed limit orders and emergency fills.
type MetricsConsumer struct {
	executions     metric.Int64Counter
	attempts       metric.Int64Counter
	emergencyFills metric.Int64Counter
}

func NewMetricsConsumer(meter metric.Meter) (*MetricsConsumer, error) {
	executions, err := meter.Int64Counter("tradebox.executions", metric.WithDescription("Finished order executions by outcome"))
	if err != nil {
		return nil, fmt.Errorf("NewMetricsConsumer: failed to create executions counter: %w", err)
	}

	attempts, err := meter.Int64Counter("tradebox.order_attempts", metric.WithDescription("Limit orders placed by the reconciliation loop"))
	if err != nil {
		return nil, fmt.Errorf("NewMetricsConsumer: failed to create attempts counter: %w", err)
	}

	emergencyFills, err := meter.Int64Counter("tradebox.emergency_fills", metric.WithDescription("Emergency fill orders placed"))
	if err != nil {
		return nil, fmt.Errorf("NewMetricsConsumer: failed to create emergency fills counter: %w", err)
	}

	return &MetricsConsumer{
		executions:     executions,
		attempts:       attempts,
		emergencyFills: emergencyFills,
	}, nil
}

func (c *MetricsConsumer) Start(bus *eventpubsub.Bus) error {
	if err := bus.Subscribe("MetricsConsumer", eventmodels.OrderAttemptTopic, c.orderAttemptHandler, false); err != nil {
		return fmt.Errorf("MetricsConsumer.Start: %w", err)
	}

	if err := bus.Subscribe("MetricsConsumer", eventmodels.EmergencyFillTopic, c.emergencyFillHandler, false); err != nil {
		return fmt.Errorf("MetricsConsumer.Start: %w", err)
	}

	if err := bus.Subscribe("MetricsConsumer", eventmodels.ExecutionCompletedTopic, c.executionCompletedHandler, false); err != nil {
		return fmt.Errorf("MetricsConsumer.Start: %w", err)
	}

	return nil
}

func (c *MetricsConsumer) orderAttemptHandler(ev eventmodels.OrderAttemptEvent) {
	c.attempts.Add(context.Background(), 1, metric.WithAttributes(attribute.String("side", string(ev.Side))))
}

func (c *MetricsConsumer) emergencyFillHandler(ev eventmodels.EmergencyFillEvent) {
	c.emergencyFills.Add(context.Background(), 1, metric.WithAttributes(attribute.String("side", string(ev.Fill.Side))))
}

func (c *MetricsConsumer) executionCompletedHandler(ev eventmodels.ExecutionCompletedEvent) {
	c.executions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", string(ev.Report.Outcome))))
}
