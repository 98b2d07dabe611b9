package eventconsumers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jiaming2012/tradebox/src/eventmodels"
	"github.com/jiaming2012/tradebox/src/eventpubsub"
)

func publishExecution(bus *eventpubsub.Bus, executionID uuid.UUID) {
	bus.Publish(eventmodels.ExecutionStartedTopic, eventmodels.ExecutionStartedEvent{
		ExecutionID: executionID, OrderID: 7, Side: eventmodels.OrderSideBuy, Descriptor: "SPYcall2024-06-21450", Goal: 1,
	})

	for attempt := 1; attempt <= 2; attempt++ {
		bus.Publish(eventmodels.OrderAttemptTopic, eventmodels.OrderAttemptEvent{
			ExecutionID: executionID, OrderID: 7, Attempt: attempt, Side: eventmodels.OrderSideBuy,
			Quantity: 1, Price: decimal.RequireFromString("1.10"), BrokerOrderID: "1000",
		})
	}

	bus.Publish(eventmodels.EmergencyFillTopic, eventmodels.EmergencyFillEvent{
		ExecutionID: executionID, OrderID: 7,
		Fill: eventmodels.EmergencyFill{Side: eventmodels.OrderSideBuy, Quantity: 1, Price: decimal.RequireFromString("1.60")},
	})

	report := eventmodels.NewPendingExecutionReport(executionID, 7, testTime)
	report.Complete(eventmodels.ExecutionOutcomeCompleted, testTime)
	bus.Publish(eventmodels.ExecutionCompletedTopic, eventmodels.ExecutionCompletedEvent{Report: *report})

	bus.WaitAsync()
}

func TestAuditConsumer(t *testing.T) {
	logger, hook := test.NewNullLogger()
	bus := eventpubsub.New()
	require.NoError(t, NewAuditConsumer(logger).Start(bus))

	executionID := uuid.New()
	publishExecution(bus, executionID)

	entries := hook.AllEntries()
	require.Len(t, entries, 5)

	for _, e := range entries {
		assert.Equal(t, executionID.String(), e.Data["execution_id"])
		assert.Equal(t, uint(7), e.Data["order_id"])
	}

	var emergency *logrus.Entry
	for _, e := range entries {
		if e.Data["audit"] == eventmodels.EmergencyFillTopic {
			emergency = e
		}
	}

	require.NotNil(t, emergency)
	assert.Equal(t, logrus.WarnLevel, emergency.Level)
	assert.Equal(t, "1.60", emergency.Data["price"])
}

func TestMetricsConsumer(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	consumer, err := NewMetricsConsumer(provider.Meter("test"))
	require.NoError(t, err)

	bus := eventpubsub.New()
	require.NoError(t, consumer.Start(bus))

	publishExecution(bus, uuid.New())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, m.Name)
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}

	assert.Equal(t, int64(1), totals["tradebox.executions"])
	assert.Equal(t, int64(2), totals["tradebox.order_attempts"])
	assert.Equal(t, int64(1), totals["tradebox.emergency_fills"])
}

var testTime = time.Date(2024, 6, 21, 9, 30, 0, 0, time.UTC)
