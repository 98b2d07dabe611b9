package eventconsumers

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jiaming2012/tradebox/src/eventmodels"
	"github.com/jiaming2012/tradebox/src/eventpubsub"
)

// AuditConsumer writes every execution lifecycle event as a structured log
// entry. With the daily file hook installed these entries form the audit
// trail of each execution.
type AuditConsumer struct {
	logger *logrus.Logger
}

func NewAuditConsumer(logger *logrus.Logger) *AuditConsumer {
	return &AuditConsumer{logger: logger}
}

func (c *AuditConsumer) Start(bus *eventpubsub.Bus) error {
	subscriptions := map[string]interface{}{
		eventmodels.ExecutionStartedTopic:   c.executionStartedHandler,
		eventmodels.OrderAttemptTopic:       c.orderAttemptHandler,
		eventmodels.EmergencyFillTopic:      c.emergencyFillHandler,
		eventmodels.ExecutionCompletedTopic: c.executionCompletedHandler,
	}

	for topic, fn := range subscriptions {
		if err := bus.Subscribe("AuditConsumer", topic, fn, true); err != nil {
			return fmt.Errorf("AuditConsumer.Start: %w", err)
		}
	}

	return nil
}

func (c *AuditConsumer) entry(topic string, executionID fmt.Stringer, orderID uint) *logrus.Entry {
	return c.logger.WithFields(logrus.Fields{
		"audit":        topic,
		"execution_id": executionID.String(),
		"order_id":     orderID,
	})
}

func (c *AuditConsumer) executionStartedHandler(ev eventmodels.ExecutionStartedEvent) {
	c.entry(eventmodels.ExecutionStartedTopic, ev.ExecutionID, ev.OrderID).
		WithFields(logrus.Fields{"side": ev.Side, "instrument": ev.Descriptor, "opening": ev.Opening, "goal": ev.Goal}).
		Info("execution started")
}

func (c *AuditConsumer) orderAttemptHandler(ev eventmodels.OrderAttemptEvent) {
	c.entry(eventmodels.OrderAttemptTopic, ev.ExecutionID, ev.OrderID).
		WithFields(logrus.Fields{
			"attempt":         ev.Attempt,
			"side":            ev.Side,
			"quantity":        ev.Quantity,
			"price":           ev.Price.StringFixed(2),
			"broker_order_id": ev.BrokerOrderID,
		}).
		Info("limit order placed")
}

func (c *AuditConsumer) emergencyFillHandler(ev eventmodels.EmergencyFillEvent) {
	c.entry(eventmodels.EmergencyFillTopic, ev.ExecutionID, ev.OrderID).
		WithFields(logrus.Fields{
			"side":            ev.Fill.Side,
			"quantity":        ev.Fill.Quantity,
			"reference_price": ev.Fill.ReferencePx,
			"price":           ev.Fill.Price.StringFixed(2),
			"broker_order_id": ev.Fill.BrokerOrderID,
			"quantity_after":  ev.Fill.QuantityAfter,
		}).
		Warn("emergency fill")
}

func (c *AuditConsumer) executionCompletedHandler(ev eventmodels.ExecutionCompletedEvent) {
	r := ev.Report
	entry := c.entry(eventmodels.ExecutionCompletedTopic, r.ExecutionID, r.OrderID).
		WithFields(logrus.Fields{
			"outcome":  r.Outcome,
			"opening":  r.Opening,
			"goal":     r.Goal,
			"closing":  r.Closing,
			"attempts": r.Attempts,
		})

	if r.Outcome == eventmodels.ExecutionOutcomeFailed {
		entry.WithField("error", r.Error).Error("execution failed")
		return
	}

	entry.Info("execution completed")
}
