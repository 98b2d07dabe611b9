package engine

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/tradebox/src/eventmodels"
)

// cleanup cancels every order placed during the run, pausing between
// cancellations.
func (e *Engine) cleanup(ctx context.Context, brokerOrderIDs []string) {
	log.WithContext(ctx).Infof("cleanup: cancelling %d orders", len(brokerOrderIDs))

	for i, id := range brokerOrderIDs {
		if i > 0 {
			e.pause(ctx, e.cfg.Delays.CleanupInterval)
		}

		e.cancel(ctx, id)
	}
}

// summarize builds the compact report sent through the notifier, e.g.
//
//	Exd#12SPYcall2024-06-21450Cur1St0Gl1 Eq1
func summarize(order *eventmodels.Order, report *eventmodels.ExecutionReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Exd#%d%sCur%dSt%dGl%d", order.ID, order.Descriptor(), report.Closing, report.Opening, report.Goal)

	if f := report.Emergency; f != nil && f.BrokerOrderID != "" {
		if f.Side == eventmodels.OrderSideSell {
			fmt.Fprintf(&b, " ESq%d", f.QuantityAfter)
		} else {
			fmt.Fprintf(&b, " Eq%d", f.QuantityAfter)
		}
	}

	if report.Outcome == eventmodels.ExecutionOutcomeFailed {
		fmt.Fprintf(&b, "\nfailed: %s", report.Error)
	}

	msg := order.MessageOnFailure
	if report.Outcome == eventmodels.ExecutionOutcomeCompleted && report.GoalReached() {
		msg = order.MessageOnSuccess
	}

	if msg != "" {
		b.WriteString("\n")
		b.WriteString(msg)
	}

	return b.String()
}
