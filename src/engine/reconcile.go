package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/tradebox/src/brokerage"
	"github.com/jiaming2012/tradebox/src/eventmodels"
	"github.com/jiaming2012/tradebox/src/utils"
)

// sideRules holds what differs between the buy and sell loops.
type sideRules struct {
	side      eventmodels.OrderSide
	effect    eventmodels.PositionEffect
	tradeType eventmodels.TradeType
	goal      func(current, quantity int) int
	limitPx   func(q *eventmodels.Quote) float64
}

var buyRules = sideRules{
	side:      eventmodels.OrderSideBuy,
	effect:    eventmodels.PositionEffectOpen,
	tradeType: eventmodels.TradeTypeDebit,
	goal:      func(current, quantity int) int { return current + quantity },
	limitPx:   func(q *eventmodels.Quote) float64 { return q.Ask },
}

var sellRules = sideRules{
	side:      eventmodels.OrderSideSell,
	effect:    eventmodels.PositionEffectClose,
	tradeType: eventmodels.TradeTypeCredit,
	goal: func(current, quantity int) int {
		// never short: selling more than held closes the position
		if goal := current - quantity; goal > 0 {
			return goal
		}
		return 0
	},
	limitPx: func(q *eventmodels.Quote) float64 { return q.Bid },
}

func rulesFor(order *eventmodels.Order) sideRules {
	if order.Side == eventmodels.OrderSideSell {
		return sellRules
	}

	return buyRules
}

// run drives the position toward the goal, then runs the emergency fill and
// the cleanup pass. Cleanup runs even when the loop fails.
func (e *Engine) run(ctx context.Context, order *eventmodels.Order, report *eventmodels.ExecutionReport) error {
	rules := rulesFor(order)
	progress := &eventmodels.TradeProgress{}

	defer func() {
		report.Attempts = progress.Attempts
		report.BrokerOrderIDs = append([]string{}, progress.BrokerOrderIDs...)
	}()

	var emergencyID string
	defer func() {
		ids := progress.BrokerOrderIDs
		if emergencyID != "" {
			ids = append(append([]string{}, ids...), emergencyID)
		}
		e.cleanup(ctx, ids)
	}()

	if err := e.reconcile(ctx, order, rules, progress, report); err != nil {
		return err
	}

	if !order.EmergencyFillOnFailure {
		return nil
	}

	gap := progress.Remaining(rules.side)
	if gap <= 0 {
		return nil
	}

	fill, err := e.emergencyFill(ctx, order, rules, gap, report)
	if fill != nil {
		emergencyID = fill.BrokerOrderID
	}

	return err
}

func (e *Engine) reconcile(ctx context.Context, order *eventmodels.Order, rules sideRules, progress *eventmodels.TradeProgress, report *eventmodels.ExecutionReport) error {
	logger := log.WithContext(ctx).WithField("order_id", order.ID)
	instrumentID := order.Instrument.ID

	current, err := e.readPosition(ctx, instrumentID)
	if err != nil {
		return fmt.Errorf("reconcile: failed to read opening position: %w", err)
	}

	progress.Opening = current
	progress.Current = current
	progress.Goal = rules.goal(current, order.Quantity)

	report.Opening = progress.Opening
	report.Goal = progress.Goal
	report.Closing = current

	e.publish(eventmodels.ExecutionStartedTopic, eventmodels.ExecutionStartedEvent{
		ExecutionID: report.ExecutionID,
		OrderID:     order.ID,
		Side:        rules.side,
		Descriptor:  order.Descriptor(),
		Opening:     progress.Opening,
		Goal:        progress.Goal,
	})

	logger.Infof("reconcile: %s %s opening %d goal %d max attempts %d", rules.side, order.Descriptor(), progress.Opening, progress.Goal, order.MaxOrderAttempts)

	for progress.Remaining(rules.side) > 0 && progress.Attempts < order.MaxOrderAttempts {
		remaining := progress.Remaining(rules.side)

		quote, err := e.gateway.GetQuote(ctx, instrumentID)
		if err != nil {
			return fmt.Errorf("reconcile: failed to get quote: %w", err)
		}

		price := LimitPrice(rules.limitPx(quote))
		tag := utils.EncodeTag(order.ID, strconv.Itoa(progress.Attempts+1))
		req := eventmodels.NewLimitOrderRequest(order, rules.side, rules.effect, rules.tradeType, price, remaining, tag)

		brokerOrderID, err := e.gateway.PlaceLimitOrder(ctx, req)
		if err != nil {
			return fmt.Errorf("reconcile: failed to place attempt %d: %w", progress.Attempts+1, err)
		}

		progress.RecordPlacement(brokerOrderID)
		e.publishAttempt(report, order, rules.side, progress.Attempts, remaining, price, brokerOrderID)
		logger.Infof("reconcile: attempt %d: %s %d @ %s (bid %.2f ask %.2f) broker order %s", progress.Attempts, rules.side, remaining, price.StringFixed(2), quote.Bid, quote.Ask, brokerOrderID)

		e.pause(ctx, e.cfg.Delays.FillWait)
		e.cancel(ctx, brokerOrderID)
		e.pause(ctx, e.cfg.Delays.SettleWait)

		current, err := e.readPosition(ctx, instrumentID)
		if err != nil {
			return fmt.Errorf("reconcile: failed to read position after attempt %d: %w", progress.Attempts, err)
		}

		progress.Current = current
		report.Closing = current
		logger.Debugf("reconcile: position after attempt %d: %d", progress.Attempts, current)
	}

	e.pause(ctx, e.cfg.Delays.FinalSettleWait)

	closing, err := e.readPosition(ctx, instrumentID)
	if err != nil {
		return fmt.Errorf("reconcile: failed to read closing position: %w", err)
	}

	progress.Current = closing
	report.Closing = closing

	logger.Infof("reconcile: opening %d goal %d closing %d after %d attempts", progress.Opening, progress.Goal, closing, progress.Attempts)
	return nil
}

// readPosition returns the held quantity, 0 when no position is reported.
func (e *Engine) readPosition(ctx context.Context, instrumentID string) (int, error) {
	positions, err := e.gateway.GetOpenPositions(ctx)
	if err != nil {
		return 0, err
	}

	return brokerage.FindPosition(positions, instrumentID), nil
}

// cancel is best effort: the order may already be filled or gone, and the
// cleanup pass cancels it again.
func (e *Engine) cancel(ctx context.Context, brokerOrderID string) {
	if err := e.gateway.CancelOrder(ctx, brokerOrderID); err != nil {
		log.WithContext(ctx).Warnf("cancel: failed to cancel broker order %s: %v", brokerOrderID, err)
	}
}

func (e *Engine) pause(ctx context.Context, d time.Duration) {
	if err := e.sleep(ctx, d); err != nil {
		log.WithContext(ctx).Debugf("pause: interrupted: %v", err)
	}
}

func (e *Engine) publishAttempt(report *eventmodels.ExecutionReport, order *eventmodels.Order, side eventmodels.OrderSide, attempt, quantity int, price decimal.Decimal, brokerOrderID string) {
	e.publish(eventmodels.OrderAttemptTopic, eventmodels.OrderAttemptEvent{
		ExecutionID:   report.ExecutionID,
		OrderID:       order.ID,
		Attempt:       attempt,
		Side:          side,
		Quantity:      quantity,
		Price:         price,
		BrokerOrderID: brokerOrderID,
	})
}
