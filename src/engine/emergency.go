package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/tradebox/src/eventmodels"
	"github.com/jiaming2012/tradebox/src/utils"
)

// emergencyFill closes the residual gap with one aggressively priced order,
// cancels it after a fixed wait and records the position that results.
func (e *Engine) emergencyFill(ctx context.Context, order *eventmodels.Order, rules sideRules, quantity int, report *eventmodels.ExecutionReport) (*eventmodels.EmergencyFill, error) {
	logger := log.WithContext(ctx).WithField("order_id", order.ID)
	instrumentID := order.Instrument.ID

	quote, err := e.gateway.GetQuote(ctx, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("emergencyFill: failed to get quote: %w", err)
	}

	var price decimal.Decimal
	var reference float64
	var tradeType eventmodels.TradeType
	wait := e.cfg.Delays.EmergencyBuyWait

	if rules.side == eventmodels.OrderSideSell {
		reference = quote.Bid
		price = EmergencySellPrice(quote.Bid)
		tradeType = eventmodels.TradeTypeCredit
		wait = e.cfg.Delays.EmergencySellWait
	} else {
		reference = quote.Ask
		price = EmergencyBuyPrice(quote.Ask)
		tradeType = eventmodels.TradeTypeDebit
	}

	fill := &eventmodels.EmergencyFill{
		Side:        rules.side,
		Quantity:    quantity,
		ReferencePx: reference,
		Price:       price,
	}
	report.Emergency = fill

	logger.Warnf("emergencyFill: %s %d %s @ %s (reference %.2f)", rules.side, quantity, order.Descriptor(), price.StringFixed(2), reference)

	req := eventmodels.NewLimitOrderRequest(order, rules.side, eventmodels.PositionEffectClose, tradeType, price, quantity, utils.EncodeTag(order.ID, "e"))

	brokerOrderID, err := e.gateway.PlaceLimitOrder(ctx, req)
	if err != nil {
		fill.QuantityAfter = report.Closing
		return fill, fmt.Errorf("emergencyFill: failed to place order: %w", err)
	}

	fill.BrokerOrderID = brokerOrderID

	e.pause(ctx, wait)
	e.cancel(ctx, brokerOrderID)
	e.pause(ctx, e.cfg.Delays.EmergencySettleWait)

	after, err := e.readPosition(ctx, instrumentID)
	if err != nil {
		fill.QuantityAfter = report.Closing
		return fill, fmt.Errorf("emergencyFill: failed to read position: %w", err)
	}

	fill.QuantityAfter = after

	e.publish(eventmodels.EmergencyFillTopic, eventmodels.EmergencyFillEvent{
		ExecutionID: report.ExecutionID,
		OrderID:     order.ID,
		Fill:        *fill,
	})

	logger.Infof("emergencyFill: quantity after emergency %s: %d", rules.side, after)
	return fill, nil
}
