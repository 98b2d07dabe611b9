package eventmodels

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LimitOrderRequest is a single limit order submitted to the brokerage.
type LimitOrderRequest struct {
	Direction   OrderSide
	Effect      PositionEffect
	TradeType   TradeType
	Price       decimal.Decimal
	Instrument  InstrumentMeta
	Symbol      string
	Quantity    int
	Expiration  string
	Strike      float64
	OptionType  OptionType
	TimeInForce TradeDuration
	Tag         string
}

func NewLimitOrderRequest(order *Order, direction OrderSide, effect PositionEffect, tradeType TradeType, price decimal.Decimal, quantity int, tag string) LimitOrderRequest {
	return LimitOrderRequest{
		Direction:   direction,
		Effect:      effect,
		TradeType:   tradeType,
		Price:       price,
		Instrument:  order.Instrument,
		Symbol:      order.Symbol,
		Quantity:    quantity,
		Expiration:  order.Expiration,
		Strike:      order.Strike,
		OptionType:  order.OptionType,
		TimeInForce: TradeDurationGoodTillCancelled,
		Tag:         tag,
	}
}

func (r LimitOrderRequest) Validate() error {
	if err := r.Direction.Validate(); err != nil {
		return err
	}

	if r.Effect != PositionEffectOpen && r.Effect != PositionEffectClose {
		return fmt.Errorf("invalid position effect: %s", r.Effect)
	}

	if r.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive: %d", r.Quantity)
	}

	if !r.Price.IsPositive() {
		return fmt.Errorf("price must be positive: %s", r.Price)
	}

	if r.Instrument.ID == "" {
		return fmt.Errorf("instrument id is required")
	}

	return nil
}
