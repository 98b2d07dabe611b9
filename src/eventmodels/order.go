package eventmodels

import (
	"fmt"
	"strconv"
	"time"
)

// Order is a persisted order intent: a desired trade plus the policy used to
// execute it.
type Order struct {
	ID                     uint           `json:"id"`
	Side                   OrderSide      `json:"side"`
	Symbol                 string         `json:"symbol"`
	OptionType             OptionType     `json:"option_type"`
	Strike                 float64        `json:"strike"`
	Expiration             string         `json:"expiration"`
	Quantity               int            `json:"quantity"`
	Style                  OrderStyle     `json:"style"`
	LimitPrice             float64        `json:"limit_price"`
	Active                 bool           `json:"active"`
	Executed               bool           `json:"executed"`
	EmergencyFillOnFailure bool           `json:"emergency_fill_on_failure"`
	MaxOrderAttempts       int            `json:"max_order_attempts"`
	ExecuteOnlyAfterID     *uint          `json:"execute_only_after_id,omitempty"`
	DeactivatesOrderID     *uint          `json:"deactivates_order_id,omitempty"`
	MessageOnSuccess       string         `json:"message_on_success,omitempty"`
	MessageOnFailure       string         `json:"message_on_failure,omitempty"`
	Instrument             InstrumentMeta `json:"instrument"`
	CreatedAt              time.Time      `json:"created_at"`
}

func (o *Order) IsMarketBuy() bool {
	return o.Side == OrderSideBuy && o.Style == OrderStyleMarket
}

func (o *Order) IsMarketSell() bool {
	return o.Side == OrderSideSell && o.Style == OrderStyleMarket
}

// Descriptor is the compact instrument label used in execution reports,
// e.g. SPYcall2024-06-21450.
func (o *Order) Descriptor() string {
	return fmt.Sprintf("%s%s%s%s", o.Symbol, o.OptionType, o.Expiration, strconv.FormatFloat(o.Strike, 'f', -1, 64))
}

func (o *Order) String() string {
	return fmt.Sprintf("order #%d %s %d %s %s %s %v", o.ID, o.Side, o.Quantity, o.Symbol, o.Expiration, o.OptionType, o.Strike)
}
