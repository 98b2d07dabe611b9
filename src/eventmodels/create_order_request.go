package eventmodels

import (
	"fmt"
	"strings"
	"time"
)

const ExpirationLayout = "2006-01-02"

type CreateOrderRequest struct {
	Side                   OrderSide  `json:"side" schema:"side"`
	Symbol                 string     `json:"symbol" schema:"symbol"`
	OptionType             OptionType `json:"option_type" schema:"option_type"`
	Strike                 float64    `json:"strike" schema:"strike"`
	Expiration             string     `json:"expiration" schema:"expiration"`
	Quantity               int        `json:"quantity" schema:"quantity"`
	Style                  OrderStyle `json:"style" schema:"style"`
	LimitPrice             float64    `json:"limit_price" schema:"limit_price"`
	Active                 bool       `json:"active" schema:"active"`
	EmergencyFillOnFailure bool       `json:"emergency_fill_on_failure" schema:"emergency_fill_on_failure"`
	MaxOrderAttempts       int        `json:"max_order_attempts" schema:"max_order_attempts"`
	ExecuteOnlyAfterID     *uint      `json:"execute_only_after_id,omitempty" schema:"execute_only_after_id"`
	DeactivatesOrderID     *uint      `json:"deactivates_order_id,omitempty" schema:"deactivates_order_id"`
	MessageOnSuccess       string     `json:"message_on_success" schema:"message_on_success"`
	MessageOnFailure       string     `json:"message_on_failure" schema:"message_on_failure"`
}

// Validate normalizes the request in place and reports the first invalid field.
func (r *CreateOrderRequest) Validate() error {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	if r.Style == "" {
		r.Style = OrderStyleMarket
	}

	if err := r.Side.Validate(); err != nil {
		return err
	}

	if err := r.OptionType.Validate(); err != nil {
		return err
	}

	if err := r.Style.Validate(); err != nil {
		return err
	}

	if r.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	if _, err := time.Parse(ExpirationLayout, r.Expiration); err != nil {
		return fmt.Errorf("expiration must be formatted as YYYY-MM-DD: %w", err)
	}

	if r.Strike <= 0 {
		return fmt.Errorf("strike must be positive")
	}

	if r.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}

	if r.MaxOrderAttempts <= 0 {
		return fmt.Errorf("max order attempts must be positive")
	}

	if r.Style == OrderStyleLimit && r.LimitPrice <= 0 {
		return fmt.Errorf("limit price must be positive for limit orders")
	}

	return nil
}

func (r *CreateOrderRequest) ToOrder(instrument InstrumentMeta, createdAt time.Time) *Order {
	return &Order{
		Side:                   r.Side,
		Symbol:                 r.Symbol,
		OptionType:             r.OptionType,
		Strike:                 r.Strike,
		Expiration:             r.Expiration,
		Quantity:               r.Quantity,
		Style:                  r.Style,
		LimitPrice:             r.LimitPrice,
		Active:                 r.Active,
		EmergencyFillOnFailure: r.EmergencyFillOnFailure,
		MaxOrderAttempts:       r.MaxOrderAttempts,
		ExecuteOnlyAfterID:     r.ExecuteOnlyAfterID,
		DeactivatesOrderID:     r.DeactivatesOrderID,
		MessageOnSuccess:       r.MessageOnSuccess,
		MessageOnFailure:       r.MessageOnFailure,
		Instrument:             instrument,
		CreatedAt:              createdAt,
	}
}
