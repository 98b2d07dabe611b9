package eventmodels

import "github.com/shopspring/decimal"

type EmergencyFill struct {
	Side          OrderSide       `json:"side"`
	Quantity      int             `json:"quantity"`
	ReferencePx   float64         `json:"reference_price"`
	Price         decimal.Decimal `json:"price"`
	BrokerOrderID string          `json:"broker_order_id,omitempty"`
	QuantityAfter int             `json:"quantity_after"`
}
