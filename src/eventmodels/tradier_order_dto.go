package eventmodels

import "encoding/json"

type TradierOrderDTO struct {
	ID           int64   `json:"id"`
	Type         string  `json:"type"`
	Symbol       string  `json:"symbol"`
	OptionSymbol string  `json:"option_symbol"`
	Side         string  `json:"side"`
	Quantity     float64 `json:"quantity"`
	Status       string  `json:"status"`
	Duration     string  `json:"duration"`
	Price        float64 `json:"price"`
	Tag          string  `json:"tag"`
}

// IsCancellable reports whether the order can still be cancelled.
func (dto *TradierOrderDTO) IsCancellable() bool {
	switch dto.Status {
	case "open", "partially_filled", "pending":
		return true
	}

	return false
}

type TradierPlaceOrderResponseDTO struct {
	Order *struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	} `json:"order"`
	Errors json.RawMessage `json:"errors,omitempty"`
}
