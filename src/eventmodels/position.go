package eventmodels

type Position struct {
	InstrumentID string  `json:"instrument_id"`
	Quantity     int     `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
}
