package eventmodels

import "math"

type TradierPositionDTO struct {
	CostBasis    float64 `json:"cost_basis"`
	DateAcquired string  `json:"date_acquired"`
	ID           int     `json:"id"`
	Quantity     float64 `json:"quantity"`
	Symbol       string  `json:"symbol"`
}

// ToPosition converts the DTO. Option cost basis is reported per contract
// multiplier, so the average price is normalized back to a per-share premium.
func (dto TradierPositionDTO) ToPosition() Position {
	qty := int(dto.Quantity)

	avg := 0.0
	if qty != 0 {
		avg = math.Round(dto.CostBasis/math.Abs(dto.Quantity)/100*100) / 100
	}

	return Position{
		InstrumentID: dto.Symbol,
		Quantity:     qty,
		AveragePrice: avg,
	}
}
