package engine

import (
	"strconv"

	"github.com/shopspring/decimal"
)

var minimumPrice = decimal.New(1, -2)

// EmergencySellPrice halves the bid and snaps it to the 0.10 grid. A price
// that snaps to zero is floored at 0.01.
func EmergencySellPrice(bid float64) decimal.Decimal {
	price := roundHalfEven(roundHalfEven(bid, 2)/2, 2)
	return floorPrice(snapToTenth(price))
}

// EmergencyBuyPrice pays 50% over the ask plus 0.05, snapped to the 0.10 grid.
func EmergencyBuyPrice(ask float64) decimal.Decimal {
	price := roundHalfEven(roundHalfEven(ask, 2)*1.5+0.05, 2)
	return floorPrice(snapToTenth(price))
}

// LimitPrice is the top-of-book price used by the reconciliation loop.
func LimitPrice(px float64) decimal.Decimal {
	return decimal.NewFromFloat(roundHalfEven(px, 2)).Round(2)
}

// snapToTenth is round(round(p*10)/10, 2).
func snapToTenth(p float64) decimal.Decimal {
	return decimal.NewFromFloat(roundHalfEven(roundHalfEven(p*10, 0)/10, 2)).Round(2)
}

func floorPrice(p decimal.Decimal) decimal.Decimal {
	if p.Sign() <= 0 {
		return minimumPrice
	}

	return p
}

// roundHalfEven rounds the exact binary value of x, so a tie only occurs
// when x is exactly representable as one (0.125 ties, 0.15 does not).
func roundHalfEven(x float64, places int32) float64 {
	exact := decimal.RequireFromString(strconv.FormatFloat(x, 'f', 40, 64))
	f, _ := exact.RoundBank(places).Float64()
	return f
}
