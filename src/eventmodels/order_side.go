package eventmodels

import "fmt"

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

func (s OrderSide) Validate() error {
	if s != OrderSideBuy && s != OrderSideSell {
		return fmt.Errorf("OrderSide: Validate: invalid order side: %s", s)
	}

	return nil
}
