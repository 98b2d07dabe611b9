package eventmodels

// TradeProgress is the working state of one execution. It is never persisted.
type TradeProgress struct {
	Attempts       int
	Opening        int
	Current        int
	Goal           int
	BrokerOrderIDs []string
}

// Remaining is the gap between the current position and the goal in the
// direction the side trades.
func (p *TradeProgress) Remaining(side OrderSide) int {
	if side == OrderSideSell {
		return p.Current - p.Goal
	}

	return p.Goal - p.Current
}

func (p *TradeProgress) RecordPlacement(brokerOrderID string) {
	p.Attempts++
	p.BrokerOrderIDs = append(p.BrokerOrderIDs, brokerOrderID)
}
