package eventmodels

// InstrumentMeta is the brokerage's view of an option contract, resolved once
// when an order is created and cached on it.
type InstrumentMeta struct {
	ID          string       `json:"id"`
	Symbol      OptionSymbol `json:"symbol"`
	BelowTick   float64      `json:"below_tick"`
	AboveTick   float64      `json:"above_tick"`
	CutoffPrice float64      `json:"cutoff_price"`
}
