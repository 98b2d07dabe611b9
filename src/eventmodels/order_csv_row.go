package eventmodels

// OrderCSVRow is the flat export shape of an order.
type OrderCSVRow struct {
	ID                     uint    `csv:"id"`
	Active                 bool    `csv:"active"`
	Executed               bool    `csv:"executed"`
	ExecuteOnlyAfterID     string  `csv:"ex_after_id"`
	DeactivatesOrderID     string  `csv:"ex_stops_id"`
	Side                   string  `csv:"side"`
	Symbol                 string  `csv:"symbol"`
	Strike                 float64 `csv:"strike"`
	OptionType             string  `csv:"type"`
	Expiration             string  `csv:"exp"`
	Quantity               int     `csv:"qty"`
	Style                  string  `csv:"style"`
	MaxOrderAttempts       int     `csv:"max_attempts"`
	EmergencyFillOnFailure bool    `csv:"emergency_fill"`
	InstrumentID           string  `csv:"instrument_id"`
}

func NewOrderCSVRows(orders []*Order) []*OrderCSVRow {
	rows := make([]*OrderCSVRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, &OrderCSVRow{
			ID:                     o.ID,
			Active:                 o.Active,
			Executed:               o.Executed,
			ExecuteOnlyAfterID:     FormatOptionalID(o.ExecuteOnlyAfterID),
			DeactivatesOrderID:     FormatOptionalID(o.DeactivatesOrderID),
			Side:                   string(o.Side),
			Symbol:                 o.Symbol,
			Strike:                 o.Strike,
			OptionType:             string(o.OptionType),
			Expiration:             o.Expiration,
			Quantity:               o.Quantity,
			Style:                  string(o.Style),
			MaxOrderAttempts:       o.MaxOrderAttempts,
			EmergencyFillOnFailure: o.EmergencyFillOnFailure,
			InstrumentID:           o.Instrument.ID,
		})
	}

	return rows
}
