package eventmodels

// TradeDuration is the time in force of a brokerage order.
type TradeDuration string

const (
	TradeDurationDay               TradeDuration = "day"
	TradeDurationGoodTillCancelled TradeDuration = "gtc"
)
