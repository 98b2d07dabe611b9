package eventmodels

// TradeType says whether an order pays (debit) or collects (credit) premium.
type TradeType string

const (
	TradeTypeDebit  TradeType = "debit"
	TradeTypeCredit TradeType = "credit"
)
