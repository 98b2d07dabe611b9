package eventmodels

type Quote struct {
	Bid  float64 `json:"bid"`
	Ask  float64 `json:"ask"`
	Mark float64 `json:"mark"`
}
