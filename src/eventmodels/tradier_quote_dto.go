package eventmodels

type TradierQuoteDTO struct {
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"`
	Last       float64 `json:"last"`
	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	BidSize    int     `json:"bidsize"`
	AskSize    int     `json:"asksize"`
	Underlying string  `json:"underlying"`
	Strike     float64 `json:"strike"`
}

func (dto *TradierQuoteDTO) ToQuote() Quote {
	mark := dto.Last
	if dto.Bid > 0 && dto.Ask > 0 {
		mark = (dto.Bid + dto.Ask) / 2
	}

	return Quote{
		Bid:  dto.Bid,
		Ask:  dto.Ask,
		Mark: mark,
	}
}
