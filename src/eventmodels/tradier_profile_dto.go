package eventmodels

type TradierProfileDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
