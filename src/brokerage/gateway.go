package brokerage

import (
	"context"

	"github.com/jiaming2012/tradebox/src/eventmodels"
)

// Gateway is a session-authenticated brokerage client. Every method other
// than Authenticate fails with eventmodels.ErrNotAuthenticated until a
// session exists.
type Gateway interface {
	Authenticate(ctx context.Context, creds Credentials) (*Session, error)
	Deauthenticate(ctx context.Context) error
	Session() (*Session, bool)

	// LookupInstrument resolves an option contract. It wraps
	// eventmodels.ErrInstrumentNotFound when the brokerage does not list it.
	LookupInstrument(ctx context.Context, symbol, expiration string, strike float64, kind eventmodels.OptionType) (*eventmodels.InstrumentMeta, error)
	GetOpenPositions(ctx context.Context) ([]eventmodels.Position, error)
	GetQuote(ctx context.Context, instrumentID string) (*eventmodels.Quote, error)
	PlaceLimitOrder(ctx context.Context, req eventmodels.LimitOrderRequest) (string, error)
	CancelOrder(ctx context.Context, brokerOrderID string) error
	CancelAllOrders(ctx context.Context) error
}

// FindPosition returns the quantity held of an instrument, 0 when the
// brokerage reports no open position for it.
func FindPosition(positions []eventmodels.Position, instrumentID string) int {
	for _, p := range positions {
		if p.InstrumentID == instrumentID {
			return p.Quantity
		}
	}

	return 0
}
