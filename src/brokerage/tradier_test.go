package brokerage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/tradebox/src/eventmodels"
)

type fakeTradier struct {
	mu        sync.Mutex
	requests  []*http.Request
	forms     []map[string]string
	cancelled []string
}

func (f *fakeTradier) handler() http.Handler {
	mux := http.NewServeMux()

	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer good-token" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte("Invalid Access Token"))
				return
			}

			f.mu.Lock()
			f.requests = append(f.requests, r)
			f.mu.Unlock()

			next(w, r)
		}
	}

	mux.HandleFunc("/v1/user/profile", auth(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"profile":{"id":"id-tradebox","name":"Trade Box","account":{"account_number":"VA000001"}}}`))
	}))

	mux.HandleFunc("/v1/markets/options/chains", auth(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("expiration") != "2024-06-21" {
			w.Write([]byte(`{"options":null}`))
			return
		}

		w.Write([]byte(`{"options":{"option":[
			{"symbol":"SPY240621C00450000","strike":450.0,"option_type":"call","expiration_date":"2024-06-21","root_symbol":"SPY"},
			{"symbol":"SPY240621P00450000","strike":450.0,"option_type":"put","expiration_date":"2024-06-21","root_symbol":"SPY"},
			{"symbol":"SPY240621C00455000","strike":455.0,"option_type":"call","expiration_date":"2024-06-21","root_symbol":"SPY"}
		]}}`))
	}))

	mux.HandleFunc("/v1/accounts/VA000001/positions", auth(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"positions":{"position":{"cost_basis":250.0,"date_acquired":"2024-06-01T14:30:00.000Z","id":1,"quantity":2.0,"symbol":"SPY240621C00450000"}}}`))
	}))

	mux.HandleFunc("/v1/markets/quotes", auth(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quotes":{"quote":{"symbol":"` + r.URL.Query().Get("symbols") + `","type":"option","last":1.2,"bid":1.1,"ask":1.3}}}`))
	}))

	mux.HandleFunc("/v1/accounts/VA000001/orders", auth(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			if err := r.ParseForm(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			form := map[string]string{}
			for k := range r.PostForm {
				form[k] = r.PostForm.Get(k)
			}

			f.mu.Lock()
			f.forms = append(f.forms, form)
			f.mu.Unlock()

			w.Write([]byte(`{"order":{"id":257459,"status":"ok"}}`))
		case http.MethodGet:
			w.Write([]byte(`{"orders":{"order":[
				{"id":1,"status":"filled","symbol":"SPY"},
				{"id":2,"status":"open","symbol":"SPY"},
				{"id":3,"status":"partially_filled","symbol":"SPY"}
			]}}`))
		}
	}))

	mux.HandleFunc("/v1/accounts/VA000001/orders/", auth(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := r.URL.Path[len("/v1/accounts/VA000001/orders/"):]

		f.mu.Lock()
		f.cancelled = append(f.cancelled, id)
		f.mu.Unlock()

		w.Write([]byte(`{"order":{"id":` + id + `,"status":"ok"}}`))
	}))

	return mux
}

func newTestTradier(t *testing.T) (*TradierGateway, *fakeTradier) {
	fake := &fakeTradier{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	g := NewTradierGateway(srv.URL+"/v1", 5*time.Second, TickSizes{BelowTick: 0.05, AboveTick: 0.10, CutoffPrice: 3.00})
	return g, fake
}

func TestTradierGateway(t *testing.T) {
	ctx := context.Background()
	creds := Credentials{AccountID: "VA000001", Token: "good-token"}

	t.Run("calls require a session", func(t *testing.T) {
		g, fake := newTestTradier(t)

		_, err := g.GetOpenPositions(ctx)
		assert.ErrorIs(t, err, eventmodels.ErrNotAuthenticated)
		assert.Empty(t, fake.requests)

		_, ok := g.Session()
		assert.False(t, ok)
	})

	t.Run("authenticate and deauthenticate", func(t *testing.T) {
		g, _ := newTestTradier(t)

		s, err := g.Authenticate(ctx, creds)
		require.NoError(t, err)
		assert.Equal(t, "Trade Box", s.ProfileName)
		assert.Equal(t, "VA000001", s.AccountID)

		require.NoError(t, g.Deauthenticate(ctx))
		_, err = g.GetQuote(ctx, "SPY240621C00450000")
		assert.ErrorIs(t, err, eventmodels.ErrNotAuthenticated)
	})

	t.Run("bad token is a gateway failure", func(t *testing.T) {
		g, _ := newTestTradier(t)

		_, err := g.Authenticate(ctx, Credentials{AccountID: "VA000001", Token: "bad"})
		assert.ErrorIs(t, err, eventmodels.ErrGatewayCallFailed)

		_, ok := g.Session()
		assert.False(t, ok)
	})

	t.Run("lookup instrument", func(t *testing.T) {
		g, _ := newTestTradier(t)
		_, err := g.Authenticate(ctx, creds)
		require.NoError(t, err)

		meta, err := g.LookupInstrument(ctx, "spy", "2024-06-21", 450, eventmodels.Put)
		require.NoError(t, err)
		assert.Equal(t, "SPY240621P00450000", meta.ID)
		assert.Equal(t, 0.05, meta.BelowTick)
		assert.Equal(t, 3.00, meta.CutoffPrice)

		_, err = g.LookupInstrument(ctx, "SPY", "2024-06-21", 451, eventmodels.Call)
		assert.ErrorIs(t, err, eventmodels.ErrInstrumentNotFound)

		_, err = g.LookupInstrument(ctx, "SPY", "2024-06-28", 450, eventmodels.Call)
		assert.ErrorIs(t, err, eventmodels.ErrInstrumentNotFound)
	})

	t.Run("positions and quotes", func(t *testing.T) {
		g, _ := newTestTradier(t)
		_, err := g.Authenticate(ctx, creds)
		require.NoError(t, err)

		positions, err := g.GetOpenPositions(ctx)
		require.NoError(t, err)
		require.Len(t, positions, 1)
		assert.Equal(t, 2, FindPosition(positions, "SPY240621C00450000"))
		assert.Equal(t, 1.25, positions[0].AveragePrice)
		assert.Equal(t, 0, FindPosition(positions, "SPY240621P00450000"))

		quote, err := g.GetQuote(ctx, "SPY240621C00450000")
		require.NoError(t, err)
		assert.Equal(t, 1.1, quote.Bid)
		assert.Equal(t, 1.3, quote.Ask)
		assert.InDelta(t, 1.2, quote.Mark, 1e-9)
	})

	t.Run("place limit order", func(t *testing.T) {
		g, fake := newTestTradier(t)
		_, err := g.Authenticate(ctx, creds)
		require.NoError(t, err)

		order := &eventmodels.Order{ID: 4, Symbol: "SPY", Expiration: "2024-06-21", Strike: 450, OptionType: eventmodels.Call,
			Instrument: eventmodels.InstrumentMeta{ID: "SPY240621C00450000"}}
		req := eventmodels.NewLimitOrderRequest(order, eventmodels.OrderSideSell, eventmodels.PositionEffectClose,
			eventmodels.TradeTypeCredit, decimal.RequireFromString("1.6"), 3, "tradebox-4-1")

		id, err := g.PlaceLimitOrder(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "257459", id)

		require.Len(t, fake.forms, 1)
		form := fake.forms[0]
		assert.Equal(t, "option", form["class"])
		assert.Equal(t, "SPY240621C00450000", form["option_symbol"])
		assert.Equal(t, "sell_to_close", form["side"])
		assert.Equal(t, "3", form["quantity"])
		assert.Equal(t, "limit", form["type"])
		assert.Equal(t, "gtc", form["duration"])
		assert.Equal(t, "1.60", form["price"])
		assert.Equal(t, "tradebox-4-1", form["tag"])
	})

	t.Run("buy to close against a long position is sent as buy to open", func(t *testing.T) {
		g, fake := newTestTradier(t)
		_, err := g.Authenticate(ctx, creds)
		require.NoError(t, err)

		held := &eventmodels.Order{ID: 5, Symbol: "SPY", Expiration: "2024-06-21", Strike: 450, OptionType: eventmodels.Call,
			Instrument: eventmodels.InstrumentMeta{ID: "SPY240621C00450000"}}
		_, err = g.PlaceLimitOrder(ctx, eventmodels.NewLimitOrderRequest(held, eventmodels.OrderSideBuy, eventmodels.PositionEffectClose,
			eventmodels.TradeTypeDebit, decimal.RequireFromString("2.0"), 1, ""))
		require.NoError(t, err)

		flat := &eventmodels.Order{ID: 6, Symbol: "SPY", Expiration: "2024-06-21", Strike: 455, OptionType: eventmodels.Call,
			Instrument: eventmodels.InstrumentMeta{ID: "SPY240621C00455000"}}
		_, err = g.PlaceLimitOrder(ctx, eventmodels.NewLimitOrderRequest(flat, eventmodels.OrderSideBuy, eventmodels.PositionEffectClose,
			eventmodels.TradeTypeDebit, decimal.RequireFromString("2.0"), 1, ""))
		require.NoError(t, err)

		require.Len(t, fake.forms, 2)
		assert.Equal(t, "buy_to_open", fake.forms[0]["side"])
		assert.Equal(t, "buy_to_close", fake.forms[1]["side"])
	})

	t.Run("cancel all only cancels open orders", func(t *testing.T) {
		g, fake := newTestTradier(t)
		_, err := g.Authenticate(ctx, creds)
		require.NoError(t, err)

		require.NoError(t, g.CancelAllOrders(ctx))
		assert.ElementsMatch(t, []string{"2", "3"}, fake.cancelled)
	})
}

func TestTradierSide(t *testing.T) {
	side, err := tradierSide(eventmodels.OrderSideBuy, eventmodels.PositionEffectOpen)
	require.NoError(t, err)
	assert.Equal(t, "buy_to_open", side)

	side, err = tradierSide(eventmodels.OrderSideBuy, eventmodels.PositionEffectClose)
	require.NoError(t, err)
	assert.Equal(t, "buy_to_close", side)

	_, err = tradierSide("hold", eventmodels.PositionEffectOpen)
	assert.Error(t, err)
}
