package brokerage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jiaming2012/tradebox/src/eventmodels"
	"github.com/jiaming2012/tradebox/src/utils"
)

var _ Gateway = (*TradierGateway)(nil)

// TickSizes are the tick rules cached on instruments. Tradier does not
// publish per-contract increments, so they come from configuration.
type TickSizes struct {
	BelowTick   float64
	AboveTick   float64
	CutoffPrice float64
}

type TradierGateway struct {
	baseURL string
	ticks   TickSizes
	client  *http.Client
	session sessionHolder
}

func NewTradierGateway(baseURL string, timeout time.Duration, ticks TickSizes) *TradierGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &TradierGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		ticks:   ticks,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Authenticate validates the token against the user profile endpoint.
func (g *TradierGateway) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	if creds.Token == "" || creds.AccountID == "" {
		return nil, fmt.Errorf("TradierGateway.Authenticate: account id and token are required")
	}

	bytes, err := g.do(ctx, creds.Token, http.MethodGet, "/user/profile", nil, nil)
	if err != nil {
		return nil, eventmodels.NewGatewayError("Authenticate", err)
	}

	var resp struct {
		Profile eventmodels.TradierProfileDTO `json:"profile"`
	}
	if err := json.Unmarshal(bytes, &resp); err != nil {
		return nil, eventmodels.NewGatewayError("Authenticate", fmt.Errorf("failed to parse profile: %w", err))
	}

	s := &Session{
		AccountID:       creds.AccountID,
		ProfileID:       resp.Profile.ID,
		ProfileName:     resp.Profile.Name,
		AuthenticatedAt: time.Now(),
		token:           creds.Token,
	}
	g.session.set(s)

	log.WithContext(ctx).Infof("TradierGateway: authenticated account %s (%s)", s.AccountID, s.ProfileName)

	out, _ := g.session.get()
	return out, nil
}

func (g *TradierGateway) Deauthenticate(ctx context.Context) error {
	g.session.clear()
	log.WithContext(ctx).Info("TradierGateway: session cleared")
	return nil
}

func (g *TradierGateway) Session() (*Session, bool) {
	return g.session.get()
}

func (g *TradierGateway) LookupInstrument(ctx context.Context, symbol, expiration string, strike float64, kind eventmodels.OptionType) (*eventmodels.InstrumentMeta, error) {
	s, err := g.requireSession()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Add("symbol", strings.ToUpper(symbol))
	query.Add("expiration", expiration)

	bytes, err := g.do(ctx, s.token, http.MethodGet, "/markets/options/chains", query, nil)
	if err != nil {
		return nil, eventmodels.NewGatewayError("LookupInstrument", err)
	}

	options, err := utils.ParseTradierResponse[eventmodels.TradierOptionDTO](bytes)
	if err != nil {
		return nil, eventmodels.NewGatewayError("LookupInstrument", err)
	}

	for _, o := range options {
		if eventmodels.OptionType(o.OptionType) != kind || math.Abs(o.Strike-strike) > 1e-6 {
			continue
		}

		return &eventmodels.InstrumentMeta{
			ID:          o.Symbol,
			Symbol:      eventmodels.OptionSymbol(o.Symbol),
			BelowTick:   g.ticks.BelowTick,
			AboveTick:   g.ticks.AboveTick,
			CutoffPrice: g.ticks.CutoffPrice,
		}, nil
	}

	return nil, fmt.Errorf("TradierGateway.LookupInstrument: %s %s %v %s: %w", symbol, expiration, strike, kind, eventmodels.ErrInstrumentNotFound)
}

func (g *TradierGateway) GetOpenPositions(ctx context.Context) ([]eventmodels.Position, error) {
	s, err := g.requireSession()
	if err != nil {
		return nil, err
	}

	bytes, err := g.do(ctx, s.token, http.MethodGet, fmt.Sprintf("/accounts/%s/positions", s.AccountID), nil, nil)
	if err != nil {
		return nil, eventmodels.NewGatewayError("GetOpenPositions", err)
	}

	dtos, err := utils.ParseTradierResponse[eventmodels.TradierPositionDTO](bytes)
	if err != nil {
		return nil, eventmodels.NewGatewayError("GetOpenPositions", err)
	}

	positions := make([]eventmodels.Position, 0, len(dtos))
	for _, dto := range dtos {
		positions = append(positions, dto.ToPosition())
	}

	return positions, nil
}

func (g *TradierGateway) GetQuote(ctx context.Context, instrumentID string) (*eventmodels.Quote, error) {
	s, err := g.requireSession()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Add("symbols", instrumentID)

	bytes, err := g.do(ctx, s.token, http.MethodGet, "/markets/quotes", query, nil)
	if err != nil {
		return nil, eventmodels.NewGatewayError("GetQuote", err)
	}

	dtos, err := utils.ParseTradierResponse[*eventmodels.TradierQuoteDTO](bytes)
	if err != nil {
		return nil, eventmodels.NewGatewayError("GetQuote", err)
	}

	for _, dto := range dtos {
		if dto != nil && dto.Symbol == instrumentID {
			q := dto.ToQuote()
			return &q, nil
		}
	}

	return nil, eventmodels.NewGatewayError("GetQuote", fmt.Errorf("no quote returned for %s", instrumentID))
}

func (g *TradierGateway) PlaceLimitOrder(ctx context.Context, req eventmodels.LimitOrderRequest) (string, error) {
	s, err := g.requireSession()
	if err != nil {
		return "", err
	}

	if err := req.Validate(); err != nil {
		return "", eventmodels.NewGatewayError("PlaceLimitOrder", err)
	}

	side, err := tradierSide(req.Direction, req.Effect)
	if err != nil {
		return "", eventmodels.NewGatewayError("PlaceLimitOrder", err)
	}

	if req.Effect == eventmodels.PositionEffectClose {
		if side, err = g.closingSide(ctx, side, req.Instrument.ID); err != nil {
			return "", err
		}
	}

	form := url.Values{}
	form.Add("class", "option")
	form.Add("symbol", strings.ToUpper(req.Symbol))
	form.Add("option_symbol", req.Instrument.ID)
	form.Add("side", side)
	form.Add("quantity", strconv.Itoa(req.Quantity))
	form.Add("type", "limit")
	form.Add("duration", string(req.TimeInForce))
	form.Add("price", req.Price.StringFixed(2))

	if req.Tag != "" {
		if err := utils.ValidateTag(req.Tag); err != nil {
			return "", eventmodels.NewGatewayError("PlaceLimitOrder", err)
		}
		form.Add("tag", req.Tag)
	}

	log.WithContext(ctx).Infof("PlaceLimitOrder: %s %d %s @ %s (%s)", side, req.Quantity, req.Instrument.ID, req.Price.StringFixed(2), req.TradeType)

	bytes, err := g.do(ctx, s.token, http.MethodPost, fmt.Sprintf("/accounts/%s/orders", s.AccountID), nil, form)
	if err != nil {
		return "", eventmodels.NewGatewayError("PlaceLimitOrder", err)
	}

	var resp eventmodels.TradierPlaceOrderResponseDTO
	if err := json.Unmarshal(bytes, &resp); err != nil {
		return "", eventmodels.NewGatewayError("PlaceLimitOrder", fmt.Errorf("failed to decode response: %w", err))
	}

	if len(resp.Errors) > 0 && string(resp.Errors) != "null" {
		return "", eventmodels.NewGatewayError("PlaceLimitOrder", fmt.Errorf("order rejected: %s", string(resp.Errors)))
	}

	if resp.Order == nil || resp.Order.ID == 0 {
		return "", eventmodels.NewGatewayError("PlaceLimitOrder", fmt.Errorf("response carried no order id: %s", string(bytes)))
	}

	return strconv.FormatInt(resp.Order.ID, 10), nil
}

func (g *TradierGateway) CancelOrder(ctx context.Context, brokerOrderID string) error {
	s, err := g.requireSession()
	if err != nil {
		return err
	}

	if _, err := g.do(ctx, s.token, http.MethodDelete, fmt.Sprintf("/accounts/%s/orders/%s", s.AccountID, url.PathEscape(brokerOrderID)), nil, nil); err != nil {
		return eventmodels.NewGatewayError("CancelOrder", err)
	}

	return nil
}

// CancelAllOrders cancels every order still open on the account. It keeps
// going past individual failures and returns the first one.
func (g *TradierGateway) CancelAllOrders(ctx context.Context) error {
	s, err := g.requireSession()
	if err != nil {
		return err
	}

	bytes, err := g.do(ctx, s.token, http.MethodGet, fmt.Sprintf("/accounts/%s/orders", s.AccountID), nil, nil)
	if err != nil {
		return eventmodels.NewGatewayError("CancelAllOrders", err)
	}

	orders, err := utils.ParseTradierResponse[*eventmodels.TradierOrderDTO](bytes)
	if err != nil {
		return eventmodels.NewGatewayError("CancelAllOrders", err)
	}

	var firstErr error
	for _, o := range orders {
		if o == nil || !o.IsCancellable() {
			continue
		}

		id := strconv.FormatInt(o.ID, 10)
		entry := log.WithContext(ctx).WithField("broker_order_id", id)
		if orderID, attempt, err := utils.DecodeTag(o.Tag); err == nil {
			entry = entry.WithFields(log.Fields{"order_id": orderID, "attempt": attempt})
		}
		entry.Info("CancelAllOrders: cancelling order")

		if err := g.CancelOrder(ctx, id); err != nil {
			log.WithContext(ctx).Warnf("CancelAllOrders: failed to cancel order %s: %v", id, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func (g *TradierGateway) requireSession() (*Session, error) {
	g.session.mu.RLock()
	defer g.session.mu.RUnlock()

	if g.session.session == nil {
		return nil, eventmodels.ErrNotAuthenticated
	}

	return g.session.session, nil
}

func (g *TradierGateway) do(ctx context.Context, token, method, path string, query, form url.Values) ([]byte, error) {
	fullURL := g.baseURL + path
	if len(query) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, query.Encode())
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	if form != nil {
		req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	}

	log.Tracef("tradier: %s %s", method, req.URL.String())

	res, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}

	defer res.Body.Close()

	bytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s: %s: %s", method, path, res.Status, strings.TrimSpace(string(bytes)))
	}

	return bytes, nil
}

// closingSide keeps a closing side only when the held position can be closed
// by it. Tradier rejects buy_to_close while long and sell_to_close while
// short, so those are sent as opening orders.
func (g *TradierGateway) closingSide(ctx context.Context, side, instrumentID string) (string, error) {
	positions, err := g.GetOpenPositions(ctx)
	if err != nil {
		return "", err
	}

	for _, p := range positions {
		if p.InstrumentID != instrumentID {
			continue
		}

		switch {
		case side == "buy_to_close" && p.Quantity > 0:
			log.WithContext(ctx).Infof("closingSide: holding %d %s, sending buy_to_open", p.Quantity, instrumentID)
			return "buy_to_open", nil
		case side == "sell_to_close" && p.Quantity < 0:
			log.WithContext(ctx).Infof("closingSide: short %d %s, sending sell_to_open", -p.Quantity, instrumentID)
			return "sell_to_open", nil
		}
	}

	return side, nil
}

func tradierSide(direction eventmodels.OrderSide, effect eventmodels.PositionEffect) (string, error) {
	switch {
	case direction == eventmodels.OrderSideBuy && effect == eventmodels.PositionEffectOpen:
		return "buy_to_open", nil
	case direction == eventmodels.OrderSideBuy && effect == eventmodels.PositionEffectClose:
		return "buy_to_close", nil
	case direction == eventmodels.OrderSideSell && effect == eventmodels.PositionEffectOpen:
		return "sell_to_open", nil
	case direction == eventmodels.OrderSideSell && effect == eventmodels.PositionEffectClose:
		return "sell_to_close", nil
	}

	return "", fmt.Errorf("unsupported direction/effect: %s/%s", direction, effect)
}
