package brokerage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/tradebox/src/eventmodels"
)

var _ Gateway = (*SimulatedGateway)(nil)

// FillPolicy decides how many contracts of a freshly placed order fill
// immediately. Anything not filled at placement rests until cancelled.
// Policies run under the simulator's lock and must not call back into it.
type FillPolicy func(req eventmodels.LimitOrderRequest, quote eventmodels.Quote) int

func FillAll(req eventmodels.LimitOrderRequest, _ eventmodels.Quote) int {
	return req.Quantity
}

func FillNone(eventmodels.LimitOrderRequest, eventmodels.Quote) int {
	return 0
}

// FillUpTo fills at most n contracts per placement.
func FillUpTo(n int) FillPolicy {
	return func(req eventmodels.LimitOrderRequest, _ eventmodels.Quote) int {
		if req.Quantity < n {
			return req.Quantity
		}
		return n
	}
}

// FillMarketable fills the whole order when its price crosses the quote.
func FillMarketable(req eventmodels.LimitOrderRequest, quote eventmodels.Quote) int {
	price := req.Price.InexactFloat64()
	if req.Direction == eventmodels.OrderSideBuy && price >= quote.Ask {
		return req.Quantity
	}
	if req.Direction == eventmodels.OrderSideSell && price <= quote.Bid {
		return req.Quantity
	}
	return 0
}

type SimulatedOrderStatus string

const (
	SimulatedOrderOpen      SimulatedOrderStatus = "open"
	SimulatedOrderFilled    SimulatedOrderStatus = "filled"
	SimulatedOrderCancelled SimulatedOrderStatus = "cancelled"
)

type SimulatedOrder struct {
	ID      string
	Request eventmodels.LimitOrderRequest
	Filled  int
	Status  SimulatedOrderStatus
}

type SimulatorOption func(*SimulatedGateway)

// WithSession starts the simulator already authenticated.
func WithSession(accountID string) SimulatorOption {
	return func(g *SimulatedGateway) {
		g.session.set(&Session{AccountID: accountID, ProfileName: "simulator", AuthenticatedAt: time.Now()})
	}
}

func WithFillPolicy(policy FillPolicy) SimulatorOption {
	return func(g *SimulatedGateway) {
		g.fill = policy
	}
}

func WithTickSizes(ticks TickSizes) SimulatorOption {
	return func(g *SimulatedGateway) {
		g.ticks = ticks
	}
}

// SimulatedGateway is an in-memory brokerage used for paper trading and
// tests. It records every call it receives.
type SimulatedGateway struct {
	session sessionHolder
	ticks   TickSizes

	mu          sync.Mutex
	fill        FillPolicy
	listed      map[eventmodels.OptionSymbol]bool
	positions   map[string]eventmodels.Position
	quotes      map[string]eventmodels.Quote
	orders      map[string]*SimulatedOrder
	orderSeq    []string
	nextOrderID int
	calls       []string

	placeErr  error
	quoteErr  error
	cancelErr error
	posErr    error
}

func NewSimulatedGateway(opts ...SimulatorOption) *SimulatedGateway {
	g := &SimulatedGateway{
		ticks:       TickSizes{BelowTick: 0.05, AboveTick: 0.10, CutoffPrice: 3.00},
		fill:        FillMarketable,
		listed:      make(map[eventmodels.OptionSymbol]bool),
		positions:   make(map[string]eventmodels.Position),
		quotes:      make(map[string]eventmodels.Quote),
		orders:      make(map[string]*SimulatedOrder),
		nextOrderID: 1000,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *SimulatedGateway) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	g.record("Authenticate")

	if creds.AccountID == "" {
		return nil, eventmodels.NewGatewayError("Authenticate", fmt.Errorf("account id is required"))
	}

	g.session.set(&Session{AccountID: creds.AccountID, ProfileName: "simulator", AuthenticatedAt: time.Now(), token: creds.Token})
	log.WithContext(ctx).Infof("SimulatedGateway: authenticated account %s", creds.AccountID)

	s, _ := g.session.get()
	return s, nil
}

func (g *SimulatedGateway) Deauthenticate(context.Context) error {
	g.record("Deauthenticate")
	g.session.clear()
	return nil
}

func (g *SimulatedGateway) Session() (*Session, bool) {
	return g.session.get()
}

func (g *SimulatedGateway) LookupInstrument(_ context.Context, symbol, expiration string, strike float64, kind eventmodels.OptionType) (*eventmodels.InstrumentMeta, error) {
	g.record("LookupInstrument")
	if err := g.requireSession(); err != nil {
		return nil, err
	}

	exp, err := time.Parse(eventmodels.ExpirationLayout, expiration)
	if err != nil {
		return nil, fmt.Errorf("SimulatedGateway.LookupInstrument: %w", eventmodels.ErrInstrumentNotFound)
	}

	occ, err := eventmodels.NewOptionSymbol(eventmodels.OptionSymbolComponents{
		Underlying:  symbol,
		Expiration:  exp,
		OptionType:  kind,
		StrikePrice: strike,
	})
	if err != nil {
		return nil, fmt.Errorf("SimulatedGateway.LookupInstrument: %v: %w", err, eventmodels.ErrInstrumentNotFound)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// with nothing listed every well-formed contract exists
	if len(g.listed) > 0 && !g.listed[occ] {
		return nil, fmt.Errorf("SimulatedGateway.LookupInstrument: %s: %w", occ, eventmodels.ErrInstrumentNotFound)
	}

	return &eventmodels.InstrumentMeta{
		ID:          string(occ),
		Symbol:      occ,
		BelowTick:   g.ticks.BelowTick,
		AboveTick:   g.ticks.AboveTick,
		CutoffPrice: g.ticks.CutoffPrice,
	}, nil
}

func (g *SimulatedGateway) GetOpenPositions(context.Context) ([]eventmodels.Position, error) {
	g.record("GetOpenPositions")
	if err := g.requireSession(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.posErr != nil {
		return nil, eventmodels.NewGatewayError("GetOpenPositions", g.posErr)
	}

	positions := make([]eventmodels.Position, 0, len(g.positions))
	for _, p := range g.positions {
		positions = append(positions, p)
	}

	sort.Slice(positions, func(i, j int) bool { return positions[i].InstrumentID < positions[j].InstrumentID })
	return positions, nil
}

func (g *SimulatedGateway) GetQuote(_ context.Context, instrumentID string) (*eventmodels.Quote, error) {
	g.record("GetQuote")
	if err := g.requireSession(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.quoteErr != nil {
		return nil, eventmodels.NewGatewayError("GetQuote", g.quoteErr)
	}

	q, found := g.quotes[instrumentID]
	if !found {
		return nil, eventmodels.NewGatewayError("GetQuote", fmt.Errorf("no quote for %s", instrumentID))
	}

	return &q, nil
}

func (g *SimulatedGateway) PlaceLimitOrder(ctx context.Context, req eventmodels.LimitOrderRequest) (string, error) {
	g.record("PlaceLimitOrder")
	if err := g.requireSession(); err != nil {
		return "", err
	}

	if err := req.Validate(); err != nil {
		return "", eventmodels.NewGatewayError("PlaceLimitOrder", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.placeErr != nil {
		return "", eventmodels.NewGatewayError("PlaceLimitOrder", g.placeErr)
	}

	id := strconv.Itoa(g.nextOrderID)
	g.nextOrderID++

	filled := g.fill(req, g.quotes[req.Instrument.ID])
	if filled > req.Quantity {
		filled = req.Quantity
	}
	if filled < 0 {
		filled = 0
	}

	status := SimulatedOrderOpen
	if filled == req.Quantity {
		status = SimulatedOrderFilled
	}

	g.orders[id] = &SimulatedOrder{ID: id, Request: req, Filled: filled, Status: status}
	g.orderSeq = append(g.orderSeq, id)

	if filled > 0 {
		g.applyFill(req, filled)
	}

	log.WithContext(ctx).Debugf("SimulatedGateway: order %s %s %d %s @ %s filled %d", id, req.Direction, req.Quantity, req.Instrument.ID, req.Price, filled)
	return id, nil
}

func (g *SimulatedGateway) CancelOrder(_ context.Context, brokerOrderID string) error {
	g.record("CancelOrder")
	if err := g.requireSession(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancelErr != nil {
		return eventmodels.NewGatewayError("CancelOrder", g.cancelErr)
	}

	o, found := g.orders[brokerOrderID]
	if !found {
		return eventmodels.NewGatewayError("CancelOrder", fmt.Errorf("unknown order %s", brokerOrderID))
	}

	if o.Status == SimulatedOrderOpen {
		o.Status = SimulatedOrderCancelled
	}

	return nil
}

func (g *SimulatedGateway) CancelAllOrders(ctx context.Context) error {
	g.record("CancelAllOrders")
	if err := g.requireSession(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancelErr != nil {
		return eventmodels.NewGatewayError("CancelAllOrders", g.cancelErr)
	}

	for _, o := range g.orders {
		if o.Status == SimulatedOrderOpen {
			o.Status = SimulatedOrderCancelled
		}
	}

	return nil
}

// ListInstrument restricts LookupInstrument to listed contracts.
func (g *SimulatedGateway) ListInstrument(symbol eventmodels.OptionSymbol) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.listed[symbol] = true
}

func (g *SimulatedGateway) SetQuote(instrumentID string, bid, ask float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.quotes[instrumentID] = eventmodels.Quote{Bid: bid, Ask: ask, Mark: (bid + ask) / 2}
}

func (g *SimulatedGateway) SetPosition(instrumentID string, quantity int, averagePrice float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if quantity == 0 {
		delete(g.positions, instrumentID)
		return
	}

	g.positions[instrumentID] = eventmodels.Position{InstrumentID: instrumentID, Quantity: quantity, AveragePrice: averagePrice}
}

func (g *SimulatedGateway) SetFillPolicy(policy FillPolicy) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.fill = policy
}

// FailPlacements makes PlaceLimitOrder fail with err; nil restores it.
func (g *SimulatedGateway) FailPlacements(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.placeErr = err
}

func (g *SimulatedGateway) FailQuotes(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.quoteErr = err
}

func (g *SimulatedGateway) FailCancels(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cancelErr = err
}

func (g *SimulatedGateway) FailPositions(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.posErr = err
}

// Orders returns placed orders in placement order.
func (g *SimulatedGateway) Orders() []SimulatedOrder {
	g.mu.Lock()
	defer g.mu.Unlock()

	orders := make([]SimulatedOrder, 0, len(g.orderSeq))
	for _, id := range g.orderSeq {
		orders = append(orders, *g.orders[id])
	}

	return orders
}

func (g *SimulatedGateway) Position(instrumentID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.positions[instrumentID].Quantity
}

// Calls returns the names of the gateway methods invoked so far.
func (g *SimulatedGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]string{}, g.calls...)
}

func (g *SimulatedGateway) CallCount(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for _, c := range g.calls {
		if c == name {
			n++
		}
	}

	return n
}

func (g *SimulatedGateway) record(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, call)
}

func (g *SimulatedGateway) requireSession() error {
	if _, ok := g.session.get(); !ok {
		return eventmodels.ErrNotAuthenticated
	}

	return nil
}

// applyFill moves the position by the filled quantity. Caller holds mu.
func (g *SimulatedGateway) applyFill(req eventmodels.LimitOrderRequest, filled int) {
	p := g.positions[req.Instrument.ID]
	p.InstrumentID = req.Instrument.ID

	price := req.Price.InexactFloat64()
	if req.Direction == eventmodels.OrderSideBuy {
		total := p.AveragePrice*float64(p.Quantity) + price*float64(filled)
		p.Quantity += filled
		if p.Quantity > 0 {
			p.AveragePrice = total / float64(p.Quantity)
		}
	} else {
		p.Quantity -= filled
	}

	if p.Quantity == 0 {
		delete(g.positions, req.Instrument.ID)
		return
	}

	g.positions[req.Instrument.ID] = p
}
