package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/tradebox/src/brokerage"
	"github.com/jiaming2012/tradebox/src/eventmodels"
	"github.com/jiaming2012/tradebox/src/orders"
)

type Executor interface {
	Execute(ctx context.Context, orderID uint) (*eventmodels.ExecutionReport, error)
}

type Options struct {
	In          io.Reader
	Out         io.Writer
	Orders      *orders.Service
	Executor    Executor
	Gateway     brokerage.Gateway
	Credentials brokerage.Credentials
	PublicURL   string
}

// Console is the interactive terminal front end for managing orders.
type Console struct {
	in        io.Reader
	out       io.Writer
	orders    *orders.Service
	executor  Executor
	gateway   brokerage.Gateway
	creds     brokerage.Credentials
	publicURL string
}

func New(opts Options) *Console {
	return &Console{
		in:        opts.In,
		out:       opts.Out,
		orders:    opts.Orders,
		executor:  opts.Executor,
		gateway:   opts.Gateway,
		creds:     opts.Credentials,
		publicURL: strings.TrimSuffix(opts.PublicURL, "/"),
	}
}

// Run shows the console until the user quits or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	p := tea.NewProgram(
		newModel(ctx, c),
		tea.WithContext(ctx),
		tea.WithInput(c.in),
		tea.WithOutput(c.out),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("Console.Run: %w", err)
	}

	return nil
}

func (c *Console) createOrderForm() *form {
	req := &eventmodels.CreateOrderRequest{}

	return newForm(
		func(ctx context.Context) (string, error) {
			order, err := c.orders.Create(ctx, req)
			if err != nil {
				return "", err
			}

			return fmt.Sprintf("created order #%d", order.ID), nil
		},
		choiceField("buy/sell", func(v string) { req.Side = eventmodels.OrderSide(v) }, "buy", "sell"),
		intField("quantity", func(v int) { req.Quantity = v }),
		choiceField("call/put", func(v string) { req.OptionType = eventmodels.OptionType(v) }, "call", "put"),
		stringField("symbol", false, func(v string) { req.Symbol = v }),
		dateField("expiration_date", func(v string) { req.Expiration = v }),
		floatField("strike", func(v float64) { req.Strike = v }),
		choiceField("market/limit", func(v string) { req.Style = eventmodels.OrderStyle(v) }, "market", "limit"),
		floatField("limit price", func(v float64) { req.LimitPrice = v }).
			onlyIf(func() bool { return req.Style == eventmodels.OrderStyleLimit }),
		boolField("order active? (true/false)", func(v bool) { req.Active = v }),
		optionalIDField("execute only after order #", func(v *uint) { req.ExecuteOnlyAfterID = v }),
		optionalIDField("execution deactivates order #", func(v *uint) { req.DeactivatesOrderID = v }),
		stringField("success msg", true, func(v string) { req.MessageOnSuccess = v }),
		stringField("failure msg", true, func(v string) { req.MessageOnFailure = v }),
		intField("max order attempts (recommend 10)", func(v int) { req.MaxOrderAttempts = v }),
		boolField("emergency fill on failure? (true/false)", func(v bool) { req.EmergencyFillOnFailure = v }),
	)
}

func (c *Console) deleteOrderForm() *form {
	var id uint

	return newForm(
		func(ctx context.Context) (string, error) {
			if err := c.orders.Delete(ctx, id); err != nil {
				return "", err
			}

			return fmt.Sprintf("deleted order #%d", id), nil
		},
		orderIDField("order # to delete", func(v uint) { id = v }),
	)
}

func (c *Console) deleteAll(ctx context.Context) (string, error) {
	if err := c.orders.DeleteAll(ctx); err != nil {
		return "", err
	}

	return "deleted all orders", nil
}

func (c *Console) cancelAll(ctx context.Context) (string, error) {
	if err := c.gateway.CancelAllOrders(ctx); err != nil {
		return "", err
	}

	return "cancelled all open brokerage orders", nil
}

func (c *Console) login(ctx context.Context) (string, error) {
	session, err := c.gateway.Authenticate(ctx, c.creds)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("logged in to account %s", session.AccountID), nil
}

func (c *Console) logout(ctx context.Context) (string, error) {
	if err := c.gateway.Deauthenticate(ctx); err != nil {
		return "", err
	}

	return "logged out", nil
}

func (c *Console) executeOrderForm() *form {
	var id uint

	return newForm(
		func(ctx context.Context) (string, error) {
			report, err := c.executor.Execute(ctx, id)
			if report == nil {
				return "", err
			}

			out := fmt.Sprintf("outcome: %s", report.Outcome)
			if report.Message != "" {
				out += "\n" + report.Message
			}

			return out, err
		},
		orderIDField("execute order#", func(v uint) { id = v }),
	)
}

func (c *Console) printLinkForm() *form {
	var id uint

	return newForm(
		func(context.Context) (string, error) {
			return fmt.Sprintf("%s/orders/execute/%d", c.publicURL, id), nil
		},
		orderIDField("order #", func(v uint) { id = v }),
	)
}

func (c *Console) exportOrdersForm() *form {
	var path string

	return newForm(
		func(ctx context.Context) (string, error) {
			if path == "" {
				path = "orders.csv"
			}

			list, err := c.orders.List(ctx)
			if err != nil {
				return "", err
			}

			f, err := os.Create(path)
			if err != nil {
				return "", fmt.Errorf("exportOrders: failed to create %s: %w", path, err)
			}
			defer f.Close()

			if err := gocsv.MarshalFile(eventmodels.NewOrderCSVRows(list), f); err != nil {
				return "", fmt.Errorf("exportOrders: failed to write %s: %w", path, err)
			}

			return fmt.Sprintf("exported %d orders to %s", len(list), path), nil
		},
		stringField("file (blank for orders.csv)", true, func(v string) { path = v }),
	)
}

// renderBoard draws the open positions and the order table.
func (c *Console) renderBoard(ctx context.Context) string {
	var b strings.Builder
	c.printPositions(ctx, &b)
	c.printOrders(ctx, &b)
	return b.String()
}

func (c *Console) printPositions(ctx context.Context, w io.Writer) {
	if _, ok := c.gateway.Session(); !ok {
		fmt.Fprintln(w, warnStyle.Render("NOT LOGGED IN!!!"))
		fmt.Fprint(w, "Not logged in. Could not print open option positions.\n\n")
		return
	}

	positions, err := c.gateway.GetOpenPositions(ctx)
	if err != nil {
		fmt.Fprintf(w, "could not load open positions: %v\n\n", err)
		return
	}

	fmt.Fprintln(w, "OPEN POSITIONS")

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"symbol", "kind", "expiration", "strike", "qty", "avg price", "mark"})

	for _, p := range positions {
		symbol, kind, expiration, strike := p.InstrumentID, "", "", ""
		if components, err := eventmodels.ParseOptionSymbol(eventmodels.OptionSymbol(p.InstrumentID)); err == nil {
			symbol = components.Underlying
			kind = string(components.OptionType)
			expiration = components.Expiration.Format(eventmodels.ExpirationLayout)
			strike = strconv.FormatFloat(components.StrikePrice, 'f', -1, 64)
		}

		mark := "-"
		if quote, err := c.gateway.GetQuote(ctx, p.InstrumentID); err == nil {
			mark = fmt.Sprintf("%.2f", quote.Mark)
		} else {
			log.WithContext(ctx).Debugf("printPositions: no quote for %s: %v", p.InstrumentID, err)
		}

		table.Append([]string{symbol, kind, expiration, strike, strconv.Itoa(p.Quantity), fmt.Sprintf("%.2f", p.AveragePrice), mark})
	}

	table.Render()
	fmt.Fprintln(w)
}

func (c *Console) printOrders(ctx context.Context, w io.Writer) {
	fmt.Fprintln(w, "TRADEBOX ORDERS")

	list, err := c.orders.List(ctx)
	if err != nil {
		fmt.Fprintf(w, "could not load orders: %v\n", err)
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"id", "active", "executed", "ex after", "ex stops", "side", "qty", "symbol", "type", "exp", "strike", "style", "attempts", "emergency"})

	for _, o := range list {
		table.Append([]string{
			strconv.FormatUint(uint64(o.ID), 10),
			strconv.FormatBool(o.Active),
			strconv.FormatBool(o.Executed),
			eventmodels.FormatOptionalID(o.ExecuteOnlyAfterID),
			eventmodels.FormatOptionalID(o.DeactivatesOrderID),
			string(o.Side),
			strconv.Itoa(o.Quantity),
			o.Symbol,
			string(o.OptionType),
			o.Expiration,
			strconv.FormatFloat(o.Strike, 'f', -1, 64),
			string(o.Style),
			strconv.Itoa(o.MaxOrderAttempts),
			strconv.FormatBool(o.EmergencyFillOnFailure),
		})
	}

	table.Render()
}
