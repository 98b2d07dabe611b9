package console

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/tradebox/src/brokerage"
	"github.com/jiaming2012/tradebox/src/data"
	"github.com/jiaming2012/tradebox/src/engine"
	"github.com/jiaming2012/tradebox/src/notifier"
	"github.com/jiaming2012/tradebox/src/orders"
)

// session feeds key presses to the model and runs the commands it returns
// inline, keeping every rendered frame.
type session struct {
	t       *testing.T
	repo    *data.MemoryRepository
	gateway *brokerage.SimulatedGateway
	model   tea.Model
	frames  strings.Builder
	quit    bool
}

func newSession(t *testing.T, gw *brokerage.SimulatedGateway) *session {
	t.Helper()

	repo := data.NewMemoryRepository()
	if gw == nil {
		gw = brokerage.NewSimulatedGateway(brokerage.WithSession("paper"), brokerage.WithFillPolicy(brokerage.FillAll))
	}
	eng := engine.New(repo, gw, notifier.NewRecorder(), nil, engine.Config{Delays: engine.ZeroDelays()})

	c := New(Options{
		Orders:      orders.NewService(repo, gw),
		Executor:    eng,
		Gateway:     gw,
		Credentials: brokerage.Credentials{AccountID: "paper", Token: "token"},
		PublicURL:   "https://tradebox.example.com/",
	})

	s := &session{t: t, repo: repo, gateway: gw, model: newModel(context.Background(), c)}
	s.exec(s.model.Init())

	return s
}

func (s *session) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}

	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			s.exec(c)
		}
		return
	}

	s.send(msg)
}

func (s *session) send(msg tea.Msg) {
	if _, ok := msg.(tea.QuitMsg); ok {
		s.quit = true
		return
	}

	var cmd tea.Cmd
	s.model, cmd = s.model.Update(msg)
	s.exec(cmd)
	s.frames.WriteString(s.model.View())
}

// enter types each line and presses enter after it.
func (s *session) enter(lines ...string) {
	for _, line := range lines {
		require.False(s.t, s.quit, "console already quit")
		if line != "" {
			s.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(line)})
		}
		s.send(tea.KeyMsg{Type: tea.KeyEnter})
	}
}

func (s *session) output() string {
	return s.frames.String()
}

var createAnswers = []string{
	"c",
	"buy",
	"2",
	"call",
	"spy",
	"2024-06-21",
	"450",
	"market",
	"true",
	"",
	"",
	"filled",
	"",
	"3",
	"false",
}

func TestConsole(t *testing.T) {
	ctx := context.Background()

	t.Run("quits", func(t *testing.T) {
		s := newSession(t, nil)
		s.enter("q")

		assert.True(t, s.quit)
		assert.Contains(t, s.output(), "TRADEBOX CONSOLE")
		assert.Contains(t, s.output(), "create order (c)")
	})

	t.Run("creates an order", func(t *testing.T) {
		s := newSession(t, nil)
		s.enter(createAnswers...)

		list, err := s.repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)

		o := list[0]
		assert.Equal(t, "SPY", o.Symbol)
		assert.Equal(t, 2, o.Quantity)
		assert.Equal(t, "filled", o.MessageOnSuccess)
		assert.Nil(t, o.ExecuteOnlyAfterID)
		assert.Equal(t, "SPY240621C00450000", o.Instrument.ID)
		assert.Contains(t, s.output(), "created order #1")
		assert.Contains(t, s.model.View(), "2024-06-21", "order table is refreshed")
	})

	t.Run("asks for a limit price only for limit orders", func(t *testing.T) {
		answers := append([]string{}, createAnswers[:8]...)
		answers[7] = "limit"
		answers = append(answers, "1.25")
		answers = append(answers, createAnswers[8:]...)

		s := newSession(t, nil)
		s.enter(answers...)

		assert.Contains(t, s.output(), "limit price> ")

		list, err := s.repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 1.25, list[0].LimitPrice)
	})

	t.Run("reprompts on invalid answers", func(t *testing.T) {
		answers := append([]string{"c", "hold", "buy", "two"}, createAnswers[2:]...)

		s := newSession(t, nil)
		s.enter(answers...)

		assert.Contains(t, s.output(), "'hold' is not one of buy/sell")
		assert.Contains(t, s.output(), "'two' is not an integer")

		list, err := s.repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("escape abandons a form", func(t *testing.T) {
		s := newSession(t, nil)
		s.enter("c", "buy")
		s.send(tea.KeyMsg{Type: tea.KeyEsc})
		s.enter("q")

		assert.True(t, s.quit)
		list, err := s.repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("executes an order and shows the position", func(t *testing.T) {
		gw := brokerage.NewSimulatedGateway(brokerage.WithSession("paper"), brokerage.WithFillPolicy(brokerage.FillAll))
		gw.SetQuote("SPY240621C00450000", 1.00, 1.20)

		s := newSession(t, gw)
		s.enter(createAnswers...)
		s.enter("e", "1")

		out := s.output()
		assert.Contains(t, out, "outcome: completed")
		assert.Contains(t, out, "Exd#1SPYcall2024-06-21450Cur2St0Gl2")
		assert.Contains(t, s.model.View(), "OPEN POSITIONS")
		assert.Contains(t, s.model.View(), "1.10")
		assert.Equal(t, 2, gw.Position("SPY240621C00450000"))
	})

	t.Run("login and logout", func(t *testing.T) {
		gw := brokerage.NewSimulatedGateway()

		s := newSession(t, gw)
		assert.Contains(t, s.model.View(), "NOT LOGGED IN!!!")

		s.enter("li")
		assert.Contains(t, s.output(), "logged in to account paper")
		assert.NotContains(t, s.model.View(), "NOT LOGGED IN!!!")

		s.enter("lo")
		_, ok := gw.Session()
		assert.False(t, ok)
		assert.Contains(t, s.model.View(), "NOT LOGGED IN!!!")
	})

	t.Run("prints the execute link", func(t *testing.T) {
		s := newSession(t, nil)
		s.enter("l", "7")

		assert.Contains(t, s.output(), "https://tradebox.example.com/orders/execute/7\n")
	})

	t.Run("exports orders", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")

		s := newSession(t, nil)
		s.enter(createAnswers...)
		s.enter("x", path)

		b, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(b)), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[1], "SPY240621C00450000")
	})

	t.Run("delete all and cancel all", func(t *testing.T) {
		s := newSession(t, nil)
		s.enter(createAnswers...)
		s.enter("da", "car")

		list, err := s.repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.Equal(t, 1, s.gateway.CallCount("CancelAllOrders"))
	})

	t.Run("reports errors and keeps running", func(t *testing.T) {
		s := newSession(t, nil)
		s.enter("d", "9", "bogus")

		out := s.output()
		assert.Contains(t, out, "error:")
		assert.Contains(t, out, "Invalid selection.")
		assert.False(t, s.quit)
	})

	t.Run("ctrl+c quits from a form", func(t *testing.T) {
		s := newSession(t, nil)
		s.enter("c")
		s.send(tea.KeyMsg{Type: tea.KeyCtrlC})

		assert.True(t, s.quit)
	})
}

var _ Executor = (*engine.Engine)(nil)
