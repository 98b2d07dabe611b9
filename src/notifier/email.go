package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

type EmailNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	now      func() time.Time
}

// NewEmailNotifier sends plain-text mail over implicit TLS (SMTPS). to may
// hold several comma separated addresses.
func NewEmailNotifier(host string, port int, username, password, from, to string) *EmailNotifier {
	var recipients []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}

	if from == "" {
		from = username
	}

	return &EmailNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       recipients,
		now:      time.Now,
	}
}

func (n *EmailNotifier) Send(ctx context.Context, msg string) error {
	if len(n.to) == 0 {
		return fmt.Errorf("EmailNotifier.Send: no recipients configured")
	}

	m, err := n.message(msg)
	if err != nil {
		return fmt.Errorf("EmailNotifier.Send: %w", err)
	}

	opts := []mail.Option{
		mail.WithPort(n.port),
		mail.WithSSL(),
	}

	if n.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.username),
			mail.WithPassword(n.password),
		)
	}

	client, err := mail.NewClient(n.host, opts...)
	if err != nil {
		return fmt.Errorf("EmailNotifier.Send: failed to create client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("EmailNotifier.Send: failed to send to %s: %w", strings.Join(n.to, ", "), err)
	}

	return nil
}

// message uses the first line of body as the subject.
func (n *EmailNotifier) message(body string) (*mail.Msg, error) {
	subject := body
	if i := strings.IndexByte(subject, '\n'); i >= 0 {
		subject = subject[:i]
	}

	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return nil, fmt.Errorf("invalid sender %s: %w", n.from, err)
	}

	if err := m.To(n.to...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}

	m.Subject(subject)
	m.SetDateWithValue(n.now())
	m.SetBodyString(mail.TypeTextPlain, body)

	return m, nil
}
