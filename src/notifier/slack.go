package notifier

import (
	"context"
	"fmt"
	"net/http"
)

type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL, client: newHTTPClient()}
}

func (n *SlackNotifier) Send(ctx context.Context, msg string) error {
	body := map[string]interface{}{
		"text":          msg,
		"response_type": "in_channel",
	}

	if _, err := postJSON(ctx, n.client, n.webhookURL, body); err != nil {
		return fmt.Errorf("SlackNotifier.Send: failed to post message: %w", err)
	}

	return nil
}
