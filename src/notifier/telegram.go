package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const TelegramURL = "https://api.telegram.org"

type TelegramNotifier struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

func NewTelegramNotifier(baseURL, token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		client:  newHTTPClient(),
	}
}

func (n *TelegramNotifier) Send(ctx context.Context, msg string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	values := url.Values{
		"chat_id": {n.chatID},
		"text":    {msg},
	}

	if _, err := postForm(ctx, n.client, endpoint, values); err != nil {
		return fmt.Errorf("TelegramNotifier.Send: failed to post message: %w", err)
	}

	return nil
}
