package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const PushoverURL = "https://api.pushover.net/1/messages.json"

type PushoverNotifier struct {
	endpoint  string
	apiToken  string
	userToken string
	client    *http.Client
}

// NewPushoverNotifier posts to endpoint, normally PushoverURL.
func NewPushoverNotifier(endpoint, apiToken, userToken string) *PushoverNotifier {
	return &PushoverNotifier{
		endpoint:  endpoint,
		apiToken:  apiToken,
		userToken: userToken,
		client:    newHTTPClient(),
	}
}

func (n *PushoverNotifier) Send(ctx context.Context, msg string) error {
	values := url.Values{
		"token":   {n.apiToken},
		"user":    {n.userToken},
		"message": {msg},
	}

	if _, err := postForm(ctx, n.client, n.endpoint, values); err != nil {
		return fmt.Errorf("PushoverNotifier.Send: failed to post message: %w", err)
	}

	return nil
}
