package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Notifier delivers an execution report to the user.
type Notifier interface {
	Send(ctx context.Context, msg string) error
}

const defaultTimeout = 60 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

func postJSON(ctx context.Context, client *http.Client, url string, body map[string]interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("postJSON: failed to marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("postJSON: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return do(client, req)
}

func postForm(ctx context.Context, client *http.Client, endpoint string, values url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("postForm: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return do(client, req)
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do: failed to send request: %w", err)
	}

	defer res.Body.Close()

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("do: failed to read response: %w", err)
	}

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("do: %s returned %d: %s", req.URL.Host, res.StatusCode, string(bodyBytes))
	}

	return bodyBytes, nil
}
