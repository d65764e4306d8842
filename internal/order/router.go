package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DeskRouter delivers a signed note to a desk's ingestion endpoint.
type DeskRouter interface {
	Route(ctx context.Context, routingURL string, envelope Envelope) error
}

// HTTPRouter posts notes to {routingURL}/note with body {"note": <envelope>}.
// A 2xx response is success; any other status surfaces the response text
// verbatim.
type HTTPRouter struct {
	client *http.Client
}

// NewHTTPRouter builds a router with the given per-request timeout.
func NewHTTPRouter(timeout time.Duration) *HTTPRouter {
	return &HTTPRouter{client: &http.Client{Timeout: timeout}}
}

func (r *HTTPRouter) Route(ctx context.Context, routingURL string, envelope Envelope) error {
	body, err := json.Marshal(map[string]Envelope{"note": envelope})
	if err != nil {
		return fmt.Errorf("encode note envelope: %w", err)
	}

	url := strings.TrimRight(routingURL, "/") + "/note"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ingestion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("post note to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if len(msg) == 0 {
		return fmt.Errorf("desk returned status %d", resp.StatusCode)
	}
	return fmt.Errorf("desk returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
