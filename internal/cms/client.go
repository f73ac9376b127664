package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client reads from the headless CMS. It never writes; the CMS is an
// external store owned by the content team.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a CMS client authenticating with the given read token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Result is one page of records plus the total match count, so callers
// can report "N results, showing M".
type Result struct {
	Records []Record
	Total   int
}

// Query issues one authenticated GET against a collection. A non-2xx
// response yields a *RemoteError; a network failure yields a
// *TransportError. Neither is ever folded into an empty Result.
func (c *Client) Query(ctx context.Context, collection Collection, params url.Values) (*Result, error) {
	u := fmt.Sprintf("%s/api/%s", c.baseURL, collection)
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("cms query failed", "collection", collection, "latency", time.Since(start), "error", err)
		return nil, &TransportError{Collection: collection, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		slog.Warn("cms query failed", "collection", collection, "status", resp.StatusCode, "latency", time.Since(start))
		return nil, &RemoteError{Status: resp.StatusCode, Collection: collection}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Collection: collection, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", collection, err)
	}

	slog.Debug("cms query", "collection", collection, "records", len(env.Data), "total", env.Meta.Pagination.Total, "latency", time.Since(start))
	return &Result{Records: env.Data, Total: env.Meta.Pagination.Total}, nil
}
