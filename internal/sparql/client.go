// Package sparql implements the backing-store protocol: SPARQL queries and
// updates over HTTP, plus the term encoding the store's exact-match
// semantics require.
package sparql

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Binding is one solution row of a SELECT result: variable name to term.
type Binding map[string]BoundTerm

// BoundTerm is one bound value in a SELECT result row.
type BoundTerm struct {
	Type     string `json:"type"` // "uri", "literal", "typed-literal", "bnode"
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Client is the query/update contract the store wrapper is built on.
type Client interface {
	// Select runs a SELECT query and returns its solution rows.
	Select(ctx context.Context, query string) ([]Binding, error)
	// Ask runs an ASK query.
	Ask(ctx context.Context, query string) (bool, error)
	// Update runs an update (INSERT DATA / DELETE DATA) operation.
	Update(ctx context.Context, update string) error
}

// HTTPClient talks the SPARQL 1.1 protocol to an endpoint pair.
type HTTPClient struct {
	queryURL  string
	updateURL string
	hc        *http.Client
}

// NewHTTPClient creates a protocol client. An empty updateURL falls back to
// the query URL (single-endpoint stores).
func NewHTTPClient(queryURL, updateURL string, timeout time.Duration) *HTTPClient {
	if updateURL == "" {
		updateURL = queryURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		queryURL:  queryURL,
		updateURL: updateURL,
		hc:        &http.Client{Timeout: timeout},
	}
}

type selectResponse struct {
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean,omitempty"`
}

func (c *HTTPClient) post(ctx context.Context, endpoint, field, body string) ([]byte, error) {
	form := url.Values{field: {body}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("sparql: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sparql: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sparql: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(raw)
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		return nil, fmt.Errorf("sparql: endpoint returned %d: %s", resp.StatusCode, snippet)
	}
	return raw, nil
}

// Select implements Client.
func (c *HTTPClient) Select(ctx context.Context, query string) ([]Binding, error) {
	raw, err := c.post(ctx, c.queryURL, "query", query)
	if err != nil {
		return nil, err
	}
	var parsed selectResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("sparql: decode results: %w", err)
	}
	return parsed.Results.Bindings, nil
}

// Ask implements Client.
func (c *HTTPClient) Ask(ctx context.Context, query string) (bool, error) {
	raw, err := c.post(ctx, c.queryURL, "query", query)
	if err != nil {
		return false, err
	}
	var parsed selectResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return false, fmt.Errorf("sparql: decode results: %w", err)
	}
	if parsed.Boolean == nil {
		return false, fmt.Errorf("sparql: ASK response carried no boolean")
	}
	return *parsed.Boolean, nil
}

// Update implements Client.
func (c *HTTPClient) Update(ctx context.Context, update string) error {
	started := time.Now()
	_, err := c.post(ctx, c.updateURL, "update", update)
	if err != nil {
		return err
	}
	slog.Debug("SPARQL: update applied", "duration", time.Since(started))
	return nil
}
