package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"catalog-bridge/internal/auth"
)

const pricingPath = "/api/v1/price-lists/wholesale/pricing"

type Client struct {
	endpoint string
	siteID   string
	tokens   auth.TokenSource
	http     *http.Client
	logger   *log.Logger
}

func NewClient(baseURL, siteID string, tokens auth.TokenSource, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + pricingPath,
		siteID:   siteID,
		tokens:   tokens,
		http:     httpClient,
		logger:   logger,
	}
}

// Outcome is how the pricing API answered one PATCH.
type Outcome struct {
	StatusCode int
	Accepted   bool
	Result     any // decoded body of an accepted response, nil when empty
}

// Submit sends updates as one PATCH with a freshly acquired token.
//
// A rejected update (any status other than 200, 201 or 204) is logged and
// reported as (nil, nil). An accepted update returns the decoded response
// body, or nil when the body is empty. Errors are returned only when no
// answer could be obtained: token failure, transport failure, or an
// accepted response that is not JSON.
func (c *Client) Submit(ctx context.Context, updates []Update) (any, error) {
	out, err := c.Send(ctx, updates)
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}

// Send is Submit with the response status kept.
func (c *Client) Send(ctx context.Context, updates []Update) (Outcome, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("acquire token: %w", err)
	}

	payload, err := json.Marshal(updates)
	if err != nil {
		return Outcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Site-Id", c.siteID)

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("patch pricing: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, fmt.Errorf("read pricing response: %w", err)
	}

	out := Outcome{StatusCode: resp.StatusCode}
	if !accepted(resp.StatusCode) {
		c.logger.Printf("patch error %d: %s", resp.StatusCode, body)
		return out, nil
	}

	out.Accepted = true
	c.logger.Printf("patch successful (%d), %d updates", resp.StatusCode, len(updates))
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(body, &out.Result); err != nil {
		return out, fmt.Errorf("decode pricing response: %w", err)
	}
	return out, nil
}

func accepted(status int) bool {
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return true
	default:
		return false
	}
}
