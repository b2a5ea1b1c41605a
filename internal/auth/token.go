// Package auth exchanges client credentials for a bearer token.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const tokenPath = "/api/auth/token"

// Encoding selects how the client-credentials request body is sent.
type Encoding string

const (
	EncodingForm Encoding = "form"
	EncodingJSON Encoding = "json"
)

// TokenSource fetches a fresh bearer token on every call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Credentials struct {
	ClientID     string
	ClientSecret string
	SiteID       string // sent as Site-ID by the JSON strategy only
}

// TokenError is returned when the token endpoint answers with a non-200 status.
type TokenError struct {
	StatusCode int
	Body       string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token endpoint status %d: %s", e.StatusCode, e.Body)
}

var ErrNoAccessToken = errors.New("token response has no access_token")

// NewTokenSource returns the strategy for enc against {baseURL}/api/auth/token.
func NewTokenSource(enc Encoding, baseURL string, creds Credentials, httpClient *http.Client) (TokenSource, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	base := tokenEndpoint{
		url:   strings.TrimRight(baseURL, "/") + tokenPath,
		creds: creds,
		http:  httpClient,
	}

	switch enc {
	case EncodingForm:
		return &formTokenSource{base}, nil
	case EncodingJSON, "":
		return &jsonTokenSource{base}, nil
	default:
		return nil, fmt.Errorf("unknown token encoding %q", enc)
	}
}

type tokenEndpoint struct {
	url   string
	creds Credentials
	http  *http.Client
}

type formTokenSource struct {
	tokenEndpoint
}

func (s *formTokenSource) Token(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.creds.ClientID)
	form.Set("client_secret", s.creds.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return s.exchange(req)
}

type jsonTokenSource struct {
	tokenEndpoint
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

func (s *jsonTokenSource) Token(ctx context.Context) (string, error) {
	body, err := json.Marshal(tokenRequest{
		GrantType:    "client_credentials",
		ClientID:     s.creds.ClientID,
		ClientSecret: s.creds.ClientSecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.creds.SiteID != "" {
		req.Header.Set("Site-ID", s.creds.SiteID)
	}

	return s.exchange(req)
}

func (e tokenEndpoint) exchange(req *http.Request) (string, error) {
	resp, err := e.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &TokenError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if out.AccessToken == "" {
		return "", ErrNoAccessToken
	}

	return out.AccessToken, nil
}
