package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"catalog-bridge/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var creds = Credentials{ClientID: "cid", ClientSecret: "csecret", SiteID: "site-9"}

func TestJSONTokenSource(t *testing.T) {
	api := testutil.NewMockAPI()
	defer api.Close()
	api.Token = "json-token"

	ts, err := NewTokenSource(EncodingJSON, api.URL(), creds, nil)
	require.NoError(t, err)

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "json-token", tok)

	h, body := api.TokenRequest()
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	assert.Equal(t, "application/json", h.Get("Accept"))
	assert.Equal(t, "site-9", h.Get("Site-ID"))

	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     "cid",
		"client_secret": "csecret",
	}, got)
}

func TestFormTokenSource(t *testing.T) {
	api := testutil.NewMockAPI()
	defer api.Close()

	ts, err := NewTokenSource(EncodingForm, api.URL()+"/", creds, nil)
	require.NoError(t, err)

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-token", tok)

	h, body := api.TokenRequest()
	assert.Equal(t, "application/x-www-form-urlencoded", h.Get("Content-Type"))
	assert.Empty(t, h.Get("Site-ID"))

	form, err := url.ParseQuery(string(body))
	require.NoError(t, err)
	assert.Equal(t, "client_credentials", form.Get("grant_type"))
	assert.Equal(t, "cid", form.Get("client_id"))
	assert.Equal(t, "csecret", form.Get("client_secret"))
}

func TestTokenSource_NotCached(t *testing.T) {
	api := testutil.NewMockAPI()
	defer api.Close()

	ts, err := NewTokenSource(EncodingJSON, api.URL(), creds, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := ts.Token(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, api.TokenRequests())
}

func TestTokenSource_Rejected(t *testing.T) {
	api := testutil.NewMockAPI()
	defer api.Close()
	api.TokenStatus = http.StatusUnauthorized

	for _, enc := range []Encoding{EncodingForm, EncodingJSON} {
		ts, err := NewTokenSource(enc, api.URL(), creds, nil)
		require.NoError(t, err)

		_, err = ts.Token(context.Background())
		var tokenErr *TokenError
		require.True(t, errors.As(err, &tokenErr), "encoding %s", enc)
		assert.Equal(t, http.StatusUnauthorized, tokenErr.StatusCode)
		assert.Contains(t, tokenErr.Body, "invalid_client")
	}
}

func TestTokenSource_EmptyToken(t *testing.T) {
	api := testutil.NewMockAPI()
	defer api.Close()
	api.Token = ""

	ts, err := NewTokenSource(EncodingJSON, api.URL(), creds, nil)
	require.NoError(t, err)

	_, err = ts.Token(context.Background())
	require.ErrorIs(t, err, ErrNoAccessToken)
}

func TestNewTokenSource_UnknownEncoding(t *testing.T) {
	_, err := NewTokenSource("xml", "http://localhost", creds, nil)
	require.Error(t, err)
}
