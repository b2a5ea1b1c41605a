// Package testutil provides an in-process stand-in for the catalog and
// pricing APIs.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
)

const (
	CatalogPath = "/api/v3/queries/{queryID}/items"
	TokenPath   = "/api/auth/token"
	PricingPath = "/api/v1/price-lists/wholesale/pricing"
)

// MockAPI serves the catalog listing, token and pricing endpoints. Exported
// fields configure responses and must be set before the first request;
// recorded requests are read through the accessor methods.
type MockAPI struct {
	server *httptest.Server

	// Catalog listing
	Items        []map[string]any
	TotalKey     string // "total", "totalCount", "pagination.total_results" or "" for none
	FailAtOffset int    // -1 never fails
	FailStatus   int
	FailBody     string

	// Token endpoint
	Token       string
	TokenStatus int

	// Pricing endpoint
	PatchStatus int
	PatchBody   string

	mu             sync.Mutex
	catalogQueries []url.Values
	catalogHeader  http.Header
	queryID        string
	tokenRequests  int
	tokenHeader    http.Header
	tokenBody      []byte
	patchRequests  int
	patchHeader    http.Header
	patchBody      []byte
}

func NewMockAPI() *MockAPI {
	m := &MockAPI{
		FailAtOffset: -1,
		FailStatus:   http.StatusInternalServerError,
		Token:        "test-token",
		TokenStatus:  http.StatusOK,
		PatchStatus:  http.StatusNoContent,
	}

	r := mux.NewRouter()
	r.HandleFunc(CatalogPath, m.handleCatalog).Methods(http.MethodGet)
	r.HandleFunc(TokenPath, m.handleToken).Methods(http.MethodPost)
	r.HandleFunc(PricingPath, m.handlePricing).Methods(http.MethodPatch)

	m.server = httptest.NewServer(r)
	return m
}

func (m *MockAPI) URL() string {
	return m.server.URL
}

func (m *MockAPI) Close() {
	m.server.Close()
}

// GenerateItems returns n items with sku, price_trade and name fields.
func GenerateItems(n int) []map[string]any {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{
			"sku":         fmt.Sprintf("SKU-%04d", i),
			"price_trade": float64(i) + 0.99,
			"name":        fmt.Sprintf("Product %d", i),
		}
	}
	return items
}

func (m *MockAPI) handleCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	m.mu.Lock()
	m.catalogQueries = append(m.catalogQueries, q)
	m.catalogHeader = r.Header.Clone()
	m.queryID = mux.Vars(r)["queryID"]
	m.mu.Unlock()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	if m.FailAtOffset >= 0 && offset == m.FailAtOffset {
		w.WriteHeader(m.FailStatus)
		_, _ = io.WriteString(w, m.FailBody)
		return
	}

	end := min(offset+limit, len(m.Items))
	page := []map[string]any{}
	if offset < end {
		page = m.Items[offset:end]
	}

	resp := map[string]any{"items": page}
	switch m.TotalKey {
	case "":
	case "pagination.total_results":
		resp["pagination"] = map[string]any{"total_results": len(m.Items)}
	default:
		resp[m.TotalKey] = len(m.Items)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (m *MockAPI) handleToken(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.tokenRequests++
	m.tokenHeader = r.Header.Clone()
	m.tokenBody = body
	m.mu.Unlock()

	if m.TokenStatus != http.StatusOK {
		writeJSON(w, m.TokenStatus, map[string]any{"error": "invalid_client"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": m.Token,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (m *MockAPI) handlePricing(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.patchRequests++
	m.patchHeader = r.Header.Clone()
	m.patchBody = body
	m.mu.Unlock()

	w.WriteHeader(m.PatchStatus)
	if m.PatchBody != "" {
		_, _ = io.WriteString(w, m.PatchBody)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// CatalogQueries returns the query string of every catalog request, in order.
func (m *MockAPI) CatalogQueries() []url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]url.Values(nil), m.catalogQueries...)
}

func (m *MockAPI) CatalogHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalogHeader
}

func (m *MockAPI) QueryID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryID
}

func (m *MockAPI) TokenRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenRequests
}

func (m *MockAPI) TokenRequest() (http.Header, []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenHeader, m.tokenBody
}

func (m *MockAPI) PatchRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.patchRequests
}

func (m *MockAPI) PatchRequest() (http.Header, []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.patchHeader, m.patchBody
}
