package catalog

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type catsyClient struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewHTTPClient returns a PageClient for the query listing endpoint
// {baseURL}/api/v3/queries/{queryID}/items.
func NewHTTPClient(baseURL, queryID, bearerToken string, httpClient *http.Client) PageClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &catsyClient{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/v3/queries/" + url.PathEscape(queryID) + "/items",
		token:    bearerToken,
		http:     httpClient,
	}
}

func (c *catsyClient) FetchPage(ctx context.Context, offset, limit int) (Page, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return Page{}, err
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, &TransportError{Kind: classifyTransport(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, &TransportError{Kind: classifyTransport(err), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return Page{}, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), maxBodyExcerpt),
		}
	}

	page, err := decodePage(body)
	if err != nil {
		return Page{}, &DecodeError{Err: err}
	}
	return page, nil
}
