package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client fetches products from the remote catalog service.
type Client struct {
	base string
	http *http.Client
}

func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: base, http: hc}
}

// Products lists catalog products, optionally filtered server-side by
// category and free-text query.
func (c *Client) Products(ctx context.Context, category, query string) ([]Product, error) {
	u, err := url.Parse(c.base + "/api/productos")
	if err != nil {
		return nil, fmt.Errorf("catalog: bad base url: %w", err)
	}
	q := u.Query()
	if category != "" {
		q.Set("categoria", category)
	}
	if query != "" {
		q.Set("busqueda", query)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("catalog: server status %d", resp.StatusCode)
	}

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("catalog: decode products: %w", err)
	}
	return products, nil
}
