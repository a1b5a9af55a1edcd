// Package users talks to the remote user/orders service. Wire field
// names (fonoUsuario, estado, ...) are fixed by that service.
package users

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type RemoteAccount struct {
	ID    int64  `json:"id"`
	Name  string `json:"nombre"`
	Phone string `json:"fono"`
}

type Order struct {
	ID     int64  `json:"id"`
	Total  int64  `json:"total"`
	Status string `json:"estado"` // PENDIENTE | PAGADO
	Date   string `json:"fecha,omitempty"`
}

// OrderRequest initiates a payment; total is in minor units.
type OrderRequest struct {
	Phone string   `json:"fonoUsuario"`
	Total int64    `json:"total"`
	Items []string `json:"items"`
}

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

func (c *Client) Register(ctx context.Context, name, phone string) error {
	body := map[string]string{"nombre": name, "fono": phone}
	return c.doJSON(ctx, http.MethodPost, "/api/usuarios/registro", body, nil)
}

func (c *Client) Login(ctx context.Context, name, phone string) (RemoteAccount, error) {
	body := map[string]string{"nombre": name, "fono": phone}
	var acc RemoteAccount
	if err := c.doJSON(ctx, http.MethodPost, "/api/usuarios/login", body, &acc); err != nil {
		return RemoteAccount{}, err
	}
	return acc, nil
}

func (c *Client) UpdateProfile(ctx context.Context, id int64, name, phone string) error {
	body := map[string]string{"nombre": name, "fono": phone}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/usuarios/%d", id), body, nil)
}

// InitiateOrder starts a payment and returns the Webpay redirect URL.
func (c *Client) InitiateOrder(ctx context.Context, req OrderRequest) (string, error) {
	var out map[string]string
	if err := c.doJSON(ctx, http.MethodPost, "/api/pedidos/iniciar", req, &out); err != nil {
		return "", err
	}
	u := out["url"]
	if u == "" {
		return "", fmt.Errorf("users: initiate order: no payment url in response")
	}
	return u, nil
}

// Orders returns the order history for a phone.
func (c *Client) Orders(ctx context.Context, phone string) ([]Order, error) {
	var out []Order
	path := "/api/pedidos/usuario/" + url.PathEscape(phone)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("users: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("users: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("users: %s %s: server status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("users: decode response: %w", err)
	}
	return nil
}
