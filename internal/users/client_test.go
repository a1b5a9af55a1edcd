package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInitiateOrder(t *testing.T) {
	var got OrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/pedidos/iniciar" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"url":"https://webpay.example/pay/123"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	url, err := c.InitiateOrder(context.Background(), OrderRequest{
		Phone: "+56912345678",
		Total: 350000,
		Items: []string{"p1", "p2"},
	})
	if err != nil {
		t.Fatalf("InitiateOrder failed: %v", err)
	}
	if url != "https://webpay.example/pay/123" {
		t.Fatalf("url = %q", url)
	}
	if got.Phone != "+56912345678" || got.Total != 350000 || len(got.Items) != 2 {
		t.Fatalf("request = %+v", got)
	}
}

func TestInitiateOrderMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, srv.Client()).InitiateOrder(context.Background(), OrderRequest{}); err == nil {
		t.Fatal("expected error when response has no url")
	}
}

func TestOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pedidos/usuario/+56912345678" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"id":7,"total":350000,"estado":"PAGADO","fecha":"2025-11-02"}]`))
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL, srv.Client()).Orders(context.Background(), "+56912345678")
	if err != nil {
		t.Fatalf("Orders failed: %v", err)
	}
	if len(out) != 1 || out[0].ID != 7 || out[0].Status != "PAGADO" {
		t.Fatalf("orders = %+v", out)
	}
}

func TestUpdateProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/usuarios/42" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["nombre"] != "Manuel" || body["fono"] != "+56912345678" {
			t.Errorf("body = %+v", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, srv.Client()).UpdateProfile(context.Background(), 42, "Manuel", "+56912345678"); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	if err := c.Register(context.Background(), "Manuel", "+56912345678"); err == nil {
		t.Fatal("expected error on 502")
	}
}
