package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/barlacteo/storefront/internal/accounts"
	"github.com/barlacteo/storefront/internal/cart"
	"github.com/barlacteo/storefront/internal/catalog"
	"github.com/barlacteo/storefront/internal/checkout"
	"github.com/barlacteo/storefront/internal/orders"
	"github.com/barlacteo/storefront/internal/profile"
	"github.com/barlacteo/storefront/internal/users"
)

// Remote collaborators, defined here so handler tests can fake them.
type CatalogClient interface {
	Products(ctx context.Context, category, query string) ([]catalog.Product, error)
}

type HistoryClient interface {
	Orders(ctx context.Context, phone string) ([]users.Order, error)
}

type CheckoutService interface {
	Pay(ctx context.Context, userID, phone string) (checkout.Result, error)
}

type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, id int64, name, phone string) error
}

type Handler struct {
	Carts    *cart.Repository
	Accounts *accounts.Repository
	Profile  *profile.Store
	Catalog  CatalogClient
	History  HistoryClient
	Checkout CheckoutService
	Updater  ProfileUpdater
	Ledger   *orders.Ledger // optional
}

func (h *Handler) Register(r *chi.Mux) {
	r.Get("/cart/{userID}", h.getCart)
	r.Post("/cart/{userID}/items", h.addItem)
	r.Post("/cart/{userID}/items/{productID}/qty", h.changeQty)
	r.Delete("/cart/{userID}/items/{productID}", h.removeItem)
	r.Delete("/cart/{userID}", h.clearCart)

	r.Get("/products", h.listProducts)

	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	r.Post("/auth/logout", h.logout)
	r.Get("/auth/session", h.session)

	r.Get("/profile", h.getProfile)
	r.Put("/profile", h.putProfile)

	r.Post("/checkout/{userID}", h.pay)
	r.Get("/orders", h.orderHistory)
	if h.Ledger != nil {
		r.Get("/orders/local", h.localOrders)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

type cartView struct {
	Items      []cart.Item `json:"items"`
	Count      int         `json:"count"`
	TotalCents int64       `json:"total_cents"`
}

func viewOf(c cart.Cart) cartView {
	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}
	return cartView{Items: items, Count: c.Count(), TotalCents: c.TotalCents()}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.Load(ctx, userID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewOf(h.Carts.Snapshot(userID)))
}

type addItemReq struct {
	catalog.Product
	Qty int `json:"qty"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Qty <= 0 {
		req.Qty = 1
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "missing title")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.Load(ctx, userID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.Carts.Add(ctx, userID, req.Product, req.Qty); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewOf(h.Carts.Snapshot(userID)))
}

func (h *Handler) changeQty(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	productID := chi.URLParam(r, "productID")

	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Delta == 0 {
		writeError(w, http.StatusBadRequest, "delta must be non-zero")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.Load(ctx, userID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.Carts.ChangeQty(ctx, userID, productID, req.Delta); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewOf(h.Carts.Snapshot(userID)))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	productID := chi.URLParam(r, "productID")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.Load(ctx, userID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.Carts.Remove(ctx, userID, productID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewOf(h.Carts.Snapshot(userID)))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.Clear(ctx, userID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewOf(h.Carts.Snapshot(userID)))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	ps, err := h.Catalog.Products(ctx, r.URL.Query().Get("categoria"), r.URL.Query().Get("busqueda"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

type credentialsReq struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	switch err := h.Accounts.Register(ctx, req.Name, req.Phone); {
	case err == nil:
		writeJSON(w, http.StatusCreated, accounts.Account{Name: req.Name, Phone: req.Phone})
	case errors.Is(err, accounts.ErrPhoneTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, accounts.ErrInvalidPhone), errors.Is(err, accounts.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	switch err := h.Accounts.Login(ctx, req.Name, req.Phone); {
	case err == nil:
		writeJSON(w, http.StatusOK, accounts.Account{Name: req.Name, Phone: req.Phone})
	case errors.Is(err, accounts.ErrNotFound):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Accounts.Logout(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	acc, ok, err := h.Accounts.Current(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"user_id": accounts.GuestID})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id": acc.Phone,
		"name":    acc.Name,
	})
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Profile.Load(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type putProfileReq struct {
	profile.Profile
	// RemoteID, when set, also pushes name and phone to the users service.
	RemoteID int64 `json:"remoteId,omitempty"`
}

func (h *Handler) putProfile(w http.ResponseWriter, r *http.Request) {
	var req putProfileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if req.RemoteID != 0 && h.Updater != nil {
		if err := h.Updater.UpdateProfile(ctx, req.RemoteID, req.Name, req.Phone); err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
	}
	if err := h.Profile.Save(ctx, req.Profile); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, req.Profile)
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Phone == "" {
		writeError(w, http.StatusBadRequest, "missing phone")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.Checkout.Pay(ctx, userID, req.Phone)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, res)
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("fono")
	if phone == "" {
		writeError(w, http.StatusBadRequest, "missing fono")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	out, err := h.History.Orders(ctx, phone)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if out == nil {
		out = []users.Order{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) localOrders(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("fono")
	if phone == "" {
		writeError(w, http.StatusBadRequest, "missing fono")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	recs, err := h.Ledger.ByPhone(ctx, phone)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []orders.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}
