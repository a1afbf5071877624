package catalog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniShop/internal/auth"
	"MiniShop/internal/catalog"
	"MiniShop/pkg/kit"
)

const testJWTSecret = "test-secret-that-is-at-least-32-chars!!"

func seedDoc() catalog.Document {
	return catalog.Document{
		Products: []catalog.Product{
			{ID: 1, Name: "Keyboard", Price: 100, Image: "k.jpg", Tags: []string{"input"}, Rating: 4.5, Stock: 3},
			{ID: 2, Name: "Mouse", Price: 50, Image: "m.jpg", Tags: []string{"input"}, Rating: 4, Stock: 10},
		},
		NewProductIDs:        []int{2},
		PopularProductIDs:    []int{1},
		WishlistedProductIDs: []int{},
	}
}

func newCatalogTS(t *testing.T, mutate ...func(*catalog.Server)) (*httptest.Server, *catalog.Store) {
	t.Helper()

	store, err := catalog.Open(context.Background(), catalog.Options{
		Backend:  catalog.NewMemBackend(seedDoc()),
		RandSeed: 7,
	})
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}

	s := &catalog.Server{Store: store, Log: zap.NewNop()}
	for _, m := range mutate {
		m(s)
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "catalog",
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts, store
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func mustStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status=%d want=%d body=%s", resp.StatusCode, want, string(body))
	}
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("unmarshal %s: %v", string(body), err)
	}
	return v
}

type errorBody struct {
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
	RequestID string         `json:"request_id"`
}

type cartBody struct {
	Message string         `json:"message"`
	Cart    map[string]int `json:"cart"`
}

type wishlistBody struct {
	Message       string               `json:"message"`
	WishlistedIDs []int                `json:"wishlistedIds"`
	Product       *catalog.ProductView `json:"product"`
}

func TestIndex(t *testing.T) {
	ts, _ := newCatalogTS(t)
	c := ts.Client()

	resp, body := doJSON(t, c, http.MethodGet, ts.URL+"/", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)

	got := decode[struct {
		Message   string            `json:"message"`
		Version   string            `json:"version"`
		Endpoints map[string]string `json:"endpoints"`
	}](t, body)

	if got.Message != "Welcome to the Product API!" {
		t.Fatalf("message=%q", got.Message)
	}
	if got.Version != catalog.APIVersion {
		t.Fatalf("version=%q", got.Version)
	}
	if got.Endpoints["shopping_cart"] != "/cart" {
		t.Fatalf("endpoints=%v", got.Endpoints)
	}
}

func TestProducts_ListAndGet(t *testing.T) {
	ts, _ := newCatalogTS(t)
	c := ts.Client()

	resp, body := doJSON(t, c, http.MethodGet, ts.URL+"/products", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)
	if list := decode[[]catalog.ProductView](t, body); len(list) != 2 {
		t.Fatalf("products=%d want 2", len(list))
	}

	resp, body = doJSON(t, c, http.MethodGet, ts.URL+"/products/new", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)
	if list := decode[[]catalog.ProductView](t, body); len(list) != 1 || list[0].ID != 2 {
		t.Fatalf("new=%s", string(body))
	}

	resp, body = doJSON(t, c, http.MethodGet, ts.URL+"/products/popular", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)
	if list := decode[[]catalog.ProductView](t, body); len(list) != 1 || list[0].ID != 1 {
		t.Fatalf("popular=%s", string(body))
	}

	resp, body = doJSON(t, c, http.MethodGet, ts.URL+"/products/carousel", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)
	if list := decode[[]catalog.ProductView](t, body); len(list) != 2 {
		t.Fatalf("carousel=%s", string(body))
	}

	resp, body = doJSON(t, c, http.MethodGet, ts.URL+"/products/1", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)
	p := decode[catalog.ProductView](t, body)
	if p.Name != "Keyboard" || p.IsWishlisted {
		t.Fatalf("product=%+v", p)
	}
}

func TestProducts_GetUnknown(t *testing.T) {
	ts, _ := newCatalogTS(t)
	c := ts.Client()

	for _, path := range []string{"/products/999", "/products/abc"} {
		resp, body := doJSON(t, c, http.MethodGet, ts.URL+path, nil, nil)
		mustStatus(t, resp, body, http.StatusNotFound)

		if got := decode[errorBody](t, body); got.Message != "Product not found" {
			t.Fatalf("%s: message=%q", path, got.Message)
		}
	}
}

func TestProducts_Create(t *testing.T) {
	ts, store := newCatalogTS(t)
	c := ts.Client()

	resp, body := doJSON(t, c, http.MethodPost, ts.URL+"/products", map[string]any{
		"name":  "Cable",
		"price": 25,
		"image": "c.jpg",
		"tags":  []string{"accessory"},
		"stock": 8,
	}, nil)
	mustStatus(t, resp, body, http.StatusCreated)

	p := decode[catalog.ProductView](t, body)
	if p.ID != 3 || p.Name != "Cable" || p.Rating != 0 || p.Description != "" {
		t.Fatalf("created=%+v", p)
	}
	if got, err := store.Get(context.Background(), 3); err != nil || got.Stock != 8 {
		t.Fatalf("stored=%+v err=%v", got, err)
	}
}

func TestProducts_CreateInvalid(t *testing.T) {
	ts, _ := newCatalogTS(t)
	c := ts.Client()

	resp, body := doJSON(t, c, http.MethodPost, ts.URL+"/products", map[string]any{"name": "Cable"}, nil)
	mustStatus(t, resp, body, http.StatusBadRequest)

	got := decode[errorBody](t, body)
	if !strings.HasPrefix(got.Message, "Invalid input. Missing or invalid fields:") {
		t.Fatalf("message=%q", got.Message)
	}
	if got.RequestID == "" {
		t.Fatalf("expected request_id in error body")
	}
	if fields, _ := got.Details["fields"].([]any); len(fields) != 4 {
		t.Fatalf("details=%v", got.Details)
	}

	resp, body = doJSON(t, c, http.MethodPost, ts.URL+"/products", `{"name":`, nil)
	mustStatus(t, resp, body, http.StatusBadRequest)
	if got := decode[errorBody](t, body); got.Message != "Invalid JSON payload." {
		t.Fatalf("message=%q", got.Message)
	}
}

func TestProducts_CreateRequiresAdmin(t *testing.T) {
	jwt := auth.NewTokenMaker(testJWTSecret)
	ts, _ := newCatalogTS(t, func(s *catalog.Server) { s.RequireAdmin = auth.RequireAdmin(jwt) })
	c := ts.Client()

	payload := map[string]any{"name": "Cable", "price": 25, "image": "c.jpg", "tags": []string{}, "stock": 8}

	resp, body := doJSON(t, c, http.MethodPost, ts.URL+"/products", payload, nil)
	mustStatus(t, resp, body, http.StatusUnauthorized)

	tok, err := jwt.New("admin", auth.RoleAdmin, time.Minute)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	resp, body = doJSON(t, c, http.MethodPost, ts.URL+"/products", payload, map[string]string{
		"Authorization": "Bearer " + tok,
	})
	mustStatus(t, resp, body, http.StatusCreated)

	// reads stay public
	resp, body = doJSON(t, c, http.MethodGet, ts.URL+"/products/3", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)
}

func TestWishlistFlow(t *testing.T) {
	ts, _ := newCatalogTS(t)
	c := ts.Client()

	resp, body := doJSON(t, c, http.MethodPost, ts.URL+"/products/1/wishlist", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)
	added := decode[wishlistBody](t, body)
	if added.Message != "Product with id 1 has been added to wishlist." {
		t.Fatalf("message=%q", added.Message)
	}
	if len(added.WishlistedIDs) != 1 || added.Product == nil || !added.Product.IsWishlisted {
		t.Fatalf("add=%s", string(body))
	}

	resp, body = doJSON(t, c, http.MethodGet, ts.URL+"/products/wishlist", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)
	if list := decode[[]catalog.ProductView](t, body); len(list) != 1 || list[0].ID != 1 {
		t.Fatalf("wishlist=%s", string(body))
	}

	resp, body = doJSON(t, c, http.MethodDelete, ts.URL+"/products/1/wishlist", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)
	if got := decode[wishlistBody](t, body); got.Message != "Product with id 1 has been removed from wishlist." || len(got.WishlistedIDs) != 0 {
		t.Fatalf("remove=%s", string(body))
	}

	resp, body = doJSON(t, c, http.MethodDelete, ts.URL+"/products/1/wishlist", nil, nil)
	mustStatus(t, resp, body, http.StatusNotFound)
	if got := decode[errorBody](t, body); got.Message != "Product was not in wishlist." {
		t.Fatalf("message=%q", got.Message)
	}

	resp, body = doJSON(t, c, http.MethodPost, ts.URL+"/products/999/wishlist", nil, nil)
	mustStatus(t, resp, body, http.StatusNotFound)
}

func TestCartFlow(t *testing.T) {
	ts, _ := newCatalogTS(t)
	c := ts.Client()

	resp, body := doJSON(t, c, http.MethodPost, ts.URL+"/cart", map[string]any{"productId": 1, "quantity": 2}, nil)
	mustStatus(t, resp, body, http.StatusOK)
	set := decode[cartBody](t, body)
	if set.Message != "2 x Keyboard has been added/updated in your cart." || set.Cart["1"] != 2 {
		t.Fatalf("set=%s", string(body))
	}

	resp, body = doJSON(t, c, http.MethodPost, ts.URL+"/cart", map[string]any{"productId": 1, "quantity": 5}, nil)
	mustStatus(t, resp, body, http.StatusBadRequest)
	if got := decode[errorBody](t, body); got.Message != "Insufficient stock for Keyboard. Only 3 left." {
		t.Fatalf("message=%q", got.Message)
	}

	resp, body = doJSON(t, c, http.MethodPost, ts.URL+"/cart/item", map[string]any{"productId": 2}, nil)
	mustStatus(t, resp, body, http.StatusOK)
	if got := decode[cartBody](t, body); got.Message != "Mouse has been added to your cart (total: 1)." {
		t.Fatalf("message=%q", got.Message)
	}

	resp, body = doJSON(t, c, http.MethodGet, ts.URL+"/cart", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)
	view := decode[catalog.CartView](t, body)
	if len(view.Items) != 2 || view.Summary.TotalItems != 3 || view.Summary.TotalPrice != 250 {
		t.Fatalf("cart=%s", string(body))
	}
	if view.Items[0].ID != 1 || view.Items[0].QuantityInCart != 2 {
		t.Fatalf("first line=%+v", view.Items[0])
	}

	resp, body = doJSON(t, c, http.MethodDelete, ts.URL+"/cart/item/1", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)
	removed := decode[cartBody](t, body)
	if removed.Message != "Product with id 1 has been removed from the cart." || len(removed.Cart) != 1 {
		t.Fatalf("remove=%s", string(body))
	}

	resp, body = doJSON(t, c, http.MethodDelete, ts.URL+"/cart/item/1", nil, nil)
	mustStatus(t, resp, body, http.StatusNotFound)
	if got := decode[errorBody](t, body); got.Message != "Product not found in cart." {
		t.Fatalf("message=%q", got.Message)
	}
}

func TestCart_IncrementPastStock(t *testing.T) {
	ts, _ := newCatalogTS(t)
	c := ts.Client()

	for i := 0; i < 3; i++ {
		resp, body := doJSON(t, c, http.MethodPost, ts.URL+"/cart/item", map[string]any{"productId": 1}, nil)
		mustStatus(t, resp, body, http.StatusOK)
	}

	resp, body := doJSON(t, c, http.MethodPost, ts.URL+"/cart/item", map[string]any{"productId": 1}, nil)
	mustStatus(t, resp, body, http.StatusBadRequest)
	if got := decode[errorBody](t, body); got.Message != "Insufficient stock for Keyboard. Only 0 left in cart." {
		t.Fatalf("message=%q", got.Message)
	}
}

func TestCart_InvalidInput(t *testing.T) {
	ts, _ := newCatalogTS(t)
	c := ts.Client()

	tests := []struct {
		name string
		path string
		body any
		want string
	}{
		{name: "missing quantity", path: "/cart", body: map[string]any{"productId": 1}, want: "Invalid input. 'productId' and a positive 'quantity' are required."},
		{name: "zero quantity", path: "/cart", body: map[string]any{"productId": 1, "quantity": 0}, want: "Invalid input. 'productId' and a positive 'quantity' are required."},
		{name: "negative quantity", path: "/cart", body: map[string]any{"productId": 1, "quantity": -1}, want: "Invalid input. 'productId' and a positive 'quantity' are required."},
		{name: "fractional quantity", path: "/cart", body: map[string]any{"productId": 1, "quantity": 1.5}, want: "Invalid input. 'productId' and a positive 'quantity' are required."},
		{name: "string quantity", path: "/cart", body: `{"productId": 1, "quantity": "2"}`, want: "Invalid input. 'productId' and a positive 'quantity' are required."},
		{name: "missing product", path: "/cart", body: map[string]any{"quantity": 1}, want: "Invalid input. 'productId' and a positive 'quantity' are required."},
		{name: "increment without id", path: "/cart/item", body: map[string]any{}, want: "Invalid input. 'productId' is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, c, http.MethodPost, ts.URL+tt.path, tt.body, nil)
			mustStatus(t, resp, body, http.StatusBadRequest)
			if got := decode[errorBody](t, body); got.Message != tt.want {
				t.Fatalf("message=%q want %q", got.Message, tt.want)
			}
		})
	}

	resp, body := doJSON(t, c, http.MethodPost, ts.URL+"/cart", map[string]any{"productId": 999, "quantity": 1}, nil)
	mustStatus(t, resp, body, http.StatusNotFound)
}

func TestPersistFailureIs500(t *testing.T) {
	backend := catalog.NewMemBackend(seedDoc())
	store, err := catalog.Open(context.Background(), catalog.Options{Backend: backend})
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	ts := httptest.NewServer(catalog.NewHandler(&catalog.Server{Store: store}, catalog.HTTPDeps{}))
	t.Cleanup(ts.Close)

	backend.FailSaves(io.ErrShortWrite)

	resp, body := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/cart/item", map[string]any{"productId": 1}, nil)
	mustStatus(t, resp, body, http.StatusInternalServerError)
	if _, ok := store.CartQuantity(1); ok {
		t.Fatalf("cart changed despite failed save")
	}
}

func TestMutationsRateLimited(t *testing.T) {
	ts, _ := newCatalogTS(t, func(s *catalog.Server) { s.Limiter = kit.NewIPRateLimiter(0, 1) })
	c := ts.Client()

	resp, body := doJSON(t, c, http.MethodPost, ts.URL+"/products/1/wishlist", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)

	resp, body = doJSON(t, c, http.MethodPost, ts.URL+"/products/2/wishlist", nil, nil)
	mustStatus(t, resp, body, http.StatusTooManyRequests)

	// reads are never limited
	resp, body = doJSON(t, c, http.MethodGet, ts.URL+"/products", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)
}

func TestMetricsEndpoint(t *testing.T) {
	store, err := catalog.Open(context.Background(), catalog.Options{Backend: catalog.NewMemBackend(seedDoc())})
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}

	reg := prometheus.NewRegistry()
	ts := httptest.NewServer(catalog.NewHandler(&catalog.Server{Store: store}, catalog.HTTPDeps{
		Log:            zap.NewNop(),
		Service:        "catalog",
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   "scrape",
	}))
	t.Cleanup(ts.Close)
	c := ts.Client()

	resp, body := doJSON(t, c, http.MethodGet, ts.URL+"/products", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)

	resp, body = doJSON(t, c, http.MethodGet, ts.URL+"/metrics", nil, nil)
	mustStatus(t, resp, body, http.StatusForbidden)

	resp, body = doJSON(t, c, http.MethodGet, ts.URL+"/metrics", nil, map[string]string{"Authorization": "Bearer scrape"})
	mustStatus(t, resp, body, http.StatusOK)
	if !strings.Contains(string(body), "minishop_http_requests_total") {
		t.Fatalf("metrics body missing request counter")
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newCatalogTS(t)
	c := ts.Client()

	resp, body := doJSON(t, c, http.MethodGet, ts.URL+"/healthz", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)

	resp, body = doJSON(t, c, http.MethodGet, ts.URL+"/readyz", nil, nil)
	mustStatus(t, resp, body, http.StatusOK)
}
