package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniShop/pkg/kit"
)

const (
	APIVersion          = "1.0.0"
	DefaultCarouselSize = 5
)

type Server struct {
	Store *Store
	Log   *zap.Logger

	CarouselSize int
	// RequireAdmin guards product creation when set.
	RequireAdmin func(http.Handler) http.Handler
	// Limiter throttles mutating routes when set.
	Limiter *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.index)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.readyz)

	mutating := s.mutatingMiddleware()
	creating := mutating
	if s.RequireAdmin != nil {
		creating = append([]func(http.Handler) http.Handler{s.RequireAdmin}, mutating...)
	}

	r.Route("/products", func(pr chi.Router) {
		pr.Get("/", s.listProducts)
		pr.Get("/new", s.listNew)
		pr.Get("/popular", s.listPopular)
		pr.Get("/carousel", s.carousel)
		pr.Get("/wishlist", s.listWishlist)
		pr.Get("/{id}", s.getProduct)

		pr.With(creating...).Post("/", s.createProduct)
		pr.With(mutating...).Post("/{id}/wishlist", s.addToWishlist)
		pr.With(mutating...).Delete("/{id}/wishlist", s.removeFromWishlist)
	})

	r.Route("/cart", func(cr chi.Router) {
		cr.Get("/", s.viewCart)
		cr.With(mutating...).Post("/", s.setCartQuantity)
		cr.With(mutating...).Post("/item", s.incrementCartItem)
		cr.With(mutating...).Delete("/item/{id}", s.removeCartItem)
	})

	return r
}

func (s *Server) mutatingMiddleware() []func(http.Handler) http.Handler {
	if s.Limiter == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{s.Limiter.Middleware}
}

type indexResp struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, indexResp{
		Message: "Welcome to the Product API!",
		Version: APIVersion,
		Endpoints: map[string]string{
			"all_products":         "/products",
			"new_products":         "/products/new",
			"popular_products":     "/products/popular",
			"carousel_products":    "/products/carousel",
			"product_by_id":        "/products/{id}",
			"create_product":       "POST /products",
			"wishlist":             "/products/wishlist",
			"add_to_wishlist":      "POST /products/{id}/wishlist",
			"remove_from_wishlist": "DELETE /products/{id}/wishlist",
			"shopping_cart":        "/cart",
			"add_to_cart":          "POST /cart",
			"increment_cart_item":  "POST /cart/item",
			"remove_from_cart":     "DELETE /cart/item/{id}",
		},
	})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		if s.Log != nil {
			s.Log.Warn("readyz failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.List(r.Context()))
}

func (s *Server) listNew(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.ListNew(r.Context()))
}

func (s *Server) listPopular(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.ListPopular(r.Context()))
}

func (s *Server) carousel(w http.ResponseWriter, r *http.Request) {
	n := s.CarouselSize
	if n <= 0 {
		n = DefaultCarouselSize
	}
	kit.WriteJSON(w, http.StatusOK, s.Store.Carousel(r.Context(), n))
}

func (s *Server) listWishlist(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.Wishlisted(r.Context()))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.writeStoreError(w, r, ErrProductNotFound, "")
		return
	}

	p, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req NewProduct
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "Invalid JSON payload.", nil)
		return
	}

	p, err := s.Store.Create(r.Context(), req)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	if s.Log != nil {
		s.Log.Info("product created", zap.Int("product_id", p.ID), zap.String("name", p.Name))
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

// pathID parses the {id} route param. Non-numeric ids match nothing.
func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

// writeStoreError maps store errors to responses. invalidMsg overrides the
// message for ErrInvalidInput.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, invalidMsg string) {
	var (
		verr  *ValidationError
		stock *InsufficientStockError
	)

	switch {
	case errors.As(err, &verr):
		kit.WriteError(w, r, http.StatusBadRequest,
			"Invalid input. Missing or invalid fields: "+strings.Join(verr.Fields, ", ")+".",
			map[string]any{"fields": verr.Fields})
	case errors.As(err, &stock):
		kit.WriteError(w, r, http.StatusBadRequest, stock.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		if invalidMsg == "" {
			invalidMsg = "Invalid input."
		}
		kit.WriteError(w, r, http.StatusBadRequest, invalidMsg, nil)
	case errors.Is(err, ErrProductNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
	case errors.Is(err, ErrNotInWishlist):
		kit.WriteError(w, r, http.StatusNotFound, "Product was not in wishlist.", nil)
	case errors.Is(err, ErrNotInCart):
		kit.WriteError(w, r, http.StatusNotFound, "Product not found in cart.", nil)
	default:
		if s.Log != nil {
			s.Log.Error("store operation failed", zap.Error(err), zap.String("path", r.URL.Path))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
