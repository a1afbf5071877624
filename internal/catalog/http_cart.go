package catalog

import (
	"fmt"
	"math"
	"net/http"

	"MiniShop/pkg/kit"
)

const (
	msgSetCartInvalid       = "Invalid input. 'productId' and a positive 'quantity' are required."
	msgIncrementCartInvalid = "Invalid input. 'productId' is required."
)

type setCartReq struct {
	ProductID int     `json:"productId" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
}

type incrementCartReq struct {
	ProductID int `json:"productId" validate:"required"`
}

type cartResp struct {
	Message string      `json:"message"`
	Cart    map[int]int `json:"cart"`
}

func (s *Server) viewCart(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.Cart(r.Context()))
}

func (s *Server) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req setCartReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, msgSetCartInvalid, nil)
		return
	}
	if err := validate.Struct(req); err != nil || req.Quantity != math.Trunc(req.Quantity) || req.Quantity > math.MaxInt32 {
		kit.WriteError(w, r, http.StatusBadRequest, msgSetCartInvalid, nil)
		return
	}

	res, err := s.Store.SetCartQuantity(r.Context(), req.ProductID, int(req.Quantity))
	if err != nil {
		s.writeStoreError(w, r, err, msgSetCartInvalid)
		return
	}

	kit.WriteJSON(w, http.StatusOK, cartResp{
		Message: fmt.Sprintf("%d x %s has been added/updated in your cart.", res.Quantity, res.Product.Name),
		Cart:    res.Cart,
	})
}

func (s *Server) incrementCartItem(w http.ResponseWriter, r *http.Request) {
	var req incrementCartReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, msgIncrementCartInvalid, nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, msgIncrementCartInvalid, nil)
		return
	}

	res, err := s.Store.IncrementCartItem(r.Context(), req.ProductID)
	if err != nil {
		s.writeStoreError(w, r, err, msgIncrementCartInvalid)
		return
	}

	kit.WriteJSON(w, http.StatusOK, cartResp{
		Message: fmt.Sprintf("%s has been added to your cart (total: %d).", res.Product.Name, res.Quantity),
		Cart:    res.Cart,
	})
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.writeStoreError(w, r, ErrNotInCart, "")
		return
	}

	cart, err := s.Store.RemoveCartItem(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	kit.WriteJSON(w, http.StatusOK, cartResp{
		Message: fmt.Sprintf("Product with id %d has been removed from the cart.", id),
		Cart:    cart,
	})
}
