package catalog

import (
	"fmt"
	"net/http"

	"MiniShop/pkg/kit"
)

type wishlistResp struct {
	Message       string       `json:"message"`
	WishlistedIDs []int        `json:"wishlistedIds"`
	Product       *ProductView `json:"product,omitempty"`
}

func (s *Server) addToWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.writeStoreError(w, r, ErrProductNotFound, "")
		return
	}

	res, err := s.Store.AddToWishlist(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	kit.WriteJSON(w, http.StatusOK, wishlistResp{
		Message:       fmt.Sprintf("Product with id %d has been added to wishlist.", id),
		WishlistedIDs: res.WishlistedIDs,
		Product:       res.Product,
	})
}

func (s *Server) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.writeStoreError(w, r, ErrNotInWishlist, "")
		return
	}

	res, err := s.Store.RemoveFromWishlist(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	msg := fmt.Sprintf("Product with id %d has been removed from wishlist.", id)
	if !res.Changed {
		msg = fmt.Sprintf("Product with id %d was not in wishlist.", id)
	}
	kit.WriteJSON(w, http.StatusOK, wishlistResp{
		Message:       msg,
		WishlistedIDs: res.WishlistedIDs,
		Product:       res.Product,
	})
}
