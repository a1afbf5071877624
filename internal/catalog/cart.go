package catalog

import (
	"context"

	"go.uber.org/zap"
)

type CartLine struct {
	Product
	QuantityInCart int `json:"quantityInCart"`
}

type CartSummary struct {
	TotalPrice int64 `json:"totalPrice"`
	TotalItems int   `json:"totalItems"`
}

type CartView struct {
	Items   []CartLine  `json:"items"`
	Summary CartSummary `json:"summary"`
}

type CartResult struct {
	Product  Product
	Quantity int
	Cart     map[int]int
}

// SetCartQuantity overwrites the quantity for id. qty must be positive and
// not above the product's stock.
func (s *Store) SetCartQuantity(ctx context.Context, id, qty int) (CartResult, error) {
	if id == 0 || qty <= 0 {
		return CartResult{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.lookupLocked(id)
	if !ok {
		return CartResult{}, ErrProductNotFound
	}
	if qty > p.Stock {
		return CartResult{}, &InsufficientStockError{Product: p, Remaining: p.Stock}
	}

	return s.setQuantityLocked(ctx, p, qty)
}

// IncrementCartItem adds one unit of id to the cart.
func (s *Store) IncrementCartItem(ctx context.Context, id int) (CartResult, error) {
	if id == 0 {
		return CartResult{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.lookupLocked(id)
	if !ok {
		return CartResult{}, ErrProductNotFound
	}

	cur, _ := s.cart.Get(id)
	if cur+1 > p.Stock {
		return CartResult{}, &InsufficientStockError{
			Product:   p,
			Remaining: max(p.Stock-cur, 0),
			Increment: true,
		}
	}

	return s.setQuantityLocked(ctx, p, cur+1)
}

func (s *Store) setQuantityLocked(ctx context.Context, p Product, qty int) (CartResult, error) {
	prev, had := s.cart.Get(p.ID)
	s.cart.Set(p.ID, qty)

	err := s.commitLocked(ctx, func() {
		if had {
			s.cart.Set(p.ID, prev)
			return
		}
		s.cart.Delete(p.ID)
	})
	if err != nil {
		return CartResult{}, err
	}

	return CartResult{Product: p, Quantity: qty, Cart: s.cart.Object()}, nil
}

func (s *Store) RemoveCartItem(ctx context.Context, id int) (map[int]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, qty, ok := s.cart.Delete(id)
	if !ok {
		return nil, ErrNotInCart
	}

	err := s.commitLocked(ctx, func() { s.cart.insertAt(pos, id, qty) })
	if err != nil {
		return nil, err
	}
	return s.cart.Object(), nil
}

// Cart lists cart lines with their products. Lines whose product is gone from
// the catalog are pruned from the cart and the prune is persisted.
func (s *Store) Cart(ctx context.Context) CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := CartView{Items: make([]CartLine, 0, len(s.cart.order))}
	var stale []CartEntry

	for _, e := range s.cart.Entries() {
		p, ok := s.lookupLocked(e.ProductID)
		if !ok {
			stale = append(stale, e)
			continue
		}
		view.Items = append(view.Items, CartLine{Product: s.viewLocked(p).Product, QuantityInCart: e.Quantity})
		view.Summary.TotalPrice += p.Price * int64(e.Quantity)
		view.Summary.TotalItems += e.Quantity
	}

	if len(stale) > 0 {
		s.pruneLocked(ctx, stale)
	}
	return view
}

// pruneLocked drops stale lines. A failed save keeps them; the view already
// excludes them either way.
func (s *Store) pruneLocked(ctx context.Context, stale []CartEntry) {
	before := s.cart.Entries()
	for _, e := range stale {
		s.cart.Delete(e.ProductID)
	}

	err := s.commitLocked(ctx, func() { s.cart = newCartMap(before) })
	if err != nil {
		return
	}

	ids := make([]int, 0, len(stale))
	for _, e := range stale {
		ids = append(ids, e.ProductID)
	}
	s.log.Warn("pruned cart lines for unknown products", zap.Ints("product_ids", ids))
}

func (s *Store) CartQuantity(id int) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Get(id)
}
