package catalog

import (
	"context"
	"slices"

	"MiniShop/pkg/kit"
)

func (s *Store) List(ctx context.Context) []ProductView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProductView, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, s.viewLocked(p))
	}
	return out
}

func (s *Store) ListNew(ctx context.Context) []ProductView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listByIDsLocked(s.newIDs)
}

func (s *Store) ListPopular(ctx context.Context) []ProductView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listByIDsLocked(s.popularIDs)
}

// listByIDsLocked keeps catalog order, not the order of ids.
func (s *Store) listByIDsLocked(ids []int) []ProductView {
	out := make([]ProductView, 0, len(ids))
	for _, p := range s.products {
		if slices.Contains(ids, p.ID) {
			out = append(out, s.viewLocked(p))
		}
	}
	return out
}

func (s *Store) Get(ctx context.Context, id int) (ProductView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.lookupLocked(id)
	if !ok {
		return ProductView{}, ErrProductNotFound
	}
	return s.viewLocked(p), nil
}

// Carousel returns up to n products in random order.
func (s *Store) Carousel(ctx context.Context, n int) []ProductView {
	s.mu.RLock()
	out := make([]ProductView, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, s.viewLocked(p))
	}
	s.mu.RUnlock()

	s.rndMu.Lock()
	s.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	s.rndMu.Unlock()

	if n < 0 {
		n = 0
	}
	return out[:min(n, len(out))]
}

func (s *Store) Wishlisted(ctx context.Context) []ProductView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProductView, 0, s.wishlist.Len())
	for _, p := range s.products {
		if s.wishlist.Has(p.ID) {
			out = append(out, s.viewLocked(p))
		}
	}
	return out
}

// Create appends a product with id max(ids)+1, or 1 when the catalog is empty.
func (s *Store) Create(ctx context.Context, np NewProduct) (ProductView, error) {
	if err := validate.Struct(np); err != nil {
		return ProductView{}, &ValidationError{Fields: kit.InvalidFields(err)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := Product{
		ID:          s.nextIDLocked(),
		Name:        np.Name,
		Price:       np.Price,
		Image:       np.Image,
		Tags:        slices.Clone(np.Tags),
		Rating:      np.Rating,
		Stock:       np.Stock,
		Description: np.Description,
	}

	s.products = append(s.products, p)
	s.index[p.ID] = len(s.products) - 1

	err := s.commitLocked(ctx, func() {
		s.products = s.products[:len(s.products)-1]
		delete(s.index, p.ID)
	})
	if err != nil {
		return ProductView{}, err
	}
	return s.viewLocked(p), nil
}

func (s *Store) nextIDLocked() int {
	next := 1
	for _, p := range s.products {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	return next
}
