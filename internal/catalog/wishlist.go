package catalog

import "context"

type WishlistResult struct {
	// Product is nil when a lenient add names a product the catalog lacks.
	Product       *ProductView
	Changed       bool
	WishlistedIDs []int
}

// AddToWishlist inserts id into the wishlist. Adding a member again is a no-op.
func (s *Store) AddToWishlist(ctx context.Context, id int) (WishlistResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.lookupLocked(id)
	if !exists && s.policy == WishlistStrict {
		return WishlistResult{}, ErrProductNotFound
	}

	added := s.wishlist.Add(id)
	if added {
		err := s.commitLocked(ctx, func() { s.wishlist.Remove(id) })
		if err != nil {
			return WishlistResult{}, err
		}
	}

	res := WishlistResult{Changed: added, WishlistedIDs: s.wishlist.IDs()}
	if exists {
		v := s.viewLocked(p)
		res.Product = &v
	}
	return res, nil
}

// RemoveFromWishlist deletes id from the wishlist. Under the strict policy a
// non-member is ErrNotInWishlist; the lenient policy reports Changed=false.
func (s *Store) RemoveFromWishlist(ctx context.Context, id int) (WishlistResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, removed := s.wishlist.Remove(id)
	if !removed {
		if s.policy == WishlistStrict {
			return WishlistResult{}, ErrNotInWishlist
		}
		return WishlistResult{WishlistedIDs: s.wishlist.IDs()}, nil
	}

	err := s.commitLocked(ctx, func() { s.wishlist.insertAt(pos, id) })
	if err != nil {
		return WishlistResult{}, err
	}

	res := WishlistResult{Changed: true, WishlistedIDs: s.wishlist.IDs()}
	if p, ok := s.lookupLocked(id); ok {
		v := s.viewLocked(p)
		res.Product = &v
	}
	return res, nil
}

func (s *Store) IsWishlisted(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wishlist.Has(id)
}
