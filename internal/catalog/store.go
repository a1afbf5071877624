package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"MiniShop/pkg/kit"
)

var validate = kit.NewValidator()

// Backend persists the whole store as one Document. Load reports false when
// no document has been written yet.
type Backend interface {
	Load(ctx context.Context) (Document, bool, error)
	Save(ctx context.Context, doc Document) error
	Ping(ctx context.Context) error
}

type WishlistPolicy string

const (
	// WishlistStrict rejects unknown products on add and non-members on remove.
	WishlistStrict WishlistPolicy = "strict"
	// WishlistLenient accepts every add and remove.
	WishlistLenient WishlistPolicy = "lenient"
)

func ParseWishlistPolicy(s string) (WishlistPolicy, error) {
	switch p := WishlistPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", WishlistStrict:
		return WishlistStrict, nil
	case WishlistLenient:
		return WishlistLenient, nil
	default:
		return "", fmt.Errorf("unknown wishlist policy %q", s)
	}
}

type Options struct {
	Backend Backend
	// Seed is read when Backend has no document yet.
	Seed           Backend
	Log            *zap.Logger
	Metrics        *Metrics
	WishlistPolicy WishlistPolicy
	// RandSeed makes the carousel reproducible; 0 seeds from the clock.
	RandSeed uint64
}

// Store holds the catalog, wishlist and cart in memory and writes the whole
// document to its Backend after every mutation. Mutations hold the write lock
// across the save, so there is a single writer at a time.
type Store struct {
	backend Backend
	log     *zap.Logger
	metrics *Metrics
	policy  WishlistPolicy

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu         sync.RWMutex
	products   []Product
	index      map[int]int
	newIDs     []int
	popularIDs []int
	wishlist   *idSet
	cart       *cartMap
}

func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Backend == nil {
		return nil, errors.New("catalog: backend is required")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.WishlistPolicy == "" {
		opts.WishlistPolicy = WishlistStrict
	}

	seed := opts.RandSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	s := &Store{
		backend: opts.Backend,
		log:     opts.Log,
		metrics: opts.Metrics,
		policy:  opts.WishlistPolicy,
		rnd:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}

	doc, ok, err := opts.Backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	if !ok {
		if doc, err = s.initialDocument(ctx, opts.Seed); err != nil {
			return nil, err
		}
	}

	if err := s.reset(doc); err != nil {
		return nil, err
	}
	s.metrics.setState(len(s.products), s.wishlist.Len(), s.cart.TotalQuantity())

	s.log.Info("store opened",
		zap.Int("products", len(s.products)),
		zap.Int("wishlisted", s.wishlist.Len()),
		zap.Int("cart_lines", len(s.cart.order)),
		zap.String("wishlist_policy", string(s.policy)),
	)
	return s, nil
}

func (s *Store) initialDocument(ctx context.Context, seed Backend) (Document, error) {
	doc := emptyDocument()
	if seed != nil {
		seeded, ok, err := seed.Load(ctx)
		if err != nil {
			return Document{}, fmt.Errorf("load seed: %w", err)
		}
		if ok {
			doc = seeded
		}
	}

	if err := s.backend.Save(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("write initial store: %w", err)
	}
	s.log.Info("store initialized", zap.Int("products", len(doc.Products)))
	return doc, nil
}

func emptyDocument() Document {
	return Document{WishlistedProductIDs: slices.Clone(defaultWishlist)}.normalized()
}

func (s *Store) reset(doc Document) error {
	doc = doc.clone()

	index := make(map[int]int, len(doc.Products))
	for i, p := range doc.Products {
		if _, dup := index[p.ID]; dup {
			return fmt.Errorf("load store: duplicate product id %d", p.ID)
		}
		index[p.ID] = i
	}

	s.products = doc.Products
	s.index = index
	s.newIDs = doc.NewProductIDs
	s.popularIDs = doc.PopularProductIDs
	s.wishlist = newIDSet(doc.WishlistedProductIDs)
	s.cart = newCartMap(doc.ShoppingCart)
	return nil
}

func (s *Store) snapshotLocked() Document {
	return Document{
		Products:             s.products,
		NewProductIDs:        s.newIDs,
		PopularProductIDs:    s.popularIDs,
		WishlistedProductIDs: s.wishlist.IDs(),
		ShoppingCart:         s.cart.Entries(),
	}.clone()
}

// Snapshot returns a deep copy of the current state in persisted form.
func (s *Store) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked().normalized()
}

// commitLocked saves the current state. When the save fails, undo restores the
// previous in-memory state so memory never runs ahead of the durable document.
func (s *Store) commitLocked(ctx context.Context, undo func()) error {
	start := time.Now()
	err := s.backend.Save(ctx, s.snapshotLocked())
	s.metrics.observePersist(time.Since(start), err)

	if err != nil {
		undo()
		s.log.Error("persist store failed", zap.Error(err))
		return fmt.Errorf("persist store: %w", err)
	}

	s.metrics.setState(len(s.products), s.wishlist.Len(), s.cart.TotalQuantity())
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) WishlistPolicy() WishlistPolicy { return s.policy }

func (s *Store) lookupLocked(id int) (Product, bool) {
	i, ok := s.index[id]
	if !ok {
		return Product{}, false
	}
	return s.products[i], true
}

func (s *Store) viewLocked(p Product) ProductView {
	p.Tags = slices.Clone(p.Tags)
	return ProductView{Product: p, IsWishlisted: s.wishlist.Has(p.ID)}
}
