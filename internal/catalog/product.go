package catalog

import (
	"encoding/json"
	"fmt"
	"slices"
)

type Product struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Image       string   `json:"image"`
	Tags        []string `json:"tags"`
	Rating      float64  `json:"rating"`
	Stock       int      `json:"stock"`
	Description string   `json:"description"`
}

// ProductView is a Product as served to clients.
type ProductView struct {
	Product
	IsWishlisted bool `json:"isWishlisted"`
}

// NewProduct is the input to Store.Create. Required fields must be non-zero.
type NewProduct struct {
	Name        string   `json:"name" validate:"required"`
	Price       int64    `json:"price" validate:"required,gt=0"`
	Image       string   `json:"image" validate:"required"`
	Tags        []string `json:"tags" validate:"required"`
	Stock       int      `json:"stock" validate:"required,gt=0"`
	Rating      float64  `json:"rating" validate:"gte=0,lte=5"`
	Description string   `json:"description"`
}

var defaultWishlist = []int{9, 10, 8, 5}

// Document is the persisted form of the whole store.
type Document struct {
	Products             []Product   `json:"products"`
	NewProductIDs        []int       `json:"newProductIds"`
	PopularProductIDs    []int       `json:"popularProductIds"`
	WishlistedProductIDs []int       `json:"wishlistedProductIds"`
	ShoppingCart         []CartEntry `json:"shoppingCart"`
}

// CartEntry is encoded as a [productId, quantity] pair.
type CartEntry struct {
	ProductID int
	Quantity  int
}

func (e CartEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{e.ProductID, e.Quantity})
}

func (e *CartEntry) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("cart entry: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("cart entry: want [productId, quantity], got %d values", len(pair))
	}
	e.ProductID, e.Quantity = pair[0], pair[1]
	return nil
}

// DecodeDocument parses a persisted document. A missing wishlistedProductIds
// key yields the default wishlist; an explicit empty list stays empty.
func DecodeDocument(b []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return Document{}, err
	}
	if doc.WishlistedProductIDs == nil {
		doc.WishlistedProductIDs = slices.Clone(defaultWishlist)
	}
	return doc.normalized(), nil
}

func EncodeDocument(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc.normalized(), "", "  ")
}

// normalized replaces nil slices so they encode as [] rather than null.
func (d Document) normalized() Document {
	if d.Products == nil {
		d.Products = []Product{}
	}
	for i := range d.Products {
		if d.Products[i].Tags == nil {
			d.Products[i].Tags = []string{}
		}
	}
	if d.NewProductIDs == nil {
		d.NewProductIDs = []int{}
	}
	if d.PopularProductIDs == nil {
		d.PopularProductIDs = []int{}
	}
	if d.WishlistedProductIDs == nil {
		d.WishlistedProductIDs = []int{}
	}
	if d.ShoppingCart == nil {
		d.ShoppingCart = []CartEntry{}
	}
	return d
}

func (d Document) clone() Document {
	out := Document{
		Products:             make([]Product, len(d.Products)),
		NewProductIDs:        slices.Clone(d.NewProductIDs),
		PopularProductIDs:    slices.Clone(d.PopularProductIDs),
		WishlistedProductIDs: slices.Clone(d.WishlistedProductIDs),
		ShoppingCart:         slices.Clone(d.ShoppingCart),
	}
	for i, p := range d.Products {
		p.Tags = slices.Clone(p.Tags)
		out.Products[i] = p
	}
	return out
}
