package catalog

import "fmt"

type Violation struct {
	Kind      string
	ProductID int
	Detail    string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s (product %d): %s", v.Kind, v.ProductID, v.Detail)
}

// Check reports documents that break the store invariants: unique ids, and
// wishlist and cart entries that refer to real products within stock.
func Check(doc Document) []Violation {
	var out []Violation

	byID := make(map[int]Product, len(doc.Products))
	for _, p := range doc.Products {
		if _, dup := byID[p.ID]; dup {
			out = append(out, Violation{Kind: "duplicate_id", ProductID: p.ID, Detail: "product id used more than once"})
			continue
		}
		if p.Stock < 0 {
			out = append(out, Violation{Kind: "negative_stock", ProductID: p.ID, Detail: fmt.Sprintf("stock %d", p.Stock)})
		}
		byID[p.ID] = p
	}

	for _, id := range doc.WishlistedProductIDs {
		if _, ok := byID[id]; !ok {
			out = append(out, Violation{Kind: "wishlist_unknown_product", ProductID: id, Detail: "wishlisted id has no product"})
		}
	}

	seen := make(map[int]struct{}, len(doc.ShoppingCart))
	for _, e := range doc.ShoppingCart {
		if _, dup := seen[e.ProductID]; dup {
			out = append(out, Violation{Kind: "cart_duplicate_line", ProductID: e.ProductID, Detail: "product appears twice in cart"})
		}
		seen[e.ProductID] = struct{}{}

		if e.Quantity <= 0 {
			out = append(out, Violation{Kind: "cart_bad_quantity", ProductID: e.ProductID, Detail: fmt.Sprintf("quantity %d", e.Quantity)})
		}
		p, ok := byID[e.ProductID]
		if !ok {
			out = append(out, Violation{Kind: "cart_unknown_product", ProductID: e.ProductID, Detail: "cart line has no product"})
			continue
		}
		if e.Quantity > p.Stock {
			out = append(out, Violation{
				Kind:      "cart_over_stock",
				ProductID: e.ProductID,
				Detail:    fmt.Sprintf("quantity %d exceeds stock %d", e.Quantity, p.Stock),
			})
		}
	}

	return out
}
