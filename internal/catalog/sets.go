package catalog

import "slices"

// idSet is a set of product ids that remembers insertion order.
type idSet struct {
	ids []int
	has map[int]struct{}
}

func newIDSet(ids []int) *idSet {
	s := &idSet{has: make(map[int]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *idSet) Has(id int) bool {
	_, ok := s.has[id]
	return ok
}

func (s *idSet) Add(id int) bool {
	if s.Has(id) {
		return false
	}
	s.has[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Remove returns the position the id occupied so it can be restored.
func (s *idSet) Remove(id int) (int, bool) {
	if !s.Has(id) {
		return -1, false
	}
	pos := slices.Index(s.ids, id)
	s.ids = slices.Delete(s.ids, pos, pos+1)
	delete(s.has, id)
	return pos, true
}

func (s *idSet) insertAt(pos, id int) {
	if s.Has(id) {
		return
	}
	s.has[id] = struct{}{}
	s.ids = slices.Insert(s.ids, min(pos, len(s.ids)), id)
}

func (s *idSet) IDs() []int { return slices.Clone(s.ids) }

func (s *idSet) Len() int { return len(s.ids) }

// cartMap maps product id to quantity, iterating in insertion order.
type cartMap struct {
	order []int
	qty   map[int]int
}

func newCartMap(entries []CartEntry) *cartMap {
	c := &cartMap{qty: make(map[int]int, len(entries))}
	for _, e := range entries {
		c.Set(e.ProductID, e.Quantity)
	}
	return c
}

func (c *cartMap) Get(id int) (int, bool) {
	q, ok := c.qty[id]
	return q, ok
}

func (c *cartMap) Set(id, qty int) {
	if _, ok := c.qty[id]; !ok {
		c.order = append(c.order, id)
	}
	c.qty[id] = qty
}

func (c *cartMap) Delete(id int) (pos, qty int, ok bool) {
	qty, ok = c.qty[id]
	if !ok {
		return -1, 0, false
	}
	pos = slices.Index(c.order, id)
	c.order = slices.Delete(c.order, pos, pos+1)
	delete(c.qty, id)
	return pos, qty, true
}

func (c *cartMap) insertAt(pos, id, qty int) {
	if _, ok := c.qty[id]; ok {
		c.qty[id] = qty
		return
	}
	c.qty[id] = qty
	c.order = slices.Insert(c.order, min(pos, len(c.order)), id)
}

func (c *cartMap) Entries() []CartEntry {
	out := make([]CartEntry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, CartEntry{ProductID: id, Quantity: c.qty[id]})
	}
	return out
}

// Object is the id -> quantity view returned to clients.
func (c *cartMap) Object() map[int]int {
	out := make(map[int]int, len(c.qty))
	for id, q := range c.qty {
		out[id] = q
	}
	return out
}

func (c *cartMap) TotalQuantity() int {
	n := 0
	for _, q := range c.qty {
		n += q
	}
	return n
}
