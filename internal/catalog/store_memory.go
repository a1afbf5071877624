package catalog

import (
	"context"
	"sync"
)

// MemBackend keeps the document in memory. The zero value holds no document.
type MemBackend struct {
	mu    sync.Mutex
	doc   Document
	ok    bool
	saves int
	fail  error
}

func NewMemBackend(doc Document) *MemBackend {
	return &MemBackend{doc: doc.clone(), ok: true}
}

func (b *MemBackend) Load(ctx context.Context) (Document, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ok {
		return Document{}, false, nil
	}
	return b.doc.clone(), true, nil
}

func (b *MemBackend) Save(ctx context.Context, doc Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	b.doc = doc.clone()
	b.ok = true
	b.saves++
	return nil
}

func (b *MemBackend) Ping(ctx context.Context) error { return nil }

func (b *MemBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

// FailSaves makes every later Save return err; nil restores normal saves.
func (b *MemBackend) FailSaves(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = err
}
