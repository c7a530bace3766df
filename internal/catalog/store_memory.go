package catalog

import (
	"context"
	"sync"
)

// MemStore is an in-process Store with the same id and ordering rules as
// FileStore. Its contents are lost on restart.
type MemStore struct {
	mu       sync.RWMutex
	products []Product
}

func NewMemStore(seed ...Product) *MemStore {
	s := &MemStore{products: make([]Product, 0, len(seed))}
	s.products = append(s.products, seed...)
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id int) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := indexOf(s.products, id)
	if i < 0 {
		return Product{}, ErrNotFound
	}
	return s.products[i], nil
}

func (s *MemStore) Add(ctx context.Context, in ProductInput) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := nextID(s.products)
	if err != nil {
		return Product{}, err
	}
	p := in.product(id)
	s.products = append(s.products, p)
	return p, nil
}

func (s *MemStore) Update(ctx context.Context, id int, patch ProductPatch) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.products, id)
	if i < 0 {
		return Product{}, ErrNotFound
	}
	s.products[i] = patch.Apply(s.products[i])
	return s.products[i], nil
}

func (s *MemStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.products, id)
	if i < 0 {
		return ErrNotFound
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	return nil
}
