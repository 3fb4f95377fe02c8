package listing

import (
	"context"
	"fmt"
	"sync"

	"foodshare/internal/domain"
)

// MemoryRepository 进程内有序集合，重启即回到种子数据
type MemoryRepository struct {
	mu    sync.RWMutex
	items []domain.FoodItem
	index map[string]int
}

func NewMemoryRepository(seed ...domain.FoodItem) *MemoryRepository {
	r := &MemoryRepository{index: make(map[string]int, len(seed))}
	for _, f := range seed {
		r.index[f.ID] = len(r.items)
		r.items = append(r.items, f.Clone())
	}
	return r
}

func (r *MemoryRepository) Insert(_ context.Context, f *domain.FoodItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[f.ID]; ok {
		return fmt.Errorf("%w: duplicate id %s", domain.ErrConflict, f.ID)
	}
	r.index[f.ID] = len(r.items)
	r.items = append(r.items, f.Clone())
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*domain.FoodItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	f := r.items[i].Clone()
	return &f, nil
}

func (r *MemoryRepository) Update(_ context.Context, f *domain.FoodItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[f.ID]
	if !ok {
		return domain.ErrNotFound
	}
	r.items[i] = f.Clone()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.items); j++ {
		r.index[r.items[j].ID] = j
	}
	return nil
}

func (r *MemoryRepository) List(_ context.Context) ([]domain.FoodItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.FoodItem, 0, len(r.items))
	for _, f := range r.items {
		out = append(out, f.Clone())
	}
	return out, nil
}
