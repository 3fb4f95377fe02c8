package listing

import (
	"context"
	"errors"

	"foodshare/internal/domain"
)

func (s *Store) All(ctx context.Context) ([]domain.FoodItem, error) {
	return s.repo.List(ctx)
}

// FindByID 不存在时返回 nil, nil
func (s *Store) FindByID(ctx context.Context, id string) (*domain.FoodItem, error) {
	f, err := s.repo.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return f, err
}

func (s *Store) ByDonor(ctx context.Context, donorID string) ([]domain.FoodItem, error) {
	return s.filter(ctx, func(f domain.FoodItem) bool { return f.DonorID == donorID })
}

func (s *Store) ByRecipient(ctx context.Context, recipientID string) ([]domain.FoodItem, error) {
	return s.filter(ctx, func(f domain.FoodItem) bool { return f.RecipientID == recipientID })
}

func (s *Store) ByVolunteer(ctx context.Context, volunteerID string) ([]domain.FoodItem, error) {
	return s.filter(ctx, func(f domain.FoodItem) bool { return f.VolunteerID == volunteerID })
}

// Available 按存储状态过滤，保持原有相对顺序
func (s *Store) Available(ctx context.Context) ([]domain.FoodItem, error) {
	return s.filter(ctx, IsAvailable)
}

func (s *Store) PendingDeliveries(ctx context.Context) ([]domain.FoodItem, error) {
	return s.filter(ctx, domain.FoodItem.NeedsDelivery)
}

// Browse 浏览视图：过滤 + 排序
func (s *Store) Browse(ctx context.Context, q Query) ([]domain.FoodItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return Browse(items, q, s.now()), nil
}

func (s *Store) filter(ctx context.Context, preds ...Predicate) ([]domain.FoodItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(items, preds...), nil
}
