// Package listing owns the canonical collection of food listings and every
// mutation entry point on it.
//
// Store is the single writer: mutations take the store lock, check existence
// before touching anything, persist through the repository, and only then
// notify subscribers. Readers always receive copies.
package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"foodshare/internal/domain"
	"foodshare/pkg/utils"
)

// 合法的正向状态迁移；Claimed 只能经由 Claim 进入，Expired 只在读取时推导
var transitions = map[domain.FoodStatus][]domain.FoodStatus{
	domain.StatusClaimed:  {domain.StatusReserved},
	domain.StatusReserved: {domain.StatusDelivered},
}

func canTransition(from, to domain.FoodStatus) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Store struct {
	mu    sync.Mutex
	repo  domain.ListingRepository
	log   *zap.Logger
	now   func() time.Time
	newID func() string

	pubMu   sync.Mutex // 在释放 mu 之前获取，保证通知顺序与写入顺序一致
	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

type Option func(*Store)

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func WithIDGen(gen func() string) Option { return func(s *Store) { s.newID = gen } }

func NewStore(repo domain.ListingRepository, l *zap.Logger, opts ...Option) *Store {
	if l == nil {
		l = zap.NewNop()
	}
	s := &Store{
		repo:  repo,
		log:   l.Named("listing"),
		now:   time.Now,
		newID: utils.NewID,
		subs:  map[int]func(Event){},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Now 对外暴露 store 的时钟，派生视图（过期判断）与写入共用同一时间源
func (s *Store) Now() time.Time { return s.now() }

// SeedIfEmpty 仓库为空时写入固定种子数据
func (s *Store) SeedIfEmpty(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(cur) > 0 {
		return 0, nil
	}
	seed := Seed(s.now())
	for i := range seed {
		if err := s.repo.Insert(ctx, &seed[i]); err != nil {
			return i, fmt.Errorf("seed listing %s: %w", seed[i].ID, err)
		}
	}
	s.log.Info("listings seeded", zap.Int("count", len(seed)))
	return len(seed), nil
}

func (s *Store) Add(ctx context.Context, in domain.NewFoodItem) (domain.FoodItem, error) {
	if err := in.Normalize(); err != nil {
		return domain.FoodItem{}, err
	}

	s.mu.Lock()
	id, err := s.uniqueID(ctx)
	if err != nil {
		s.mu.Unlock()
		return domain.FoodItem{}, err
	}
	now := s.now()
	f := domain.FoodItem{
		ID:            id,
		Name:          in.Name,
		Description:   in.Description,
		Quantity:      in.Quantity,
		Unit:          in.Unit,
		ExpiryDate:    in.ExpiryDate,
		DonationType:  in.DonationType,
		Price:         in.Price,
		Type:          in.Type,
		Photos:        in.Photos,
		Status:        domain.StatusAvailable,
		DonorID:       in.DonorID,
		PickupAddress: in.PickupAddress,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f = f.Clone()
	if err := s.repo.Insert(ctx, &f); err != nil {
		s.mu.Unlock()
		return domain.FoodItem{}, fmt.Errorf("insert listing: %w", err)
	}
	s.log.Debug("listing created", zap.String("id", f.ID), zap.String("donor", f.DonorID))
	s.unlockAndPublish(Event{Kind: EventCreated, Item: f.Clone()})
	return f, nil
}

func (s *Store) uniqueID(ctx context.Context) (string, error) {
	for i := 0; i < 8; i++ {
		id := s.newID()
		_, err := s.repo.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: could not allocate listing id", domain.ErrConflict)
}

// UpdateStatus 同状态重复调用只推进 updatedAt
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.FoodStatus) (domain.FoodItem, error) {
	if !status.Valid() {
		return domain.FoodItem{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	if status == domain.StatusExpired {
		return domain.FoodItem{}, fmt.Errorf("%w: expiry is derived from expiryDate", domain.ErrValidation)
	}
	return s.mutate(ctx, id, EventUpdated, func(f *domain.FoodItem) error {
		if !canTransition(f.Status, status) {
			return fmt.Errorf("%w: %s -> %s not allowed", domain.ErrConflict, f.Status, status)
		}
		f.Status = status
		return nil
	})
}

// Claim 仅允许从未过期的 available 认领；deliveryAddress 为空表示自取
func (s *Store) Claim(ctx context.Context, id, recipientID string, deliveryAddress *domain.Address) (domain.FoodItem, error) {
	if recipientID == "" {
		return domain.FoodItem{}, fmt.Errorf("%w: recipient id required", domain.ErrValidation)
	}
	return s.mutate(ctx, id, EventClaimed, func(f *domain.FoodItem) error {
		if st := f.EffectiveStatus(s.now()); st != domain.StatusAvailable {
			return fmt.Errorf("%w: listing is %s", domain.ErrConflict, st)
		}
		f.Status = domain.StatusClaimed
		f.RecipientID = recipientID
		f.DeliveryAddress = nil
		if deliveryAddress != nil {
			a := *deliveryAddress
			f.DeliveryAddress = &a
		}
		return nil
	})
}

func (s *Store) AcceptDelivery(ctx context.Context, id, volunteerID string) (domain.FoodItem, error) {
	if volunteerID == "" {
		return domain.FoodItem{}, fmt.Errorf("%w: volunteer id required", domain.ErrValidation)
	}
	return s.mutate(ctx, id, EventUpdated, func(f *domain.FoodItem) error {
		if !f.NeedsDelivery() {
			return fmt.Errorf("%w: listing does not need delivery", domain.ErrConflict)
		}
		f.VolunteerID = volunteerID
		f.Status = domain.StatusReserved
		return nil
	})
}

func (s *Store) CompleteDelivery(ctx context.Context, id, volunteerID string) (domain.FoodItem, error) {
	return s.mutate(ctx, id, EventUpdated, func(f *domain.FoodItem) error {
		if f.Status != domain.StatusReserved {
			return fmt.Errorf("%w: listing is %s", domain.ErrConflict, f.Status)
		}
		if f.VolunteerID != volunteerID {
			return fmt.Errorf("%w: delivery assigned to another volunteer", domain.ErrForbidden)
		}
		f.Status = domain.StatusDelivered
		return nil
	})
}

// Delete 无条件删除，不存在也不报错
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.mu.Unlock()
		return fmt.Errorf("delete listing: %w", err)
	}
	s.unlockAndPublish(Event{Kind: EventDeleted, Item: prev.Clone()})
	return nil
}

// mutate 先查存在性再改，失败时不产生任何写入和通知
func (s *Store) mutate(ctx context.Context, id string, kind EventKind, fn func(f *domain.FoodItem) error) (domain.FoodItem, error) {
	s.mu.Lock()
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, domain.ErrNotFound) {
			return domain.FoodItem{}, fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
		}
		return domain.FoodItem{}, err
	}
	if err := fn(f); err != nil {
		s.mu.Unlock()
		return domain.FoodItem{}, err
	}
	now := s.now()
	if now.Before(f.UpdatedAt) {
		now = f.UpdatedAt
	}
	f.UpdatedAt = now
	if err := s.repo.Update(ctx, f); err != nil {
		s.mu.Unlock()
		return domain.FoodItem{}, fmt.Errorf("update listing: %w", err)
	}
	out := f.Clone()
	s.unlockAndPublish(Event{Kind: kind, Item: out.Clone()})
	return out, nil
}

// unlockAndPublish 调用方持有 mu；先拿 pubMu 再放 mu，后一次写入的通知只能排在本次之后
func (s *Store) unlockAndPublish(ev Event) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Unlock()
	s.publish(ev)
}
