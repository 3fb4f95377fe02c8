package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"foodshare/internal/domain"
	"foodshare/internal/feature/listing"
)

// ListingRepo gorm 实现；写操作由 listing.Store 串行化
type ListingRepo struct{ db *gorm.DB }

func NewListingRepo(db *gorm.DB) *ListingRepo { return &ListingRepo{db: db} }

func (r *ListingRepo) Insert(ctx context.Context, f *domain.FoodItem) error {
	m, err := listing.FromDomain(f)
	if err != nil {
		return err
	}
	var maxSeq int64
	if err := r.db.WithContext(ctx).Model(&listing.ListingModel{}).
		Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
		return err
	}
	m.Seq = maxSeq + 1
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDupKey(err) {
			return fmt.Errorf("%w: duplicate id %s", domain.ErrConflict, f.ID)
		}
		return err
	}
	return nil
}

func (r *ListingRepo) Get(ctx context.Context, id string) (*domain.FoodItem, error) {
	var m listing.ListingModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	f, err := m.ToDomain()
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *ListingRepo) Update(ctx context.Context, f *domain.FoodItem) error {
	m, err := listing.FromDomain(f)
	if err != nil {
		return err
	}
	// Select("*") 连同零值一起写，donor_id / created_at / seq 不可变
	res := r.db.WithContext(ctx).Model(&listing.ListingModel{}).
		Where("id = ?", f.ID).
		Select("*").Omit("id", "seq", "donor_id", "created_at").
		Updates(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&listing.ListingModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepo) List(ctx context.Context) ([]domain.FoodItem, error) {
	var ms []listing.ListingModel
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.FoodItem, 0, len(ms))
	for _, m := range ms {
		f, err := m.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("decode listing %s: %w", m.ID, err)
		}
		out = append(out, f)
	}
	return out, nil
}
