package domain

import "context"

// ListingRepository 有序集合：List 按插入顺序返回
type ListingRepository interface {
	Insert(ctx context.Context, f *FoodItem) error
	Get(ctx context.Context, id string) (*FoodItem, error)
	Update(ctx context.Context, f *FoodItem) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]FoodItem, error)
}

type UserRepository interface {
	Create(ctx context.Context, c *Credentials) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*Credentials, error)
	List(ctx context.Context, offset, limit int, q string) ([]User, int64, error)
}
