package auth

import (
	"context"
	"time"

	"foodshare/internal/core/cache"
)

// Denylist 登出的 token id 写入 redis，直到 token 自然过期
type Denylist struct {
	Cache  *cache.Cache
	Prefix string
}

func NewDenylist(c *cache.Cache) *Denylist {
	return &Denylist{Cache: c, Prefix: "foodshare:jwt:revoked:"}
}

func (d *Denylist) Revoke(ctx context.Context, c *Claims) error {
	if d == nil || c == nil || c.ID == "" {
		return nil
	}
	ttl := time.Minute
	if c.ExpiresAt != nil {
		// 多留出 Parse 的 leeway
		ttl = time.Until(c.ExpiresAt.Time) + time.Minute
	}
	if ttl <= 0 {
		return nil
	}
	return d.Cache.Set(ctx, d.Prefix+c.ID, []byte("1"), ttl)
}

// Revoked nil 接收者表示未启用，永远返回 false
func (d *Denylist) Revoked(ctx context.Context, jti string) (bool, error) {
	if d == nil || jti == "" {
		return false, nil
	}
	return d.Cache.Exists(ctx, d.Prefix+jti)
}
