package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"foodshare/internal/core/cache"
	"foodshare/internal/domain"
)

// ErrCorrupt 持久化内容无法解码
var ErrCorrupt = errors.New("corrupt session record")

// Persister 单键身份缓存；Load 无数据时返回 nil, nil
type Persister interface {
	Load(ctx context.Context) (*domain.User, error)
	Save(ctx context.Context, u domain.User) error
	Clear(ctx context.Context) error
}

// FilePersister 本地 JSON 文件
type FilePersister struct {
	Path string
}

func NewFilePersister(path string) *FilePersister { return &FilePersister{Path: path} }

func (p *FilePersister) Load(_ context.Context) (*domain.User, error) {
	b, err := os.ReadFile(p.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(b)
}

func (p *FilePersister) Save(_ context.Context, u domain.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(p.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	// 先写临时文件再 rename，避免半截文件
	tmp := p.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p.Path)
}

func (p *FilePersister) Clear(_ context.Context) error {
	if err := os.Remove(p.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RedisPersister 单个 redis key
type RedisPersister struct {
	Cache *cache.Cache
	Key   string
}

func NewRedisPersister(c *cache.Cache, key string) *RedisPersister {
	return &RedisPersister{Cache: c, Key: key}
}

func (p *RedisPersister) Load(ctx context.Context) (*domain.User, error) {
	b, err := p.Cache.Get(ctx, p.Key)
	if errors.Is(err, cache.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(b)
}

func (p *RedisPersister) Save(ctx context.Context, u domain.User) error {
	return cache.SetJSON(p.Cache, ctx, p.Key, u, 0)
}

func (p *RedisPersister) Clear(ctx context.Context) error { return p.Cache.Del(ctx, p.Key) }

func decode(b []byte) (*domain.User, error) {
	var u domain.User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if u.ID == "" || !u.Role.Valid() {
		return nil, fmt.Errorf("%w: missing id or role", ErrCorrupt)
	}
	return &u, nil
}
