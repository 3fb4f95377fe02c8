// Package session holds the current identity and its authentication
// transitions. The identity is cached through a Persister so a restarted
// process can rehydrate it; the cache is a convenience, not a credential.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"foodshare/internal/domain"
)

type Store struct {
	mu       sync.RWMutex
	current  *domain.User
	provider IdentityProvider
	persist  Persister
	log      *zap.Logger
}

func NewStore(provider IdentityProvider, persist Persister, l *zap.Logger) *Store {
	if l == nil {
		l = zap.NewNop()
	}
	return &Store{provider: provider, persist: persist, log: l.Named("session")}
}

// Restore 启动时同步恢复身份；无数据则保持未登录，损坏数据直接丢弃
func (s *Store) Restore(ctx context.Context) error {
	u, err := s.persist.Load(ctx)
	if errors.Is(err, ErrCorrupt) {
		s.log.Warn("discarding corrupt session record", zap.Error(err))
		return s.persist.Clear(ctx)
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = u
	s.mu.Unlock()
	if u != nil {
		s.log.Debug("session restored", zap.String("uid", u.ID), zap.String("role", string(u.Role)))
	}
	return nil
}

func (s *Store) Current() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.User{}, false
	}
	return *s.current, true
}

// Require 未登录时返回 ErrUnauthenticated
func (s *Store) Require() (domain.User, error) {
	u, ok := s.Current()
	if !ok {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return u, nil
}

func (s *Store) Login(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.provider.Login(ctx, email, password)
	if err != nil {
		s.log.Info("login failed", zap.String("email", email), zap.Error(err))
		return domain.User{}, err
	}
	s.set(ctx, u)
	return u, nil
}

func (s *Store) Register(ctx context.Context, name, email, password string, role domain.Role) (domain.User, error) {
	u, err := s.provider.Register(ctx, name, email, password, role)
	if err != nil {
		s.log.Info("registration failed", zap.String("email", email), zap.Error(err))
		return domain.User{}, err
	}
	s.set(ctx, u)
	return u, nil
}

// Logout 未登录时为 no-op
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	was := s.current
	s.current = nil
	s.mu.Unlock()
	if was == nil {
		return nil
	}
	return s.persist.Clear(ctx)
}

func (s *Store) set(ctx context.Context, u domain.User) {
	s.mu.Lock()
	s.current = &u
	s.mu.Unlock()
	if err := s.persist.Save(ctx, u); err != nil {
		s.log.Warn("persist session failed", zap.Error(err))
	}
}
