package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"foodshare/internal/domain"
	"foodshare/pkg/utils"
)

// IdentityProvider 登录 / 注册的身份来源
type IdentityProvider interface {
	Login(ctx context.Context, email, password string) (domain.User, error)
	Register(ctx context.Context, name, email, password string, role domain.Role) (domain.User, error)
}

var mockNamespace = uuid.MustParse("6f1c7a8e-3c2b-4d55-9a51-0f3b8b1e2d77")

// MockProvider 演示用：按邮箱子串推断角色，不校验口令，登录总是成功
type MockProvider struct {
	Now func() time.Time
}

func (p MockProvider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// RoleFromEmail donor > recipient > volunteer，其余为 admin
func RoleFromEmail(email string) domain.Role {
	e := strings.ToLower(email)
	switch {
	case strings.Contains(e, "donor"):
		return domain.RoleDonor
	case strings.Contains(e, "recipient"):
		return domain.RoleRecipient
	case strings.Contains(e, "volunteer"):
		return domain.RoleVolunteer
	default:
		return domain.RoleAdmin
	}
}

func nameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return "user"
}

func (p MockProvider) Login(_ context.Context, email, _ string) (domain.User, error) {
	email = normalizeEmail(email)
	return domain.User{
		ID:        strings.ReplaceAll(uuid.NewSHA1(mockNamespace, []byte(email)).String(), "-", ""),
		Name:      nameFromEmail(email),
		Email:     email,
		Role:      RoleFromEmail(email),
		CreatedAt: p.now(),
	}, nil
}

func (p MockProvider) Register(_ context.Context, name, email, _ string, role domain.Role) (domain.User, error) {
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	return domain.User{
		ID:        utils.NewID(),
		Name:      strings.TrimSpace(name),
		Email:     normalizeEmail(email),
		Role:      role,
		CreatedAt: p.now(),
	}, nil
}

// PasswordProvider 基于 users 表 + bcrypt 的真实口令校验
type PasswordProvider struct {
	Users domain.UserRepository
	Cost  int // bcrypt cost，0 为默认
}

func NewPasswordProvider(users domain.UserRepository) *PasswordProvider {
	return &PasswordProvider{Users: users}
}

func (p *PasswordProvider) Login(ctx context.Context, email, password string) (domain.User, error) {
	c, err := p.Users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	if c == nil || !utils.CheckPassword(password, c.PasswordHash) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return c.User, nil
}

func (p *PasswordProvider) Register(ctx context.Context, name, email, password string, role domain.Role) (domain.User, error) {
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	if password == "" {
		return domain.User{}, fmt.Errorf("%w: password required", domain.ErrValidation)
	}
	email = normalizeEmail(email)
	hash, err := utils.HashPassword(password, p.Cost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return domain.User{}, fmt.Errorf("%w: password too long", domain.ErrValidation)
	}
	if err != nil {
		return domain.User{}, err
	}
	existing, err := p.Users.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	if existing != nil {
		return domain.User{}, domain.ErrEmailTaken
	}
	c := &domain.Credentials{
		User: domain.User{
			ID:    utils.NewID(),
			Name:  strings.TrimSpace(name),
			Email: email,
			Role:  role,
		},
		PasswordHash: hash,
	}
	if err := p.Users.Create(ctx, c); err != nil {
		return domain.User{}, err
	}
	return c.User, nil
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// RequireEmail 输入校验由调用方在进入 store 之前完成
func RequireEmail(email string) error {
	if normalizeEmail(email) == "" {
		return fmt.Errorf("%w: email required", domain.ErrValidation)
	}
	return nil
}

// CheckConfirmation 口令确认由调用方在进入 store 之前校验
func CheckConfirmation(password, confirm string) error {
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", domain.ErrValidation)
	}
	return nil
}
