// Package access gates the role-specific views of the application.
package access

import (
	"errors"
	"fmt"

	"foodshare/internal/domain"
)

type View string

const (
	Home        View = "home"
	About       View = "about"
	Login       View = "login"
	Register    View = "register"
	Donate      View = "donate"
	MyDonations View = "my-donations"
	Browse      View = "browse"
	Claim       View = "claim"
	Deliveries  View = "deliveries"
	Admin       View = "admin"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// nil 表示公开页面
var rules = map[View][]domain.Role{
	Home:        nil,
	About:       nil,
	Login:       nil,
	Register:    nil,
	Donate:      {domain.RoleDonor},
	MyDonations: {domain.RoleDonor},
	Browse:      {domain.RoleRecipient},
	Claim:       {domain.RoleRecipient},
	Deliveries:  {domain.RoleVolunteer},
	Admin:       {domain.RoleAdmin},
}

var order = []View{Home, About, Login, Register, Donate, MyDonations, Browse, Claim, Deliveries, Admin}

func ParseView(s string) (View, error) {
	v := View(s)
	if _, ok := rules[v]; !ok {
		return "", fmt.Errorf("%w: view %q", domain.ErrNotFound, s)
	}
	return v, nil
}

func (v View) Public() bool { return rules[v] == nil }

// Roles 返回可访问该页面的角色，公开页面返回 nil
func (v View) Roles() []domain.Role { return rules[v] }

// Check u 为 nil 表示未登录
func Check(u *domain.User, v View) error {
	roles, ok := rules[v]
	if !ok {
		return fmt.Errorf("%w: view %q", domain.ErrNotFound, v)
	}
	if roles == nil {
		return nil
	}
	if u == nil {
		return domain.ErrUnauthenticated
	}
	if !HasRole(u.Role, roles...) {
		return fmt.Errorf("%w: %s cannot open %s", domain.ErrForbidden, u.Role, v)
	}
	return nil
}

func HasRole(r domain.Role, allowed ...domain.Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// Redirect 未登录去登录页，角色不符回首页
func Redirect(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return LoginPath
	case errors.Is(err, domain.ErrForbidden):
		return HomePath
	default:
		return ""
	}
}

// Visible 当前身份可以进入的页面，按导航顺序
func Visible(u *domain.User) []View {
	out := make([]View, 0, len(order))
	for _, v := range order {
		if Check(u, v) == nil {
			out = append(out, v)
		}
	}
	return out
}
