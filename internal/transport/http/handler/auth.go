package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"foodshare/internal/access"
	"foodshare/internal/domain"
	"foodshare/internal/session"
	httpez "foodshare/internal/transport/http/ez"
	mdw "foodshare/internal/transport/http/middleware"
)

type AuthModule struct{ d Deps }

func NewAuthModule(d Deps) *AuthModule { return &AuthModule{d: d} }

func (m *AuthModule) Priority() int { return 10 }

type loginIn struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerIn struct {
	Name            string `json:"name"            binding:"required,max=64"`
	Email           string `json:"email"           binding:"required,email"`
	Password        string `json:"password"        binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	Role            string `json:"role"            binding:"required"`
}

type tokenOut struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

type meOut struct {
	User  domain.User   `json:"user"`
	Views []access.View `json:"views"`
}

func (m *AuthModule) MountAPI(api *gin.RouterGroup) {
	d := m.d
	public := httpez.New(api, d.log())

	httpez.RegisterAction(public, httpez.Action[loginIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (tokenOut, error) {
			u, err := d.Provider.Login(c, in.Email, in.Password)
			if err != nil {
				return tokenOut{}, err
			}
			return m.issue(u)
		},
	})

	httpez.RegisterAction(public, httpez.Action[registerIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *registerIn) (tokenOut, error) {
			if err := session.CheckConfirmation(in.Password, in.ConfirmPassword); err != nil {
				return tokenOut{}, err
			}
			role, err := domain.ParseRole(in.Role)
			if err != nil {
				return tokenOut{}, err
			}
			u, err := d.Provider.Register(c, in.Name, in.Email, in.Password, role)
			if err != nil {
				return tokenOut{}, err
			}
			return m.issue(u)
		},
	})

	authed := httpez.New(d.authed(api), d.log())

	httpez.RegisterAction(authed, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if err := d.Denylist.Revoke(c, mdw.CurrentClaims(c)); err != nil {
				return nil, httpez.Internal("logout failed", err)
			}
			return gin.H{"revoked": d.Denylist != nil}, nil
		},
	})

	httpez.RegisterAction(authed, httpez.Action[struct{}, meOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (meOut, error) {
			u := mdw.CurrentUser(c)
			if u == nil {
				return meOut{}, domain.ErrUnauthenticated
			}
			return meOut{User: *u, Views: access.Visible(u)}, nil
		},
	})
}

func (m *AuthModule) issue(u domain.User) (tokenOut, error) {
	tok, claims, err := m.d.JWT.Issue(u)
	if err != nil {
		return tokenOut{}, httpez.Internal("issue token failed", err)
	}
	return tokenOut{Token: tok, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}
