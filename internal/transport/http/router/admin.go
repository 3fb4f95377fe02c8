package router

import (
	"github.com/gin-gonic/gin"

	"foodshare/internal/access"
	"foodshare/internal/core/auth"
	mdw "foodshare/internal/transport/http/middleware"
)

// NewAdminEngine /admin/v1 统一要求 admin 页面权限
func NewAdminEngine(o Options, reg *Registry, jwter *auth.JWTer, deny *auth.Denylist) (*gin.Engine, error) {
	r, err := base(o, "admin")
	if err != nil {
		return nil, err
	}
	admin := r.Group("/admin/v1", mdw.AuthJWT(jwter, deny, ""), mdw.RequireView(access.Admin))
	reg.MountAllAdmin(admin)
	return r, nil
}
