package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"foodshare/internal/access"
	"foodshare/internal/core/auth"
	"foodshare/internal/domain"
	resp "foodshare/internal/transport/http/response"
)

const (
	KeyUserID = "userId"
	KeyRole   = "role"
	KeyClaims = "claims"
)

// AuthJWT 校验 Bearer token；浏览器 websocket 无法带头，允许 ?access_token=
func AuthJWT(j *auth.JWTer, deny *auth.Denylist, requireRole domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearer(c)
		if tok == "" {
			Deny(c, domain.ErrUnauthenticated, "missing token")
			return
		}
		claims, err := j.Parse(tok)
		if err != nil {
			Deny(c, domain.ErrUnauthenticated, "invalid token")
			return
		}
		revoked, err := deny.Revoked(c, claims.ID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServerError, "session check failed"))
			return
		}
		if revoked {
			Deny(c, domain.ErrUnauthenticated, "token revoked")
			return
		}
		if requireRole != "" && domain.Role(claims.Role) != requireRole {
			Deny(c, domain.ErrForbidden, "forbidden")
			return
		}
		c.Set(KeyUserID, claims.UID)
		c.Set(KeyRole, claims.Role)
		c.Set(KeyClaims, claims)
		c.Next()
	}
}

// RequireView 在 AuthJWT 之后按页面权限拦截
func RequireView(v access.View) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := access.Check(CurrentUser(c), v); err != nil {
			Deny(c, err, "")
			return
		}
		c.Next()
	}
}

// Deny 401/403 附带跳转目标
func Deny(c *gin.Context, err error, msg string) {
	code := resp.CodeForbidden
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		code = resp.CodeUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		code = resp.CodeNotFound
	}
	if msg == "" {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusOK, resp.ErrorWith(code, msg, gin.H{"redirect": access.Redirect(err)}))
}

func CurrentClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// CurrentUser 未登录返回 nil
func CurrentUser(c *gin.Context) *domain.User {
	claims := CurrentClaims(c)
	if claims == nil {
		return nil
	}
	u := claims.Identity()
	return &u
}

func bearer(c *gin.Context) string {
	if ah := c.GetHeader("Authorization"); strings.HasPrefix(ah, "Bearer ") {
		return strings.TrimPrefix(ah, "Bearer ")
	}
	return c.Query("access_token")
}
