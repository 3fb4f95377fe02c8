package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foodshare/internal/core/auth"
	"foodshare/internal/core/cache"
	"foodshare/internal/domain"
	"foodshare/internal/listing"
	"foodshare/internal/session"
	mdw "foodshare/internal/transport/http/middleware"
)

// Deps handler 共享的依赖，全部由 main 显式注入
type Deps struct {
	Log      *zap.Logger
	Listings *listing.Store
	Provider session.IdentityProvider
	Users    domain.UserRepository // nil: mock provider，没有用户目录
	JWT      *auth.JWTer
	Denylist *auth.Denylist // nil: 未启用 redis
	Cache    *cache.Cache   // nil: 未启用 redis
	Hub      *EventHub
}

func (d Deps) log() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// authed 同前缀的登录分组
func (d Deps) authed(g *gin.RouterGroup) *gin.RouterGroup {
	return g.Group("", mdw.AuthJWT(d.JWT, d.Denylist, ""))
}

// ListingView 对外输出的 listing：status 为推导后的有效状态，另附临期标记
type ListingView struct {
	domain.FoodItem
	ExpiringSoon bool `json:"expiringSoon"`
}

func present(items []domain.FoodItem, now time.Time) []ListingView {
	out := make([]ListingView, len(items))
	for i, f := range items {
		out[i] = presentOne(f, now)
	}
	return out
}

func presentOne(f domain.FoodItem, now time.Time) ListingView {
	f.Status = f.EffectiveStatus(now)
	return ListingView{FoodItem: f, ExpiringSoon: f.ExpiringSoon(now)}
}

// Modules 用户端 + 管理端全部模块
func Modules(d Deps) []any {
	return []any{
		NewAuthModule(d),
		NewListingModule(d),
		NewDonationModule(d),
		NewDeliveryModule(d),
		NewEventModule(d),
		NewAdminModule(d),
	}
}
