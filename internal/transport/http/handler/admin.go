package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"foodshare/internal/core/cache"
	"foodshare/internal/domain"
	httpez "foodshare/internal/transport/http/ez"
)

const (
	statsKey = "foodshare:stats:listings"
	statsTTL = 15 * time.Second
)

// AdminModule 管理端；分组已由 engine 限定 admin 页面权限
type AdminModule struct{ d Deps }

func NewAdminModule(d Deps) *AdminModule { return &AdminModule{d: d} }

func (m *AdminModule) Priority() int { return 10 }

type userListQ struct {
	Offset int    `form:"offset,default=0"`
	Limit  int    `form:"limit,default=20"`
	Q      string `form:"q"` // 按 email/name 模糊搜
}

type userListOut struct {
	Total int64         `json:"total"`
	Items []domain.User `json:"items"`
}

type listingQ struct {
	Status string `form:"status"`
}

type statusIn struct {
	Status string `json:"status" binding:"required"`
}

// Stats 按推导后的状态计数
type Stats struct {
	Total    int                       `json:"total"`
	ByStatus map[domain.FoodStatus]int `json:"byStatus"`
	At       time.Time                 `json:"at"`
}

func (m *AdminModule) MountAdmin(admin *gin.RouterGroup) {
	d := m.d
	s := d.Listings
	ez := httpez.New(admin, d.log())

	httpez.RegisterAction(ez, httpez.Action[userListQ, userListOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *userListQ) (userListOut, error) {
			if d.Users == nil {
				return userListOut{}, httpez.NotFound("user directory requires auth.provider=password")
			}
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			if in.Offset < 0 {
				in.Offset = 0
			}
			us, total, err := d.Users.List(c, in.Offset, in.Limit, strings.TrimSpace(in.Q))
			if err != nil {
				return userListOut{}, httpez.Internal("list users failed", err)
			}
			return userListOut{Total: total, Items: us}, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[listingQ, []ListingView]{
		Method: http.MethodGet,
		Path:   "/listings",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *listingQ) ([]ListingView, error) {
			var want domain.FoodStatus
			if in.Status != "" {
				st, err := domain.ParseStatus(in.Status)
				if err != nil {
					return nil, err
				}
				want = st
			}
			all, err := s.All(c)
			if err != nil {
				return nil, err
			}
			items := present(all, s.Now())
			if want == "" {
				return items, nil
			}
			out := items[:0]
			for _, f := range items {
				if f.Status == want {
					out = append(out, f)
				}
			}
			return out, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[statusIn, ListingView]{
		Method: http.MethodPut,
		Path:   "/listings/:id/status",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *statusIn) (ListingView, error) {
			st, err := domain.ParseStatus(in.Status)
			if err != nil {
				return ListingView{}, err
			}
			f, err := s.UpdateStatus(c, c.Param("id"), st)
			if err != nil {
				return ListingView{}, err
			}
			return presentOne(f, s.Now()), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/listings/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := s.Delete(c, id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, Stats]{
		Method: http.MethodGet,
		Path:   "/stats",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (Stats, error) {
			if d.Cache == nil {
				st, err := m.stats(c)
				if err != nil {
					return Stats{}, err
				}
				return *st, nil
			}
			st, err := cache.GetOrLoadJSON(d.Cache, c, statsKey, statsTTL, m.stats)
			if err != nil {
				return Stats{}, httpez.Internal("load stats failed", err)
			}
			return *st, nil
		},
	})
}

func (m *AdminModule) stats(ctx context.Context) (*Stats, error) {
	s := m.d.Listings
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	st := &Stats{Total: len(all), ByStatus: make(map[domain.FoodStatus]int), At: now}
	for _, f := range all {
		st.ByStatus[f.EffectiveStatus(now)]++
	}
	return st, nil
}
