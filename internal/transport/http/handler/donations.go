package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodshare/internal/access"
	"foodshare/internal/domain"
	httpez "foodshare/internal/transport/http/ez"
	mdw "foodshare/internal/transport/http/middleware"
)

// DonationModule 捐赠方发布与管理
type DonationModule struct{ d Deps }

func NewDonationModule(d Deps) *DonationModule { return &DonationModule{d: d} }

func (m *DonationModule) Priority() int { return 30 }

func (m *DonationModule) MountAPI(api *gin.RouterGroup) {
	s := m.d.Listings
	ez := httpez.New(m.d.authed(api), m.d.log())

	httpez.RegisterAction(ez, httpez.Action[domain.NewFoodItem, ListingView]{
		Method: http.MethodPost,
		Path:   "/donations",
		Binder: httpez.BindJSON,
		View:   access.Donate,
		Handler: func(c *gin.Context, in *domain.NewFoodItem) (ListingView, error) {
			in.DonorID = c.GetString(mdw.KeyUserID)
			f, err := s.Add(c, *in)
			if err != nil {
				return ListingView{}, err
			}
			return presentOne(f, s.Now()), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, []ListingView]{
		Method: http.MethodGet,
		Path:   "/donations",
		Binder: httpez.BindNone,
		View:   access.MyDonations,
		Handler: func(c *gin.Context, _ *struct{}) ([]ListingView, error) {
			items, err := s.ByDonor(c, c.GetString(mdw.KeyUserID))
			if err != nil {
				return nil, err
			}
			return present(items, s.Now()), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/donations/:id",
		Binder: httpez.BindNone,
		View:   access.MyDonations,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			f, err := s.FindByID(c, id)
			if err != nil {
				return nil, err
			}
			if f == nil {
				return nil, httpez.NotFound("listing not found")
			}
			if f.DonorID != c.GetString(mdw.KeyUserID) {
				return nil, httpez.Forbidden("not your donation")
			}
			if err := s.Delete(c, id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
