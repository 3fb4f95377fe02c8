package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodshare/internal/access"
	"foodshare/internal/domain"
	"foodshare/internal/listing"
	httpez "foodshare/internal/transport/http/ez"
	mdw "foodshare/internal/transport/http/middleware"
)

// ListingModule 受赠方浏览与认领
type ListingModule struct{ d Deps }

func NewListingModule(d Deps) *ListingModule { return &ListingModule{d: d} }

func (m *ListingModule) Priority() int { return 20 }

type claimIn struct {
	DeliveryAddress *domain.Address `json:"deliveryAddress"`
}

func (m *ListingModule) MountAPI(api *gin.RouterGroup) {
	s := m.d.Listings
	ez := httpez.New(m.d.authed(api), m.d.log())

	httpez.RegisterAction(ez, httpez.Action[listing.Query, []ListingView]{
		Method: http.MethodGet,
		Path:   "/listings",
		Binder: httpez.BindQuery,
		View:   access.Browse,
		Handler: func(c *gin.Context, q *listing.Query) ([]ListingView, error) {
			items, err := s.Browse(c, *q)
			if err != nil {
				return nil, err
			}
			return present(items, s.Now()), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, ListingView]{
		Method: http.MethodGet,
		Path:   "/listings/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (ListingView, error) {
			f, err := s.FindByID(c, c.Param("id"))
			if err != nil {
				return ListingView{}, err
			}
			if f == nil {
				return ListingView{}, httpez.NotFound("listing not found")
			}
			return presentOne(*f, s.Now()), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[claimIn, ListingView]{
		Method: http.MethodPost,
		Path:   "/listings/:id/claim",
		Binder: httpez.BindJSONOptional,
		View:   access.Claim,
		Handler: func(c *gin.Context, in *claimIn) (ListingView, error) {
			f, err := s.Claim(c, c.Param("id"), c.GetString(mdw.KeyUserID), in.DeliveryAddress)
			if err != nil {
				return ListingView{}, err
			}
			return presentOne(f, s.Now()), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, []ListingView]{
		Method: http.MethodGet,
		Path:   "/claims",
		Binder: httpez.BindNone,
		View:   access.Claim,
		Handler: func(c *gin.Context, _ *struct{}) ([]ListingView, error) {
			items, err := s.ByRecipient(c, c.GetString(mdw.KeyUserID))
			if err != nil {
				return nil, err
			}
			return present(items, s.Now()), nil
		},
	})
}
