package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodshare/internal/access"
	"foodshare/internal/domain"
	httpez "foodshare/internal/transport/http/ez"
	mdw "foodshare/internal/transport/http/middleware"
)

// DeliveryModule 志愿者配送
type DeliveryModule struct{ d Deps }

func NewDeliveryModule(d Deps) *DeliveryModule { return &DeliveryModule{d: d} }

func (m *DeliveryModule) Priority() int { return 40 }

func (m *DeliveryModule) MountAPI(api *gin.RouterGroup) {
	s := m.d.Listings
	ez := httpez.New(m.d.authed(api), m.d.log())

	list := func(path string, fetch func(c *gin.Context) ([]domain.FoodItem, error)) {
		httpez.RegisterAction(ez, httpez.Action[struct{}, []ListingView]{
			Method: http.MethodGet,
			Path:   path,
			Binder: httpez.BindNone,
			View:   access.Deliveries,
			Handler: func(c *gin.Context, _ *struct{}) ([]ListingView, error) {
				items, err := fetch(c)
				if err != nil {
					return nil, err
				}
				return present(items, s.Now()), nil
			},
		})
	}
	list("/deliveries/pending", func(c *gin.Context) ([]domain.FoodItem, error) {
		return s.PendingDeliveries(c)
	})
	list("/deliveries/mine", func(c *gin.Context) ([]domain.FoodItem, error) {
		return s.ByVolunteer(c, c.GetString(mdw.KeyUserID))
	})

	step := func(path string, apply func(c *gin.Context, id, volunteerID string) (domain.FoodItem, error)) {
		httpez.RegisterAction(ez, httpez.Action[struct{}, ListingView]{
			Method: http.MethodPost,
			Path:   path,
			Binder: httpez.BindNone,
			View:   access.Deliveries,
			Handler: func(c *gin.Context, _ *struct{}) (ListingView, error) {
				f, err := apply(c, c.Param("id"), c.GetString(mdw.KeyUserID))
				if err != nil {
					return ListingView{}, err
				}
				return presentOne(f, s.Now()), nil
			},
		})
	}
	step("/deliveries/:id/accept", func(c *gin.Context, id, vid string) (domain.FoodItem, error) {
		return s.AcceptDelivery(c, id, vid)
	})
	step("/deliveries/:id/complete", func(c *gin.Context, id, vid string) (domain.FoodItem, error) {
		return s.CompleteDelivery(c, id, vid)
	})
}
