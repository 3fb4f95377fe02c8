package app

import (
	"foodshare/internal/transport/http/handler"
)

// HandlerDeps hub 为 nil 时不挂 /events
func (a *App) HandlerDeps(hub *handler.EventHub) handler.Deps {
	return handler.Deps{
		Log:      a.Log,
		Listings: a.Listings,
		Provider: a.Provider,
		Users:    a.Users,
		JWT:      a.JWT,
		Denylist: a.Denylist,
		Cache:    a.Cache,
		Hub:      hub,
	}
}
