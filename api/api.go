// Package api exposes the user and stock services over HTTP.
package api

import (
	"errors"

	"github.com/Virag-Koradiya/unlisted-stocks/auth"
	"github.com/Virag-Koradiya/unlisted-stocks/catalog"
	"github.com/Virag-Koradiya/unlisted-stocks/httpx"
)

// Prefix is where every route of the API is mounted.
const Prefix = "/api"

var ErrMissingDependency = errors.New("api: users, stocks and gate are required")

// Handlers serves the user and stock routes.
type Handlers struct {
	users  *auth.UserService
	stocks *catalog.Service
	gate   *auth.Gate
}

func New(users *auth.UserService, stocks *catalog.Service, gate *auth.Gate) (*Handlers, error) {
	if users == nil || stocks == nil || gate == nil {
		return nil, ErrMissingDependency
	}
	return &Handlers{users: users, stocks: stocks, gate: gate}, nil
}

// RegisterRoutes mounts the API on e. Catalog reads are public; every
// catalog write passes through the gate.
func (h *Handlers) RegisterRoutes(e *httpx.Echo) {
	requireSession := httpx.AuthMiddleware(h.gate)

	httpx.NewRouter(e, Prefix+"/user").
		POST("/register", h.register).
		POST("/login", h.login).
		GET("/logout", h.logout).
		POST("/logout", h.logout)

	httpx.RegisterRoutes(e, Prefix+"/stock",
		httpx.Route{Method: "GET", Path: "", Handler: h.listStocks},
		httpx.Route{Method: "POST", Path: "", Handler: h.addStock, Middleware: []httpx.MiddlewareFunc{requireSession}},
		httpx.Route{Method: "PUT", Path: "/:id", Handler: h.updateStock, Middleware: []httpx.MiddlewareFunc{requireSession}},
		httpx.Route{Method: "DELETE", Path: "/:id", Handler: h.deleteStock, Middleware: []httpx.MiddlewareFunc{requireSession}},
	)
}
