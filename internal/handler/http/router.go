package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vasiliy-maslov/storefront/internal/identity"
)

// Handlers groups every resource handler mounted under /api.
type Handlers struct {
	Orders     *OrderHandler
	Products   *ProductHandler
	Categories *CategoryHandler
	Users      *UserHandler
	Admin      *AdminHandler
	Payments   *PaymentHandler
	Cart       *CartHandler

	// Identities resolves forwarded user ids against the user store.
	Identities identity.Directory
}

func NewRouter(h Handlers, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(identity.Middleware(h.Identities))

		h.Users.RegisterRoutes(api)
		h.Products.RegisterRoutes(api)
		h.Categories.RegisterRoutes(api)
		h.Cart.RegisterRoutes(api)
		h.Payments.RegisterRoutes(api)
		h.Orders.RegisterRoutes(api)

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(identity.RequireRole(identity.RoleAdmin))

			h.Admin.RegisterAdminRoutes(admin)
			h.Products.RegisterAdminRoutes(admin)
			h.Categories.RegisterAdminRoutes(admin)
			h.Orders.RegisterAdminRoutes(admin)
		})
	})

	return r
}
