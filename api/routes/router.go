package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storefrontlabs/storefront-backend/api/controllers"
	"github.com/storefrontlabs/storefront-backend/api/middleware"
	authsvc "github.com/storefrontlabs/storefront-backend/internal/auth"
	cartsvc "github.com/storefrontlabs/storefront-backend/internal/cart"
	"github.com/storefrontlabs/storefront-backend/internal/catalog"
	ordersvc "github.com/storefrontlabs/storefront-backend/internal/orders"
	"github.com/storefrontlabs/storefront-backend/pkg/auth/session"
	"github.com/storefrontlabs/storefront-backend/pkg/config"
	"github.com/storefrontlabs/storefront-backend/pkg/logger"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          controllers.Pinger
	SessionChecker session.AccessSessionChecker
	AuthService    authsvc.Service
	CatalogService catalog.Service
	CartService    cartsvc.Service
	OrdersService  ordersvc.Service
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.AuthRegister(params.AuthService, logg))
			r.Post("/login", controllers.AuthLogin(params.AuthService, logg))
			r.Post("/refresh", controllers.AuthRefresh(params.AuthService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, params.SessionChecker, logg))
				r.Post("/logout", controllers.AuthLogout(params.AuthService, logg))
				r.Get("/me", controllers.AuthMe(params.AuthService, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(params.CatalogService, logg))
			r.Get("/{productId}", controllers.ProductDetail(params.CatalogService, logg))
		})
		r.Get("/categories", controllers.CategoryList(params.CatalogService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, params.SessionChecker, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(params.CartService, logg))
				r.Delete("/", controllers.CartClear(params.CartService, logg))
				r.Post("/items", controllers.CartAddItem(params.CartService, logg))
				r.Put("/items/{itemId}", controllers.CartUpdateItem(params.CartService, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(params.CartService, logg))
				r.Post("/merge", controllers.CartMerge(params.CartService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.OrderCreate(params.OrdersService, logg))
				r.Get("/", controllers.OrderList(params.OrdersService, logg))
				r.Get("/{orderId}", controllers.OrderDetail(params.OrdersService, logg))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(params.OrdersService, logg))
			})
		})
	})

	return r
}
