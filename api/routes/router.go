package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nearmarket/nearmarket-backend/api/controllers"
	"github.com/nearmarket/nearmarket-backend/api/middleware"
	adminsvc "github.com/nearmarket/nearmarket-backend/internal/admin"
	authsvc "github.com/nearmarket/nearmarket-backend/internal/auth"
	cartsvc "github.com/nearmarket/nearmarket-backend/internal/cart"
	"github.com/nearmarket/nearmarket-backend/internal/catalog"
	ordersvc "github.com/nearmarket/nearmarket-backend/internal/orders"
	reviewsvc "github.com/nearmarket/nearmarket-backend/internal/reviews"
	vendorsvc "github.com/nearmarket/nearmarket-backend/internal/vendors"
	"github.com/nearmarket/nearmarket-backend/pkg/config"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
	"github.com/nearmarket/nearmarket-backend/pkg/logger"
	"github.com/nearmarket/nearmarket-backend/pkg/metrics"
	"github.com/nearmarket/nearmarket-backend/pkg/redis"
)

// Services bundles the wired service layer handed to the router.
type Services struct {
	Auth    authsvc.Service
	Catalog catalog.Service
	Cart    cartsvc.Service
	Orders  ordersvc.Service
	Reviews reviewsvc.Service
	Vendors vendorsvc.Service
	Admin   adminsvc.Service
}

// Dependencies carries the infrastructure handles the router needs directly.
type Dependencies struct {
	Redis       *redis.Client
	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
	Health      map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svcs Services, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Health))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(rateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(rateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.AuthMe(svcs.Auth, logg))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/vendors", controllers.PublicVendors(svcs.Catalog, logg))
		r.Get("/vendors/{id}", controllers.PublicVendor(svcs.Catalog, logg))
		r.Get("/products", controllers.PublicProducts(svcs.Catalog, logg))
		r.Get("/products/{id}", controllers.PublicProduct(svcs.Catalog, logg))
		r.Get("/categories", controllers.PublicCategories(svcs.Catalog, logg))
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleCustomer, logg))

		r.Get("/", controllers.CartGet(svcs.Cart, logg))
		r.Delete("/", controllers.CartClear(svcs.Cart, logg))
		r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
		r.Put("/items/{id}", controllers.CartUpdateItem(svcs.Cart, logg))
		r.Delete("/items/{id}", controllers.CartRemoveItem(svcs.Cart, logg))
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleCustomer, logg))

		r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
		r.Get("/", controllers.OrderList(svcs.Orders, logg))
		r.Get("/{id}", controllers.OrderGet(svcs.Orders, logg))
	})

	r.Route("/api/reviews", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleCustomer, logg))

		r.Post("/product/{id}", controllers.ReviewCreateProduct(svcs.Reviews, logg))
		r.Post("/vendor/{id}", controllers.ReviewCreateVendor(svcs.Reviews, logg))
	})

	r.Route("/api/vendor", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleVendor, logg))

		r.Get("/me", controllers.VendorProfileGet(svcs.Vendors, logg))
		r.Put("/me", controllers.VendorProfileUpdate(svcs.Vendors, logg))

		r.Get("/products", controllers.VendorProductList(svcs.Vendors, logg))
		r.Post("/products", controllers.VendorProductCreate(svcs.Vendors, logg))
		r.Get("/products/{id}", controllers.VendorProductGet(svcs.Vendors, logg))
		r.Put("/products/{id}", controllers.VendorProductUpdate(svcs.Vendors, logg))
		r.Delete("/products/{id}", controllers.VendorProductDelete(svcs.Vendors, logg))

		r.Get("/orders", controllers.VendorOrderList(svcs.Orders, logg))
		r.Get("/orders/{id}", controllers.VendorOrderGet(svcs.Orders, logg))
		r.Put("/orders/{id}/status", controllers.VendorOrderUpdateStatus(svcs.Orders, logg))

		r.Get("/reviews", controllers.VendorReviewList(svcs.Reviews, logg))
		r.Post("/reviews/{id}/reply", controllers.VendorReviewReply(svcs.Reviews, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

		r.Get("/dashboard", controllers.AdminDashboard(svcs.Admin, logg))

		r.Get("/vendors", controllers.AdminVendorList(svcs.Admin, logg))
		r.Put("/vendors/{id}/verify", controllers.AdminVendorVerify(svcs.Admin, logg))

		r.Get("/categories", controllers.AdminCategoryList(svcs.Admin, logg))
		r.Post("/categories", controllers.AdminCategoryCreate(svcs.Admin, logg))
		r.Put("/categories/{id}", controllers.AdminCategoryUpdate(svcs.Admin, logg))
		r.Delete("/categories/{id}", controllers.AdminCategoryDelete(svcs.Admin, logg))

		r.Get("/orders", controllers.AdminOrderList(svcs.Admin, logg))

		r.Get("/reviews", controllers.AdminReviewList(svcs.Reviews, logg))
		r.Delete("/reviews/{id}", controllers.AdminReviewDelete(svcs.Reviews, logg))
	})

	return r
}

func rateLimit(policy middleware.AuthRateLimitPolicy, limiter *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.AuthRateLimit(policy, limiter, logg)
}
