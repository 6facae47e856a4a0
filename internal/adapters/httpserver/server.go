package httpserver

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

// TokenParser turns a bearer token into the calling actor.
type TokenParser interface {
	Parse(token string) (domain.Actor, error)
}

// Limiter guards a group of routes under a name.
type Limiter interface {
	Middleware(name string) func(http.Handler) http.Handler
}

type Deps struct {
	Products   *usecase.ProductUC
	Categories *usecase.CategoryUC
	Cart       *usecase.CartUC
	Coupons    *usecase.CouponUC
	Orders     *usecase.OrderUC
	Addresses  *usecase.AddressUC
	Users      *usecase.UserUC
	Tokens     TokenParser
	Limiter    Limiter

	SessionKey   string
	SecureCookie bool
	// TrustedProxies are the peers allowed to set X-Forwarded-For and
	// X-Real-IP. Everyone else is identified by the socket address.
	TrustedProxies []netip.Prefix
}

type Server struct {
	products   *usecase.ProductUC
	categories *usecase.CategoryUC
	cart       *usecase.CartUC
	coupons    *usecase.CouponUC
	orders     *usecase.OrderUC
	addresses  *usecase.AddressUC
	users      *usecase.UserUC
	tokens     TokenParser
	limiter    Limiter

	cartKey      []byte
	secureCookie bool
	proxies      []netip.Prefix
	router       chi.Router
}

func New(d Deps) http.Handler {
	s := &Server{
		products:     d.Products,
		categories:   d.Categories,
		cart:         d.Cart,
		coupons:      d.Coupons,
		orders:       d.Orders,
		addresses:    d.Addresses,
		users:        d.Users,
		tokens:       d.Tokens,
		limiter:      d.Limiter,
		cartKey:      []byte(d.SessionKey),
		secureCookie: d.SecureCookie,
		proxies:      d.TrustedProxies,
	}
	s.routes()
	return s.router
}

// limit wraps routes with the named limiter when one is configured.
func (s *Server) limit(name string) func(http.Handler) http.Handler {
	if s.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.limiter.Middleware(name)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(realIP(s.proxies))
	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.authenticate)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", s.listCategories)
		r.Get("/categories/{slug}", s.getCategory)
		r.Get("/products", s.listProducts)
		r.Get("/products/featured", s.featuredProducts)
		r.Get("/products/{slug}", s.getProduct)

		r.Get("/cart", s.getCart)
		r.Post("/cart/items", s.addCartItem)
		r.Patch("/cart/items", s.setCartItem)
		r.Delete("/cart", s.clearCart)

		r.Post("/coupons/apply", s.applyCoupon)
		r.With(s.limit("checkout")).Post("/checkout", s.checkout)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.register)
			r.With(s.limit("login")).Post("/login", s.login)
			r.With(s.limit("password-forgot")).Post("/password/forgot", s.forgotPassword)
			r.Post("/password/reset", s.resetPassword)
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/", s.me)
			r.Patch("/", s.updateMe)
			r.Get("/addresses", s.listAddresses)
			r.Post("/addresses", s.createAddress)
			r.Put("/addresses/{id}", s.updateAddress)
			r.Delete("/addresses/{id}", s.deleteAddress)
			r.Post("/addresses/{id}/default", s.setDefaultAddress)
			r.Get("/orders", s.myOrders)
			r.Get("/orders/{id}", s.myOrder)
			r.Post("/orders/{id}/cancel", s.cancelMyOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/products", s.adminListProducts)
			r.Post("/products", s.adminCreateProduct)
			r.Get("/products/{id}", s.adminGetProduct)
			r.Put("/products/{id}", s.adminUpdateProduct)
			r.Patch("/products/{id}/status", s.adminProductStatus)
			r.Delete("/products/{id}", s.adminDeleteProduct)

			r.Put("/featured/{productID}", s.adminFeature)
			r.Delete("/featured/{productID}", s.adminUnfeature)

			r.Get("/categories", s.listCategories)
			r.Post("/categories", s.adminCreateCategory)
			r.Put("/categories/{id}", s.adminUpdateCategory)
			r.Delete("/categories/{id}", s.adminDeleteCategory)

			r.Get("/coupons", s.adminListCoupons)
			r.Post("/coupons", s.adminCreateCoupon)
			r.Get("/coupons/{id}", s.adminGetCoupon)
			r.Put("/coupons/{id}", s.adminUpdateCoupon)
			r.Delete("/coupons/{id}", s.adminDeleteCoupon)

			r.Get("/orders", s.adminListOrders)
			r.Get("/orders/{id}", s.adminGetOrder)
			r.Patch("/orders/{id}/status", s.adminOrderStatus)
			r.Post("/orders/{id}/cancel", s.adminCancelOrder)
			r.Delete("/orders/{id}", s.adminDeleteOrder)

			r.Get("/sales", s.adminSales)
			r.Get("/sales.xlsx", s.adminSalesXLSX)
		})
	})
	s.router = r
}
