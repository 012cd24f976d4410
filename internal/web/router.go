package web

import (
	"net/http"
	"time"

	"github.com/bookavenue/storefront/internal/events"
	"github.com/bookavenue/storefront/internal/repo"
	"github.com/bookavenue/storefront/internal/session"
	"github.com/bookavenue/storefront/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers wires the storefront pages to their stores and services.
type Handlers struct {
	Catalog    *repo.CatalogRepository
	Users      *repo.UserRepository
	Orders     *repo.OrderRepository
	Reviews    *repo.ReviewRepository
	Dash       *repo.DashboardRepository
	Sessions   session.Store
	Checkout   *shop.Checkout
	Recommend  *shop.Recommender
	Events     events.Publisher
	Log        *zap.Logger
	CookieName string
}

// NewRouter builds the storefront router with its middleware stack.
func NewRouter(h *Handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !h.Events.IsHealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unhealthy: event broker connection lost"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(h.withSession)

		r.Get("/", h.home)
		r.Get("/book/{id}/", h.bookDetail)
		r.Post("/book/{id}/", h.bookDetail)

		r.Get("/signup/", h.signup)
		r.Post("/signup/", h.signup)
		r.Get("/login/", h.login)
		r.Post("/login/", h.login)
		r.Get("/logout/", h.logout)
		r.Get("/profile/", h.profile)

		r.Post("/cart/add/{id}/", h.addToCart)
		r.Post("/cart/remove/{id}/", h.removeFromCart)
		r.Get("/cart/", h.cartView)
		r.Get("/checkout/", h.checkout)
		r.Post("/checkout/", h.checkout)

		r.Get("/add-book/", h.addBook)
		r.Post("/add-book/", h.addBook)
		r.Get("/edit-book/{id}/", h.editBook)
		r.Post("/edit-book/{id}/", h.editBook)
		r.Get("/publisher-dashboard/", h.publisherDashboard)
		r.Get("/manager-dashboard/", h.managerDashboard)

		r.Get("/about/", h.about)
		r.Get("/student-offer/", h.studentOffer)
		r.Post("/student-offer/", h.studentOffer)
	})

	return r
}
