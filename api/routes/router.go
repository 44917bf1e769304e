package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onyxprocessing/opsdash-backend/api/controllers"
	"github.com/onyxprocessing/opsdash-backend/api/middleware"
	"github.com/onyxprocessing/opsdash-backend/internal/affiliates"
	"github.com/onyxprocessing/opsdash-backend/internal/customers"
	internalorders "github.com/onyxprocessing/opsdash-backend/internal/orders"
	"github.com/onyxprocessing/opsdash-backend/internal/products"
	"github.com/onyxprocessing/opsdash-backend/internal/shipping"
	"github.com/onyxprocessing/opsdash-backend/pkg/config"
	"github.com/onyxprocessing/opsdash-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	cache controllers.Pinger,
	metricsHandler http.Handler,
	ordersService internalorders.Service,
	shippingService shipping.Service,
	productsService products.Service,
	affiliatesService affiliates.Service,
	customersService customers.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, cache))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
			r.Patch("/{orderId}", controllers.OrderUpdate(ordersService, logg))
			r.Post("/{orderId}/fulfillment", controllers.OrderFulfillment(ordersService, logg))
			r.Get("/{orderId}/payment", controllers.OrderPayment(ordersService, logg))
			r.Post("/{orderId}/label", controllers.OrderLabel(shippingService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(productsService, logg))
			r.Post("/", controllers.ProductCreate(logg))
			r.Get("/{productId}", controllers.ProductDetail(productsService, logg))
			r.Patch("/{productId}", controllers.ProductUpdate(productsService, logg))
		})

		r.Route("/affiliates", func(r chi.Router) {
			r.Get("/", controllers.AffiliatesList(affiliatesService, logg))
			r.Get("/{code}/report", controllers.AffiliateReport(affiliatesService, logg))
		})

		r.Get("/customers", controllers.CustomersList(customersService, logg))
	})

	return r
}
