package router

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tewans-kitchen/pos/internal/config"
	"github.com/tewans-kitchen/pos/internal/handler"
	"github.com/tewans-kitchen/pos/internal/ledger"
	mw "github.com/tewans-kitchen/pos/internal/middleware"
	"github.com/tewans-kitchen/pos/internal/ws"
	"go.uber.org/zap"
)

// New creates a Chi router with all application routes wired up.
// metrics is mounted at /metrics when non-nil.
func New(cfg *config.Config, l *ledger.Ledger, hub *ws.Hub, logger *zap.Logger, metrics http.Handler) chi.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.Recoverer(logger))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	var events handler.Broadcaster
	if hub != nil {
		events = hub
	}

	menuHandler := handler.NewMenuHandler(l.Catalog(), cfg.Pricing.Currency)
	r.Route("/menu", menuHandler.RegisterRoutes)

	// Table-scoped routes
	orderHandler := handler.NewOrderHandler(l, events)
	paymentHandler := handler.NewPaymentHandler(l, events)
	r.Route("/tables", func(r chi.Router) {
		r.Get("/", orderHandler.ListTables)

		r.Route("/{tid}", func(r chi.Router) {
			r.Use(mw.RequireTable(l.TableCount()))
			r.Route("/order", orderHandler.RegisterRoutes)
			r.Route("/payments", paymentHandler.RegisterRoutes)
		})
	})

	transactionHandler := handler.NewTransactionHandler(l)
	r.Route("/transactions", transactionHandler.RegisterRoutes)

	reportsHandler := handler.NewReportsHandler(l)
	r.Route("/reports", reportsHandler.RegisterRoutes)

	pricingHandler := handler.NewPricingHandler(l, events)
	r.Route("/settings/pricing", pricingHandler.RegisterRoutes)

	// WebSocket routes
	if hub != nil {
		r.Get("/ws/floor", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWS(hub, ws.FloorRoom, w, r)
		})
		r.With(mw.RequireTable(l.TableCount())).Get("/ws/tables/{tid}", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWS(hub, mw.TableIDFromContext(r.Context()), w, r)
		})
	}

	logger.Info("router initialized",
		zap.Int("tables", l.TableCount()),
		zap.String("currency", cfg.Pricing.Currency),
		zap.Bool("metrics", metrics != nil),
	)
	return r
}

// Addr formats the listen address for the configured port.
func Addr(cfg *config.Config) string {
	return ":" + strconv.Itoa(cfg.Server.Port)
}
