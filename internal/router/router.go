package router

import (
	"net/http"

	"attraction-booking/internal/handler"
	"attraction-booking/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Orders  *handler.OrderHandler
	Pricing *handler.PricingHandler
	Offers  *handler.OfferHandler
}

// New creates a new HTTP router with all routes and middleware configured.
// ticketDir, when set, is served read-only under /tickets/.
func New(h Handlers, apiKey, ticketDir string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	if ticketDir != "" {
		mux.Handle("GET /tickets/", http.StripPrefix("/tickets/", http.FileServer(http.Dir(ticketDir))))
	}

	// Orders
	mux.HandleFunc("POST /api/orders", h.Orders.Create)
	mux.HandleFunc("GET /api/orders/{id}", h.Orders.GetByID)
	mux.HandleFunc("POST /api/orders/{id}/payment", h.Orders.ConfirmPayment)
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.Orders.Cancel)
	mux.HandleFunc("POST /api/bookings/{id}/resend", h.Orders.ResendTicket)

	// Pricing
	mux.HandleFunc("POST /api/quote", h.Pricing.Quote)
	mux.HandleFunc("GET /api/attractions/{id}/slots", h.Pricing.AttractionSlots)
	mux.HandleFunc("GET /api/combos/{id}/slots", h.Pricing.ComboSlots)

	// Offers
	mux.HandleFunc("POST /api/offers", h.Offers.Create)
	mux.HandleFunc("GET /api/offers/{id}", h.Offers.GetByID)
	mux.HandleFunc("DELETE /api/offers/{id}", h.Offers.Delete)

	// Apply middleware in order: CorrelationID -> Recovery -> Logging -> CORS -> APIKeyAuth
	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(apiKey, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.CorrelationID(handler)

	return handler
}
