package handler

import (
	"net/http"
	"time"

	"attraction-booking/internal/model"
	"attraction-booking/internal/service"
	"attraction-booking/internal/slot"

	"github.com/rs/zerolog"
)

// PricingHandler serves cart quotes and slot listings.
type PricingHandler struct {
	service service.PricingService
	now     func() time.Time
	logger  zerolog.Logger
}

// NewPricingHandler creates a new pricing handler.
func NewPricingHandler(service service.PricingService, logger zerolog.Logger) *PricingHandler {
	return &PricingHandler{
		service: service,
		now:     time.Now,
		logger:  logger.With().Str("handler", "pricing").Logger(),
	}
}

// Quote handles POST /api/quote requests. Nothing is written.
func (h *PricingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	cart, err := h.service.Quote(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// AttractionSlots handles GET /api/attractions/{id}/slots?date=YYYY-MM-DD.
func (h *PricingHandler) AttractionSlots(w http.ResponseWriter, r *http.Request) {
	h.listSlots(w, r, model.TargetAttraction)
}

// ComboSlots handles GET /api/combos/{id}/slots?date=YYYY-MM-DD.
func (h *PricingHandler) ComboSlots(w http.ResponseWriter, r *http.Request) {
	h.listSlots(w, r, model.TargetCombo)
}

func (h *PricingHandler) listSlots(w http.ResponseWriter, r *http.Request, target model.TargetType) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	// Defaults to today when no date is given
	date := slot.DateOnly(h.now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err = slot.ParseDate(raw)
		if err != nil {
			writeError(w, r, model.Validation(model.ErrCodeInvalidSlot, "invalid date %q", raw), h.logger)
			return
		}
	}

	slots, err := h.service.ListSlots(r.Context(), target, id, date)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, slots)
}
