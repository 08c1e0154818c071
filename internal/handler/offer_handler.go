package handler

import (
	"net/http"

	"attraction-booking/internal/model"
	"attraction-booking/internal/service"

	"github.com/rs/zerolog"
)

// OfferHandler handles offer administration requests.
type OfferHandler struct {
	service service.OfferService
	logger  zerolog.Logger
}

// NewOfferHandler creates a new offer handler.
func NewOfferHandler(service service.OfferService, logger zerolog.Logger) *OfferHandler {
	return &OfferHandler{
		service: service,
		logger:  logger.With().Str("handler", "offer").Logger(),
	}
}

// Create handles POST /api/offers requests.
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOfferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	offer, err := h.service.CreateOffer(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, offer)
}

// GetByID handles GET /api/offers/{id} requests.
func (h *OfferHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	offer, err := h.service.GetOffer(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

// Delete handles DELETE /api/offers/{id} requests.
func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.DeleteOffer(r.Context(), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
