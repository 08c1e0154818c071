package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"attraction-booking/internal/model"
	"attraction-booking/internal/pricing"
	"attraction-booking/internal/slot"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPricingHandler_Quote(t *testing.T) {
	mockService := new(MockPricingService)
	handler := NewPricingHandler(mockService, zerolog.Nop())

	cart := &pricing.Cart{
		Gross:         decimal.NewFromInt(1000),
		OfferDiscount: decimal.NewFromInt(100),
		Discount:      decimal.NewFromInt(100),
		Final:         decimal.NewFromInt(900),
	}
	mockService.On("Quote", mock.Anything, mock.AnythingOfType("*model.CreateOrderRequest")).Return(cart, nil)

	body := `{"items":[{"attraction_id":1,"quantity":2,"booking_date":"2025-06-01"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/quote", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	handler.Quote(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "900", got["final_amount"])
	assert.Equal(t, "1000", got["total_amount"])
	mockService.AssertExpectations(t)
}

func TestPricingHandler_Quote_NotFound(t *testing.T) {
	mockService := new(MockPricingService)
	handler := NewPricingHandler(mockService, zerolog.Nop())

	mockService.On("Quote", mock.Anything, mock.Anything).
		Return(nil, model.NotFound(model.ErrCodeComboNotFound, "combo 9 not found"))

	req := httptest.NewRequest(http.MethodPost, "/api/quote", bytes.NewBufferString(`{"items":[{"combo_id":9,"quantity":1}]}`))
	w := httptest.NewRecorder()

	handler.Quote(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPricingHandler_ListSlots(t *testing.T) {
	fixedNow := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	june2 := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		target         model.TargetType
		id             string
		query          string
		expectedDate   time.Time
		expectService  bool
		expectedStatus int
	}{
		{
			name:           "Attraction with date",
			target:         model.TargetAttraction,
			id:             "3",
			query:          "?date=2025-06-02",
			expectedDate:   june2,
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Combo defaults to today",
			target:         model.TargetCombo,
			id:             "3",
			expectedDate:   slot.DateOnly(fixedNow),
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Bad date",
			target:         model.TargetAttraction,
			id:             "3",
			query:          "?date=02-06-2025",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Bad id",
			target:         model.TargetAttraction,
			id:             "x",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPricingService)
			handler := NewPricingHandler(mockService, zerolog.Nop())
			handler.now = func() time.Time { return fixedNow }

			slots := []model.SlotAvailability{
				{SlotID: slot.Virtual(3, tt.expectedDate, 10), Virtual: true, StartTime: "10:00:00", EndTime: "11:00:00", Capacity: 300, Available: 300},
			}
			if tt.expectService {
				mockService.On("ListSlots", mock.Anything, tt.target, int64(3), tt.expectedDate).Return(slots, nil)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/x/"+tt.id+"/slots"+tt.query, nil)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()

			if tt.target == model.TargetCombo {
				handler.ComboSlots(w, req)
			} else {
				handler.AttractionSlots(w, req)
			}

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectService {
				var got []map[string]any
				require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
				require.Len(t, got, 1)
				assert.Equal(t, slot.Virtual(3, tt.expectedDate, 10).String(), got[0]["slot_id"])
				mockService.AssertExpectations(t)
			}
		})
	}
}
