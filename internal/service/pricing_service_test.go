package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"attraction-booking/internal/model"
	"attraction-booking/internal/pricing"
	"attraction-booking/internal/slot"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPricingTestService() (*pricingService, *MockCatalogRepository, *MockSlotRepository, *MockCartPricer) {
	catalog := new(MockCatalogRepository)
	slots := new(MockSlotRepository)
	pricer := new(MockCartPricer)
	schedule := slot.Schedule{OpenHour: 10, CloseHour: 13, VirtualCapacity: 50}
	svc := NewPricingService(catalog, slots, pricer, schedule, zerolog.Nop()).(*pricingService)
	svc.now = func() time.Time { return fixedNow }
	return svc, catalog, slots, pricer
}

func TestPricingService_ListSlots_Attraction(t *testing.T) {
	ctx := context.Background()
	svc, catalog, slots, _ := newPricingTestService()

	catalog.On("GetAttraction", ctx, int64(1)).Return(&model.Attraction{ID: 1, Active: true}, nil)
	catalog.On("ListSlots", ctx, model.TargetAttraction, int64(1), bookingDate).Return([]model.Slot{
		{ID: 11, Window: slot.Window{Start: slot.At(14, 0), End: slot.At(15, 0)}, Capacity: 10, Available: true},
		{ID: 12, Window: slot.Window{Start: slot.At(15, 0), End: slot.At(16, 0)}, Capacity: 4, Available: false},
	}, nil)
	slots.On("BookedBySlot", ctx, model.TargetAttraction, []int64{11, 12}).Return(map[int64]int{11: 3, 12: 1}, nil)

	got, err := svc.ListSlots(ctx, model.TargetAttraction, 1, bookingDate.Add(15*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, slot.Physical(11), got[0].SlotID)
	assert.False(t, got[0].Virtual)
	assert.Equal(t, "2:00 PM - 3:00 PM", got[0].Label)
	assert.Equal(t, 3, got[0].Booked)
	assert.Equal(t, 7, got[0].Available)
	assert.Equal(t, 0, got[1].Available, "unavailable slots offer no places")

	for i, hour := range []int{10, 11, 12} {
		v := got[2+i]
		assert.True(t, v.Virtual)
		assert.Equal(t, slot.Virtual(1, bookingDate, hour), v.SlotID)
		assert.Equal(t, 50, v.Available)
	}
	assert.Equal(t, "10:00 AM - 11:00 AM", got[2].Label)
}

func TestPricingService_ListSlots_ComboDuration(t *testing.T) {
	ctx := context.Background()
	svc, catalog, slots, _ := newPricingTestService()

	catalog.On("GetCombo", ctx, int64(3)).
		Return(&model.Combo{ID: 3, AttractionIDs: []int64{1, 2}, Active: true}, nil)
	catalog.On("ListSlots", ctx, model.TargetCombo, int64(3), bookingDate).Return([]model.Slot{}, nil)
	slots.On("BookedBySlot", ctx, model.TargetCombo, mock.Anything).Return(map[int64]int{}, nil)

	got, err := svc.ListSlots(ctx, model.TargetCombo, 3, bookingDate)
	require.NoError(t, err)
	require.Len(t, got, 2, "two hour slots must end by closing")
	assert.Equal(t, "10:00:00", got[0].StartTime)
	assert.Equal(t, "12:00:00", got[0].EndTime)
	assert.Equal(t, "11:00 AM - 1:00 PM", got[1].Label)
}

func TestPricingService_ListSlots_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		target     model.TargetType
		setup      func(c *MockCatalogRepository)
		expectKind model.ErrorKind
	}{
		{
			name:   "inactive attraction",
			target: model.TargetAttraction,
			setup: func(c *MockCatalogRepository) {
				c.On("GetAttraction", ctx, int64(1)).Return(&model.Attraction{ID: 1}, nil)
			},
			expectKind: model.KindNotFound,
		},
		{
			name:   "missing combo",
			target: model.TargetCombo,
			setup: func(c *MockCatalogRepository) {
				c.On("GetCombo", ctx, int64(1)).Return(nil, nil)
			},
			expectKind: model.KindNotFound,
		},
		{
			name:       "unknown target type",
			target:     model.TargetType("parking"),
			expectKind: model.KindValidation,
		},
		{
			name:   "catalog failure",
			target: model.TargetAttraction,
			setup: func(c *MockCatalogRepository) {
				c.On("GetAttraction", ctx, int64(1)).Return(&model.Attraction{ID: 1, Active: true}, nil)
				c.On("ListSlots", ctx, model.TargetAttraction, int64(1), mock.Anything).Return(nil, errors.New("timeout"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, catalog, _, _ := newPricingTestService()
			if tt.setup != nil {
				tt.setup(catalog)
			}

			got, err := svc.ListSlots(ctx, tt.target, 1, bookingDate)
			assert.Nil(t, got)
			require.Error(t, err)
			if tt.expectKind != "" {
				assert.Equal(t, tt.expectKind, model.KindOf(err))
			} else {
				assert.Contains(t, err.Error(), "failed to list slots")
			}
		})
	}
}

func TestPricingService_Quote(t *testing.T) {
	ctx := context.Background()
	svc, _, _, pricer := newPricingTestService()
	req := orderRequest()

	cart := &pricing.Cart{Gross: dec(1000), Discount: dec(150), Final: dec(850)}
	pricer.On("ComputeTotalsMulti", ctx, req.Items, "save50", slot.DateOnly(fixedNow)).Return(cart, nil).Once()

	got, err := svc.Quote(ctx, req)
	require.NoError(t, err)
	assert.Same(t, cart, got)

	_, err = svc.Quote(ctx, &model.CreateOrderRequest{})
	require.Error(t, err)
	assert.Equal(t, model.KindValidation, model.KindOf(err))

	pricer.On("ComputeTotalsMulti", ctx, req.Items, "save50", mock.Anything).
		Return(nil, model.Validation(model.ErrCodeInvalidCoupon, "coupon SAVE50 has expired")).Once()
	_, err = svc.Quote(ctx, req)
	require.Error(t, err)
	assert.Equal(t, model.KindValidation, model.KindOf(err))
	pricer.AssertExpectations(t)
}
