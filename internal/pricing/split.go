package pricing

import (
	"attraction-booking/internal/model"
	"attraction-booking/internal/slot"

	"github.com/shopspring/decimal"
)

// ChildShare is the part of a combo line carried by one included attraction.
// TotalAmount is TicketAmount plus AddonAmount.
type ChildShare struct {
	AttractionID   int64
	Window         *slot.Window
	TicketAmount   decimal.Decimal
	AddonAmount    decimal.Decimal
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
}

// ComboAmounts are the amounts of a priced combo line. Tickets is the gross
// ticket part before discount, Addons the add-on part.
type ComboAmounts struct {
	Tickets  decimal.Decimal
	Addons   decimal.Decimal
	Discount decimal.Decimal
	Final    decimal.Decimal
}

// SplitCombo divides a combo line across its attractions in combo order.
// The ticket part follows the attraction_prices weights, or an even split
// when any weight is missing. Add-ons belong to the combo as a whole and are
// spread on the same weights, so the children still sum to the parent line.
// Each share is rounded to cents and the last attraction absorbs the
// remainder. The window, when known, is cut into equal consecutive segments.
func SplitCombo(combo *model.Combo, window *slot.Window, amounts ComboAmounts) []ChildShare {
	n := len(combo.AttractionIDs)
	if n == 0 {
		return nil
	}

	weights := shareWeights(combo)
	tickets := allocate(amounts.Tickets, weights)
	addons := allocate(amounts.Addons, weights)
	discounts := allocate(amounts.Discount, weights)
	finals := allocate(amounts.Final, weights)

	var windows []slot.Window
	if window != nil {
		windows = window.Split(n)
	}

	out := make([]ChildShare, n)
	for i, id := range combo.AttractionIDs {
		out[i] = ChildShare{
			AttractionID:   id,
			TicketAmount:   tickets[i],
			AddonAmount:    addons[i],
			TotalAmount:    tickets[i].Add(addons[i]),
			DiscountAmount: discounts[i],
			FinalAmount:    finals[i],
		}
		if windows != nil {
			w := windows[i]
			out[i].Window = &w
		}
	}
	return out
}

func shareWeights(combo *model.Combo) []decimal.Decimal {
	weights := make([]decimal.Decimal, len(combo.AttractionIDs))
	sum := decimal.Zero
	even := false
	for i, id := range combo.AttractionIDs {
		w, ok := combo.AttractionPrices[id]
		if !ok || w.IsNegative() {
			even = true
			break
		}
		weights[i] = w
		sum = sum.Add(w)
	}

	if even || !sum.IsPositive() {
		for i := range weights {
			weights[i] = decimal.NewFromInt(1)
		}
	}
	return weights
}

func allocate(amount decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}

	out := make([]decimal.Decimal, len(weights))
	remaining := amount
	for i, w := range weights {
		if i == len(weights)-1 {
			out[i] = remaining
			break
		}
		share := amount.Mul(w).Div(sum).Round(2)
		out[i] = share
		remaining = remaining.Sub(share)
	}
	return out
}
