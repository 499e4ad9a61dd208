package checkout

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/chowlabs/chow-backend/pkg/config"
)

// gstPercent is the flat GST rate applied to packaged food kits.
const gstPercent = 5

// Line is one priced cart line.
type Line struct {
	UnitPricePaise  int64
	UnitWeightGrams int
	Qty             int
}

// Totals is the money breakdown for a cart plus a shipping fee.
type Totals struct {
	SubtotalPaise int64
	TaxPaise      int64
	ShippingPaise int64
	TotalPaise    int64
	WeightGrams   int
}

// ComputeTotals prices the cart. Tax applies to goods only, never to the
// delivery fee.
func ComputeTotals(lines []Line, shippingPaise int64) Totals {
	var subtotal int64
	weight := 0
	for _, line := range lines {
		subtotal += line.UnitPricePaise * int64(line.Qty)
		weight += line.UnitWeightGrams * line.Qty
	}

	tax := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(gstPercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()

	return Totals{
		SubtotalPaise: subtotal,
		TaxPaise:      tax,
		ShippingPaise: shippingPaise,
		TotalPaise:    subtotal + tax + shippingPaise,
		WeightGrams:   weight,
	}
}

// LocalDeliveryFee prices a self-handled delivery: a base fee, a per-km
// charge past the free radius, and a per-kg charge on the rounded-up weight.
func LocalDeliveryFee(cfg config.DeliveryConfig, distanceKm float64, weightGrams int) int64 {
	fee := cfg.LocalBaseFeePaise

	billableKm := distanceKm - cfg.LocalFreeKm
	if billableKm > 0 {
		fee += int64(math.Ceil(billableKm)) * cfg.LocalPerKmPaise
	}

	if weightGrams > 0 {
		billedKg := int64(math.Ceil(float64(weightGrams) / 1000.0))
		fee += billedKg * cfg.LocalPerKgPaise
	}
	return fee
}
