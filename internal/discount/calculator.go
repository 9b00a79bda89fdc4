package discount

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
	"github.com/glowmart/glowmart-backend/pkg/shopapi"
)

// Terms are the coupon conditions the flow caches after the first lookup.
// Amounts are VND. A nil cap or minimum means the constraint is absent.
type Terms struct {
	CouponID          string     `json:"coupon_id"`
	DiscountPercent   int64      `json:"discount_percent"`
	MaxDiscountAmount *int64     `json:"max_discount_amount,omitempty"`
	MinimumOrderPrice *int64     `json:"minimum_order_price,omitempty"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
}

// TermsFromCoupon maps the shop's coupon record into cached terms.
func TermsFromCoupon(c *shopapi.Coupon) *Terms {
	if c == nil {
		return nil
	}
	return &Terms{
		CouponID:          c.ID,
		DiscountPercent:   c.DiscountPercent,
		MaxDiscountAmount: c.MaxDiscountAmount,
		MinimumOrderPrice: c.MinimumOrderPrice,
		ExpiryDate:        c.ExpiryDate,
	}
}

// Expired reports whether the coupon's expiry has passed at the given time.
// Coupons without an expiry never expire.
func (t *Terms) Expired(now time.Time) bool {
	if t == nil || t.ExpiryDate == nil {
		return false
	}
	return now.After(*t.ExpiryDate)
}

// ValidateMinimumOrder checks the coupon's minimum-order gate against the
// cart subtotal. The error names the required amount so the storefront can
// show it verbatim.
func ValidateMinimumOrder(subtotal int64, terms *Terms) error {
	if terms == nil || terms.MinimumOrderPrice == nil {
		return nil
	}
	if subtotal < *terms.MinimumOrderPrice {
		return pkgerrors.New(
			pkgerrors.CodeBusinessRule,
			fmt.Sprintf("order subtotal does not meet the coupon minimum of %d", *terms.MinimumOrderPrice),
		)
	}
	return nil
}

// Compute derives the discount amount for a subtotal. Without terms the
// fallback amount recorded at checkout start is used verbatim. With terms
// the percentage is applied exactly in decimal space and floored to whole
// VND, then clamped to the coupon cap and to the subtotal itself.
func Compute(subtotal int64, terms *Terms, fallback int64) int64 {
	if terms == nil {
		return clamp(fallback, subtotal)
	}

	raw := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(terms.DiscountPercent)).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()

	if terms.MaxDiscountAmount != nil && raw > *terms.MaxDiscountAmount {
		raw = *terms.MaxDiscountAmount
	}
	return clamp(raw, subtotal)
}

func clamp(amount, subtotal int64) int64 {
	if amount < 0 {
		return 0
	}
	if amount > subtotal {
		return subtotal
	}
	return amount
}
