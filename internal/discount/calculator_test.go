package discount

import (
	"testing"
	"time"

	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
	"github.com/glowmart/glowmart-backend/pkg/shopapi"
)

func int64Ptr(v int64) *int64 { return &v }

func TestComputePercentageFloored(t *testing.T) {
	terms := &Terms{CouponID: "SAVE15", DiscountPercent: 15}
	// 333333 * 15% = 49999.95, floored to whole VND.
	if got := Compute(333333, terms, 0); got != 49999 {
		t.Fatalf("expected 49999, got %d", got)
	}
}

func TestComputeAppliesCap(t *testing.T) {
	terms := &Terms{CouponID: "SAVE10", DiscountPercent: 10, MaxDiscountAmount: int64Ptr(30000)}
	// 10% of 500000 is 50000, cap brings it down to 30000.
	if got := Compute(500000, terms, 0); got != 30000 {
		t.Fatalf("expected capped 30000, got %d", got)
	}

	uncapped := &Terms{CouponID: "SAVE20", DiscountPercent: 20}
	if got := Compute(1000000, uncapped, 0); got != 200000 {
		t.Fatalf("expected 200000 without a cap, got %d", got)
	}
}

func TestComputeNeverExceedsSubtotal(t *testing.T) {
	terms := &Terms{CouponID: "FREE", DiscountPercent: 100}
	if got := Compute(80000, terms, 0); got != 80000 {
		t.Fatalf("expected 80000, got %d", got)
	}
	over := &Terms{CouponID: "OVER", DiscountPercent: 150}
	if got := Compute(80000, over, 0); got != 80000 {
		t.Fatalf("expected clamp to subtotal, got %d", got)
	}
}

func TestComputeFallbackWithoutTerms(t *testing.T) {
	if got := Compute(200000, nil, 30000); got != 30000 {
		t.Fatalf("expected fallback 30000, got %d", got)
	}
	// The recorded fallback is still bounded by the subtotal.
	if got := Compute(20000, nil, 30000); got != 20000 {
		t.Fatalf("expected fallback clamped to 20000, got %d", got)
	}
	if got := Compute(20000, nil, -5); got != 0 {
		t.Fatalf("expected negative fallback clamped to 0, got %d", got)
	}
}

func TestValidateMinimumOrder(t *testing.T) {
	terms := &Terms{CouponID: "BIG", DiscountPercent: 10, MinimumOrderPrice: int64Ptr(500000)}

	if err := ValidateMinimumOrder(500000, terms); err != nil {
		t.Fatalf("subtotal at the minimum must pass, got %v", err)
	}
	err := ValidateMinimumOrder(499999, terms)
	if !pkgerrors.IsCode(err, pkgerrors.CodeBusinessRule) {
		t.Fatalf("expected business rule error, got %v", err)
	}
	if err := ValidateMinimumOrder(1, nil); err != nil {
		t.Fatalf("no terms means no gate, got %v", err)
	}
	if err := ValidateMinimumOrder(1, &Terms{CouponID: "X", DiscountPercent: 5}); err != nil {
		t.Fatalf("no minimum means no gate, got %v", err)
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if (&Terms{ExpiryDate: &past}).Expired(now) != true {
		t.Fatalf("past expiry must report expired")
	}
	if (&Terms{ExpiryDate: &future}).Expired(now) {
		t.Fatalf("future expiry must not report expired")
	}
	if (&Terms{}).Expired(now) {
		t.Fatalf("missing expiry must not report expired")
	}
	var nilTerms *Terms
	if nilTerms.Expired(now) {
		t.Fatalf("nil terms must not report expired")
	}
}

func TestTermsFromCoupon(t *testing.T) {
	exp := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	coupon := &shopapi.Coupon{
		ID:                "SPRING",
		DiscountPercent:   25,
		MaxDiscountAmount: int64Ptr(100000),
		MinimumOrderPrice: int64Ptr(400000),
		ExpiryDate:        &exp,
	}
	terms := TermsFromCoupon(coupon)
	if terms.CouponID != "SPRING" || terms.DiscountPercent != 25 {
		t.Fatalf("unexpected terms %+v", terms)
	}
	if *terms.MaxDiscountAmount != 100000 || *terms.MinimumOrderPrice != 400000 {
		t.Fatalf("constraints not carried over: %+v", terms)
	}
	if !terms.ExpiryDate.Equal(exp) {
		t.Fatalf("expiry not carried over")
	}
	if TermsFromCoupon(nil) != nil {
		t.Fatalf("nil coupon must map to nil terms")
	}
}
