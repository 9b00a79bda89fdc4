package checkout

import (
	"testing"
	"time"

	"github.com/glowmart/glowmart-backend/internal/discount"
	"github.com/glowmart/glowmart-backend/internal/shipping"
)

func TestPricingWithoutQuote(t *testing.T) {
	session := NewSession("user-1", testSnapshot(), 0, time.Now().UTC())

	pricing := session.Pricing("VND")
	if pricing.Subtotal != 500000 || pricing.DiscountAmount != 0 {
		t.Fatalf("unexpected pricing %+v", pricing)
	}
	if pricing.ShippingFee != nil {
		t.Fatalf("fee must be absent without a quote")
	}
	if pricing.GrandTotal != 500000 {
		t.Fatalf("expected grand total 500000, got %d", pricing.GrandTotal)
	}
}

func TestPricingWithQuoteAndCoupon(t *testing.T) {
	session := NewSession("user-1", testSnapshot(), 0, time.Now().UTC())
	session.CouponTerms = &discount.Terms{CouponID: "SAVE10", DiscountPercent: 10}
	session.Quote = &shipping.Quote{TotalFee: 30000}

	pricing := session.Pricing("VND")
	if pricing.DiscountAmount != 50000 {
		t.Fatalf("expected discount 50000, got %d", pricing.DiscountAmount)
	}
	if pricing.ShippingFee == nil || *pricing.ShippingFee != 30000 {
		t.Fatalf("expected fee 30000, got %+v", pricing.ShippingFee)
	}
	if pricing.GrandTotal != 480000 {
		t.Fatalf("expected grand total 480000, got %d", pricing.GrandTotal)
	}
}

func TestPricingUsesFallbackDiscount(t *testing.T) {
	session := NewSession("user-1", testSnapshot(), 25000, time.Now().UTC())

	pricing := session.Pricing("VND")
	if pricing.DiscountAmount != 25000 {
		t.Fatalf("expected fallback discount 25000, got %d", pricing.DiscountAmount)
	}
}

func TestInsuranceValueNeverNegative(t *testing.T) {
	session := NewSession("user-1", testSnapshot(), 0, time.Now().UTC())
	session.CouponTerms = &discount.Terms{CouponID: "FULL", DiscountPercent: 100}
	if session.InsuranceValue() != 0 {
		t.Fatalf("expected insurance 0, got %d", session.InsuranceValue())
	}
}

func TestQuoteSequenceGuardsApplication(t *testing.T) {
	session := NewSession("user-1", testSnapshot(), 0, time.Now().UTC())

	seq := session.InvalidateQuote()
	if seq != 1 {
		t.Fatalf("expected seq 1, got %d", seq)
	}

	stale := &shipping.Quote{TotalFee: 40000, Seq: 0}
	if session.ApplyQuote(stale) {
		t.Fatalf("stale quote must not apply")
	}

	fresh := &shipping.Quote{TotalFee: 35000, Seq: 1}
	if !session.ApplyQuote(fresh) {
		t.Fatalf("current quote must apply")
	}
	if session.Quote.TotalFee != 35000 {
		t.Fatalf("unexpected fee %d", session.Quote.TotalFee)
	}

	// A later invalidation clears the applied quote again.
	session.InvalidateQuote()
	if session.Quote != nil {
		t.Fatalf("invalidate must clear the applied quote")
	}
	if session.ApplyQuote(fresh) {
		t.Fatalf("previous quote must be rejected after invalidation")
	}
}

func TestNewSessionDistinctIdentifiers(t *testing.T) {
	a := NewSession("user-1", testSnapshot(), 0, time.Now().UTC())
	b := NewSession("user-1", testSnapshot(), 0, time.Now().UTC())
	if a.ID == b.ID {
		t.Fatalf("session ids must be unique")
	}
	if a.OrderIdempotencyKey == b.OrderIdempotencyKey {
		t.Fatalf("idempotency keys must be unique per session")
	}
	if a.ID == a.OrderIdempotencyKey {
		t.Fatalf("session id and idempotency key must differ")
	}
}
