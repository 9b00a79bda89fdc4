package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/glowmart/glowmart-backend/internal/cart"
	"github.com/glowmart/glowmart-backend/internal/discount"
	"github.com/glowmart/glowmart-backend/internal/locations"
	"github.com/glowmart/glowmart-backend/internal/shipping"
	"github.com/glowmart/glowmart-backend/pkg/enums"
)

// Session is the server-side checkout aggregate. One session exists per
// user at a time; everything the flow needs between requests lives here
// so a dropped connection or a retried request sees consistent state.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	Cart    cart.Snapshot       `json:"cart"`
	Address locations.Selection `json:"address"`

	CouponID    *string         `json:"coupon_id,omitempty"`
	CouponTerms *discount.Terms `json:"coupon_terms,omitempty"`

	// FallbackDiscount is the discount amount recorded when the session
	// started, used when no coupon terms are attached.
	FallbackDiscount int64 `json:"fallback_discount"`

	// Quote is the latest applied shipping quote, nil while the fee is
	// unknown or a recompute is in flight. QuoteSeq increments on every
	// change that invalidates the fee; a fetched quote is applied only
	// when its sequence still matches, so a slow response for an old
	// destination can never overwrite a newer one.
	Quote    *shipping.Quote `json:"quote,omitempty"`
	QuoteSeq uint64          `json:"quote_seq"`

	PaymentMethod *enums.PaymentMethod `json:"payment_method,omitempty"`
	Step          enums.CheckoutStep   `json:"step"`

	// OrderIdempotencyKey is minted once when the session starts and sent
	// with every order submission attempt, so retries after a timeout
	// cannot create duplicate orders.
	OrderIdempotencyKey string `json:"order_idempotency_key"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PricingSummary is the derived money view returned with every session
// read. ShippingFee is nil while no quote is applied.
type PricingSummary struct {
	Subtotal       int64  `json:"subtotal"`
	DiscountAmount int64  `json:"discount_amount"`
	ShippingFee    *int64 `json:"shipping_fee,omitempty"`
	GrandTotal     int64  `json:"grand_total"`
	Currency       string `json:"currency"`
}

// NewSession starts a checkout session for a cart. The identifier and the
// order idempotency key are both minted here and never change.
func NewSession(userID string, snap cart.Snapshot, fallbackDiscount int64, now time.Time) *Session {
	return &Session{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Cart:                snap,
		FallbackDiscount:    fallbackDiscount,
		Step:                enums.CheckoutStepAddressEntry,
		OrderIdempotencyKey: uuid.NewString(),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// DiscountAmount computes the effective discount for the current cart.
func (s *Session) DiscountAmount() int64 {
	return discount.Compute(s.Cart.Subtotal, s.CouponTerms, s.FallbackDiscount)
}

// InsuranceValue is the declared shipment value sent to the carrier:
// the discounted goods total, never negative.
func (s *Session) InsuranceValue() int64 {
	v := s.Cart.Subtotal - s.DiscountAmount()
	if v < 0 {
		return 0
	}
	return v
}

// Pricing derives the money summary for the session's current state.
func (s *Session) Pricing(currency string) PricingSummary {
	disc := s.DiscountAmount()
	goods := s.Cart.Subtotal - disc
	if goods < 0 {
		goods = 0
	}
	summary := PricingSummary{
		Subtotal:       s.Cart.Subtotal,
		DiscountAmount: disc,
		GrandTotal:     goods,
		Currency:       currency,
	}
	if s.Quote != nil {
		fee := s.Quote.TotalFee
		summary.ShippingFee = &fee
		summary.GrandTotal = goods + fee
	}
	return summary
}

// InvalidateQuote clears the applied quote and advances the sequence.
// Any fee response already in flight carries the old sequence and will
// be discarded when it arrives.
func (s *Session) InvalidateQuote() uint64 {
	s.Quote = nil
	s.QuoteSeq++
	return s.QuoteSeq
}

// ApplyQuote records a fetched quote if its sequence is still current.
// It reports whether the quote was applied.
func (s *Session) ApplyQuote(q *shipping.Quote) bool {
	if q == nil || q.Seq != s.QuoteSeq {
		return false
	}
	s.Quote = q
	return true
}

// Touch updates the modification timestamp.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
}
