package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glowmart/glowmart-backend/internal/cart"
	"github.com/glowmart/glowmart-backend/internal/discount"
	"github.com/glowmart/glowmart-backend/internal/locations"
	"github.com/glowmart/glowmart-backend/internal/shipping"
	"github.com/glowmart/glowmart-backend/pkg/enums"
	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
	"github.com/glowmart/glowmart-backend/pkg/logger"
	"github.com/glowmart/glowmart-backend/pkg/metrics"
	"github.com/glowmart/glowmart-backend/pkg/shopapi"
)

type shopClient interface {
	GetCouponByID(ctx context.Context, accessToken, couponID string) (*shopapi.Coupon, error)
	CreateOrder(ctx context.Context, accessToken, idempotencyKey string, req shopapi.OrderRequest) (*shopapi.OrderResponse, error)
}

type addressDirectory interface {
	ValidateSelection(ctx context.Context, sel locations.Selection) error
	ResolveNames(ctx context.Context, sel locations.Selection) (*locations.ResolvedNames, error)
}

// AddressPatch carries a partial address update. Only non-nil fields are
// applied; changing a parent level clears its dependents.
type AddressPatch struct {
	StreetLine *string `json:"street_line,omitempty"`
	ProvinceID *int    `json:"province_id,omitempty"`
	DistrictID *int    `json:"district_id,omitempty"`
	WardCode   *string `json:"ward_code,omitempty"`
}

// View is the session state returned to the storefront after every
// operation.
type View struct {
	ID            string               `json:"id"`
	Step          enums.CheckoutStep   `json:"step"`
	Address       locations.Selection  `json:"address"`
	CouponID      *string              `json:"coupon_id,omitempty"`
	PaymentMethod *enums.PaymentMethod `json:"payment_method,omitempty"`
	Pricing       PricingSummary       `json:"pricing"`
	Items         []cart.Item          `json:"items"`
}

// SubmitResult is the outcome of a successful order submission.
type SubmitResult struct {
	OrderID    string             `json:"order_id"`
	PaymentURL *string            `json:"payment_url,omitempty"`
	Step       enums.CheckoutStep `json:"step"`
}

// Service orchestrates the checkout flow from session start to order
// submission.
type Service interface {
	Start(ctx context.Context, accessToken, userID string, fallbackDiscount int64) (*View, error)
	Get(ctx context.Context, userID, sessionID string) (*View, error)
	UpdateAddress(ctx context.Context, userID, sessionID string, patch AddressPatch) (*View, error)
	AttachCoupon(ctx context.Context, accessToken, userID, sessionID, couponID string) (*View, error)
	ConfirmAddress(ctx context.Context, userID, sessionID string) (*View, error)
	SelectPaymentMethod(ctx context.Context, userID, sessionID string, method string) (*View, error)
	Submit(ctx context.Context, accessToken, userID, sessionID string) (*SubmitResult, error)
}

type service struct {
	store     Store
	carts     cart.Loader
	estimator shipping.Estimator
	directory addressDirectory
	shop      shopClient
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	currency  string
	now       func() time.Time
}

// NewService wires the checkout orchestrator.
func NewService(
	store Store,
	carts cart.Loader,
	estimator shipping.Estimator,
	directory addressDirectory,
	shop shopClient,
	m *metrics.CheckoutMetrics,
	logg *logger.Logger,
	currency string,
) (Service, error) {
	if store == nil || carts == nil || estimator == nil || directory == nil || shop == nil {
		return nil, fmt.Errorf("store, cart loader, estimator, directory and shop client are required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if currency == "" {
		currency = enums.CurrencyVND.String()
	}
	return &service{
		store:     store,
		carts:     carts,
		estimator: estimator,
		directory: directory,
		shop:      shop,
		metrics:   m,
		logg:      logg,
		currency:  currency,
		now:       time.Now,
	}, nil
}

// Start snapshots the cart and opens a fresh session at the address step.
func (s *service) Start(ctx context.Context, accessToken, userID string, fallbackDiscount int64) (*View, error) {
	if fallbackDiscount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}

	snap, err := s.carts.Fetch(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	session := NewSession(userID, *snap, fallbackDiscount, s.now())
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	ctx = s.logg.WithSessionID(ctx, session.ID)
	s.logg.Info(ctx, "checkout session started")
	return s.view(session), nil
}

func (s *service) Get(ctx context.Context, userID, sessionID string) (*View, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// UpdateAddress applies a partial address change. Any change to the
// destination invalidates the shipping quote; when the address is complete
// again a new quote is fetched and applied only if no later change raced
// ahead of it.
func (s *service) UpdateAddress(ctx context.Context, userID, sessionID string, patch AddressPatch) (*View, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(session); err != nil {
		return nil, err
	}

	if patch.StreetLine != nil {
		session.Address.SetStreetLine(*patch.StreetLine)
	}
	if patch.ProvinceID != nil {
		session.Address.SetProvince(patch.ProvinceID)
	}
	if patch.DistrictID != nil {
		session.Address.SetDistrict(patch.DistrictID)
	}
	if patch.WardCode != nil {
		session.Address.SetWard(patch.WardCode)
	}

	// An id that does not belong to its parent never reaches the session
	// store, so no quote is ever priced for an inconsistent destination.
	if err := s.directory.ValidateSelection(ctx, session.Address); err != nil {
		return nil, err
	}

	// Editing the address sends the flow back to the address step.
	if session.Step == enums.CheckoutStepPaymentSelection {
		session.Step = enums.CheckoutStepAddressEntry
	}

	seq := session.InvalidateQuote()
	session.Touch(s.now())
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	if session.Address.Complete() {
		session = s.refreshQuote(ctx, session, seq)
	}
	return s.view(session), nil
}

// refreshQuote fetches a quote for the given sequence and applies it if
// the session has not moved on. It always returns the freshest session
// state it knows about; quote failures are non-fatal because the fee is
// simply shown as unavailable.
func (s *service) refreshQuote(ctx context.Context, session *Session, seq uint64) *Session {
	ctx = s.logg.WithSessionID(ctx, session.ID)

	start := s.now()
	quote, err := s.estimator.Estimate(ctx, session.Cart, session.Address, session.InsuranceValue(), seq)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.metrics.ObserveQuote(metrics.QuoteFailed, elapsed)
		s.logg.Warn(ctx, "shipping quote failed: "+err.Error())
		return session
	}

	// Re-read before applying: a concurrent address change bumps the
	// sequence and this quote must be discarded.
	latest, err := s.store.Load(ctx, session.ID)
	if err != nil {
		s.metrics.ObserveQuote(metrics.QuoteFailed, elapsed)
		s.logg.Warn(ctx, "session reload after quote failed: "+err.Error())
		return session
	}

	if !latest.ApplyQuote(quote) {
		s.metrics.ObserveQuote(metrics.QuoteSuperseded, elapsed)
		return latest
	}

	// The save is conditional on the stored sequence: an invalidation
	// that lands between the re-read and this write wins, and the quote
	// is discarded instead of clobbering the newer state.
	latest.Touch(s.now())
	applied, err := s.store.SaveIfQuoteSeq(ctx, latest, quote.Seq)
	if err != nil {
		s.logg.Error(ctx, "failed to persist applied quote", err)
		return latest
	}
	if !applied {
		s.metrics.ObserveQuote(metrics.QuoteSuperseded, elapsed)
		if fresh, loadErr := s.store.Load(ctx, session.ID); loadErr == nil {
			return fresh
		}
		return session
	}
	s.metrics.ObserveQuote(metrics.QuoteApplied, elapsed)
	return latest
}

// AttachCoupon validates a coupon against the cart and caches its terms on
// the session. The coupon service is consulted once per coupon; later
// recalculations reuse the cached terms.
func (s *service) AttachCoupon(ctx context.Context, accessToken, userID, sessionID, couponID string) (*View, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(session); err != nil {
		return nil, err
	}
	if couponID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}

	terms := session.CouponTerms
	if terms == nil || terms.CouponID != couponID {
		coupon, err := s.shop.GetCouponByID(ctx, accessToken, couponID)
		if err != nil {
			return nil, err
		}
		terms = discount.TermsFromCoupon(coupon)
	}

	if terms.Expired(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "coupon has expired")
	}
	if err := discount.ValidateMinimumOrder(session.Cart.Subtotal, terms); err != nil {
		return nil, err
	}

	session.CouponID = &terms.CouponID
	session.CouponTerms = terms

	// The discount changes the declared shipment value, so the quote is
	// recomputed when a destination is already on file.
	seq := session.InvalidateQuote()
	session.Touch(s.now())
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	if session.Address.Complete() {
		session = s.refreshQuote(ctx, session, seq)
	}
	return s.view(session), nil
}

// ConfirmAddress validates the full address and advances the flow to
// payment selection.
func (s *service) ConfirmAddress(ctx context.Context, userID, sessionID string) (*View, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(session); err != nil {
		return nil, err
	}
	if session.Step != enums.CheckoutStepAddressEntry {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "address is already confirmed")
	}
	if err := locations.ValidateForSubmission(session.Address); err != nil {
		return nil, err
	}

	session.Step = enums.CheckoutStepPaymentSelection
	session.Touch(s.now())
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// SelectPaymentMethod records the buyer's payment choice. Re-selecting is
// allowed any time before submission.
func (s *service) SelectPaymentMethod(ctx context.Context, userID, sessionID string, method string) (*View, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(session); err != nil {
		return nil, err
	}
	if session.Step != enums.CheckoutStepPaymentSelection {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "confirm the shipping address first")
	}

	parsed, err := enums.ParsePaymentMethod(method)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
	}

	session.PaymentMethod = &parsed
	session.Touch(s.now())
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// Submit places the order. COD orders complete immediately and close the
// session; online orders leave the session in the redirecting state so the
// buyer can be sent to the payment gateway. A failed submission returns
// the flow to payment selection so it can be retried; the idempotency key
// minted at session start guarantees retries cannot double-charge.
func (s *service) Submit(ctx context.Context, accessToken, userID, sessionID string) (*SubmitResult, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithSessionID(ctx, session.ID)

	if session.Step.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is already complete")
	}
	if session.Step == enums.CheckoutStepSubmitting {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "submission already in progress")
	}
	if session.Step != enums.CheckoutStepPaymentSelection {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "confirm the shipping address first")
	}
	if session.PaymentMethod == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select a payment method first")
	}
	if err := locations.ValidateForSubmission(session.Address); err != nil {
		return nil, err
	}
	if session.Quote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeQuote, "shipping fee is not available yet")
	}
	if err := discount.ValidateMinimumOrder(session.Cart.Subtotal, session.CouponTerms); err != nil {
		return nil, err
	}

	names, err := s.directory.ResolveNames(ctx, session.Address)
	if err != nil {
		return nil, err
	}

	session.Step = enums.CheckoutStepSubmitting
	session.Touch(s.now())
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	address := formatAddress(session.Address.StreetLine, names)
	pricing := session.Pricing(s.currency)
	order := shopapi.OrderRequest{
		ShippingAddress: address,
		BillingAddress:  address,
		PaymentMethod:   session.PaymentMethod.String(),
		CouponID:        session.CouponID,
		Currency:        pricing.Currency,
		DiscountAmount:  pricing.DiscountAmount,
		ShippingFee:     session.Quote.TotalFee,
		Total:           pricing.GrandTotal,
	}

	resp, err := s.shop.CreateOrder(ctx, accessToken, session.OrderIdempotencyKey, order)
	if err != nil {
		// A network or order-service failure stays a dependency error;
		// payment errors are reserved for a created order with a broken
		// redirect. The shop client already carries the server's message.
		s.failSubmission(ctx, session)
		return nil, err
	}

	switch *session.PaymentMethod {
	case enums.PaymentMethodCOD:
		session.Step = enums.CheckoutStepCompleted
		s.metrics.IncSubmission(metrics.SubmissionCompleted)
		if err := s.store.Delete(ctx, session.ID); err != nil {
			s.logg.Warn(ctx, "failed to delete completed session: "+err.Error())
		}
		s.logg.Info(ctx, "order placed with cash on delivery")
		return &SubmitResult{OrderID: resp.OrderID, Step: session.Step}, nil

	case enums.PaymentMethodOnline:
		if resp.PaymentURL == nil || *resp.PaymentURL == "" {
			s.failSubmission(ctx, session)
			return nil, pkgerrors.New(pkgerrors.CodePayment, "payment gateway did not return a redirect url")
		}
		session.Step = enums.CheckoutStepRedirecting
		// The coupon is spent on the created order; the lingering session
		// must not carry it into another application.
		session.CouponID = nil
		session.CouponTerms = nil
		session.Touch(s.now())
		if err := s.store.Save(ctx, session); err != nil {
			s.logg.Warn(ctx, "failed to persist redirecting session: "+err.Error())
		}
		s.metrics.IncSubmission(metrics.SubmissionRedirecting)
		s.logg.Info(ctx, "order placed, redirecting to payment gateway")
		return &SubmitResult{OrderID: resp.OrderID, PaymentURL: resp.PaymentURL, Step: session.Step}, nil

	default:
		s.failSubmission(ctx, session)
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unsupported payment method on session")
	}
}

// failSubmission returns the session to payment selection so the buyer
// can retry.
func (s *service) failSubmission(ctx context.Context, session *Session) {
	s.metrics.IncSubmission(metrics.SubmissionFailed)
	session.Step = enums.CheckoutStepPaymentSelection
	session.Touch(s.now())
	if err := s.store.Save(ctx, session); err != nil {
		s.logg.Error(ctx, "failed to roll back session after submission failure", err)
	}
}

func (s *service) load(ctx context.Context, userID, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		// Do not reveal that the session exists.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	return session, nil
}

func (s *service) view(session *Session) *View {
	return &View{
		ID:            session.ID,
		Step:          session.Step,
		Address:       session.Address,
		CouponID:      session.CouponID,
		PaymentMethod: session.PaymentMethod,
		Pricing:       session.Pricing(s.currency),
		Items:         session.Cart.Items,
	}
}

func guardMutable(session *Session) error {
	if session.Step.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is already complete")
	}
	if session.Step == enums.CheckoutStepSubmitting {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "submission already in progress")
	}
	return nil
}

// formatAddress joins the street line with the resolved ward, district and
// province names into the single-line form the order service stores.
func formatAddress(street string, names *locations.ResolvedNames) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{street, names.Ward, names.District, names.Province} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, strings.TrimSpace(part))
		}
	}
	return strings.Join(parts, ", ")
}
