package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glowmart/glowmart-backend/api/middleware"
	"github.com/glowmart/glowmart-backend/api/responses"
	"github.com/glowmart/glowmart-backend/api/validators"
	checkoutsvc "github.com/glowmart/glowmart-backend/internal/checkout"
	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
	"github.com/glowmart/glowmart-backend/pkg/logger"
)

type startSessionRequest struct {
	DiscountAmount int64 `json:"discount_amount" validate:"min=0"`
}

type updateAddressRequest struct {
	StreetLine *string `json:"street_line,omitempty" validate:"omitempty,max=255"`
	ProvinceID *int    `json:"province_id,omitempty" validate:"omitempty,min=1"`
	DistrictID *int    `json:"district_id,omitempty" validate:"omitempty,min=1"`
	WardCode   *string `json:"ward_code,omitempty" validate:"omitempty,max=32"`
}

type attachCouponRequest struct {
	CouponID string `json:"coupon_id" validate:"required,max=64"`
}

type selectPaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cod online"`
}

// StartCheckoutSession snapshots the cart and opens a session.
func StartCheckoutSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload startSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Start(
			r.Context(),
			middleware.AccessTokenFromContext(r.Context()),
			middleware.UserIDFromContext(r.Context()),
			payload.DiscountAmount,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// GetCheckoutSession returns the current session state.
func GetCheckoutSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		view, err := svc.Get(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// UpdateCheckoutAddress applies a partial address change.
func UpdateCheckoutAddress(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload updateAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateAddress(
			r.Context(),
			middleware.UserIDFromContext(r.Context()),
			chi.URLParam(r, "sessionID"),
			checkoutsvc.AddressPatch{
				StreetLine: payload.StreetLine,
				ProvinceID: payload.ProvinceID,
				DistrictID: payload.DistrictID,
				WardCode:   payload.WardCode,
			},
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AttachCheckoutCoupon validates and applies a coupon to the session.
func AttachCheckoutCoupon(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload attachCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AttachCoupon(
			r.Context(),
			middleware.AccessTokenFromContext(r.Context()),
			middleware.UserIDFromContext(r.Context()),
			chi.URLParam(r, "sessionID"),
			payload.CouponID,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ConfirmCheckoutAddress locks the address and moves to payment selection.
func ConfirmCheckoutAddress(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		view, err := svc.ConfirmAddress(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// SelectCheckoutPaymentMethod records the buyer's payment choice.
func SelectCheckoutPaymentMethod(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload selectPaymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SelectPaymentMethod(
			r.Context(),
			middleware.UserIDFromContext(r.Context()),
			chi.URLParam(r, "sessionID"),
			payload.PaymentMethod,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// SubmitCheckout places the order for the session.
func SubmitCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		result, err := svc.Submit(
			r.Context(),
			middleware.AccessTokenFromContext(r.Context()),
			middleware.UserIDFromContext(r.Context()),
			chi.URLParam(r, "sessionID"),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
