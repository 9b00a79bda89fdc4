package shipping

import (
	"context"
	"fmt"

	"github.com/glowmart/glowmart-backend/internal/cart"
	"github.com/glowmart/glowmart-backend/internal/locations"
	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
	"github.com/glowmart/glowmart-backend/pkg/ghn"
)

// Carrier aggregation defaults. Weights are grams, dimensions are cm;
// the carrier rejects shipments below its floors, so items without
// physical data are padded up.
const (
	defaultItemWeight = 100
	minShipmentWeight = 50
	defaultDimension  = 10
	minDimension      = 10
)

type feeCalculator interface {
	CalculateFee(ctx context.Context, req ghn.FeeRequest) (*ghn.FeeResponse, error)
}

// Origin is the fixed ship-from point used for every quote.
type Origin struct {
	DistrictID    int
	WardCode      string
	ServiceTypeID int
}

// Dimensions is the aggregated physical shape of one shipment.
type Dimensions struct {
	Weight int
	Length int
	Width  int
	Height int
}

// Quote is a carrier fee bound to the request sequence that produced it.
// The sequence lets callers discard quotes that a newer destination or
// cart change has superseded.
type Quote struct {
	TotalFee int64  `json:"total_fee"`
	Seq      uint64 `json:"seq"`
}

// Estimator obtains shipping quotes for a cart and destination.
type Estimator interface {
	Estimate(ctx context.Context, snap cart.Snapshot, sel locations.Selection, insuranceValue int64, seq uint64) (*Quote, error)
}

type estimator struct {
	carrier feeCalculator
	origin  Origin
}

// NewEstimator builds the shipping fee estimator.
func NewEstimator(carrier feeCalculator, origin Origin) (Estimator, error) {
	if carrier == nil {
		return nil, fmt.Errorf("carrier client required")
	}
	if origin.DistrictID <= 0 || origin.WardCode == "" {
		return nil, fmt.Errorf("origin district and ward required")
	}
	return &estimator{carrier: carrier, origin: origin}, nil
}

// Aggregate folds the cart items into one shipment. Totals are summed for
// weight and height, maxed for length and width, then floored to the
// carrier minimums. The order of operations is fixed so quotes are
// reproducible for identical carts.
func Aggregate(items []cart.Item) Dimensions {
	dims := Dimensions{}
	for _, item := range items {
		weight := defaultItemWeight
		if item.Weight != nil {
			weight = *item.Weight
		}
		dims.Weight += weight * item.Quantity

		length := defaultDimension
		if item.Length != nil {
			length = *item.Length
		}
		if length > dims.Length {
			dims.Length = length
		}

		width := defaultDimension
		if item.Width != nil {
			width = *item.Width
		}
		if width > dims.Width {
			dims.Width = width
		}

		height := defaultDimension
		if item.Height != nil {
			height = *item.Height
		}
		dims.Height += height * item.Quantity
	}

	if dims.Weight < minShipmentWeight {
		dims.Weight = minShipmentWeight
	}
	if dims.Length < minDimension {
		dims.Length = minDimension
	}
	if dims.Width < minDimension {
		dims.Width = minDimension
	}
	if dims.Height < minDimension {
		dims.Height = minDimension
	}
	return dims
}

// BuildFeeRequest assembles the carrier payload. An empty cart produces a
// zero-valued request; callers must not send it to the carrier.
func BuildFeeRequest(snap cart.Snapshot, sel locations.Selection, origin Origin, insuranceValue int64) ghn.FeeRequest {
	if snap.Empty() {
		return ghn.FeeRequest{}
	}

	dims := Aggregate(snap.Items)
	if insuranceValue < 0 {
		insuranceValue = 0
	}

	req := ghn.FeeRequest{
		ServiceTypeID:  origin.ServiceTypeID,
		FromDistrictID: origin.DistrictID,
		FromWardCode:   origin.WardCode,
		Weight:         dims.Weight,
		Length:         dims.Length,
		Width:          dims.Width,
		Height:         dims.Height,
		InsuranceValue: insuranceValue,
	}
	if sel.DistrictID != nil {
		req.ToDistrictID = *sel.DistrictID
	}
	if sel.WardCode != nil {
		req.ToWardCode = *sel.WardCode
	}

	req.Items = make([]ghn.FeeItem, 0, len(snap.Items))
	for _, item := range snap.Items {
		weight := defaultItemWeight
		if item.Weight != nil {
			weight = *item.Weight
		}
		length := defaultDimension
		if item.Length != nil {
			length = *item.Length
		}
		width := defaultDimension
		if item.Width != nil {
			width = *item.Width
		}
		height := defaultDimension
		if item.Height != nil {
			height = *item.Height
		}
		req.Items = append(req.Items, ghn.FeeItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Weight:   weight,
			Length:   length,
			Width:    width,
			Height:   height,
		})
	}
	return req
}

// Estimate quotes the shipment. It must only be called with a complete
// destination; an empty cart short-circuits to a zero fee without touching
// the carrier. Carrier failures surface as a quote error so the flow can
// keep the fee "unavailable" instead of showing a stale number.
func (e *estimator) Estimate(ctx context.Context, snap cart.Snapshot, sel locations.Selection, insuranceValue int64, seq uint64) (*Quote, error) {
	if !sel.Complete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination is incomplete")
	}
	if snap.Empty() {
		return &Quote{TotalFee: 0, Seq: seq}, nil
	}

	req := BuildFeeRequest(snap, sel, e.origin, insuranceValue)

	resp, err := e.carrier.CalculateFee(ctx, req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeQuote, err, "shipping quote unavailable")
	}

	return &Quote{TotalFee: resp.TotalFee, Seq: seq}, nil
}
