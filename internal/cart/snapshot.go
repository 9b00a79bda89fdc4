package cart

import (
	"context"
	"fmt"

	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
	"github.com/glowmart/glowmart-backend/pkg/shopapi"
)

type cartFetcher interface {
	GetCurrentCart(ctx context.Context, accessToken string) (*shopapi.Cart, error)
}

// Item is one cart line inside a snapshot. Physical dimensions stay
// optional; the shipping aggregation applies its own defaults.
type Item struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Weight    *int   `json:"weight,omitempty"`
	Length    *int   `json:"length,omitempty"`
	Width     *int   `json:"width,omitempty"`
	Height    *int   `json:"height,omitempty"`
}

// Snapshot is the immutable view of the cart taken when checkout starts.
// Cart mutation happens before checkout, so the flow never re-reads it.
type Snapshot struct {
	Items    []Item `json:"items"`
	Subtotal int64  `json:"subtotal"`
}

// Empty reports whether the snapshot holds no items.
func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}

// Loader fetches the caller's cart from the cart service.
type Loader interface {
	Fetch(ctx context.Context, accessToken string) (*Snapshot, error)
}

type loader struct {
	shop cartFetcher
}

// NewLoader builds the cart snapshot loader.
func NewLoader(shop cartFetcher) (Loader, error) {
	if shop == nil {
		return nil, fmt.Errorf("shop client required")
	}
	return &loader{shop: shop}, nil
}

// Fetch pulls the current cart once. An empty cart is a validation
// failure: checkout cannot start without items and the caller redirects
// the user back to the shop.
func (l *loader) Fetch(ctx context.Context, accessToken string) (*Snapshot, error) {
	remote, err := l.shop.GetCurrentCart(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if remote == nil || len(remote.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	items := make([]Item, 0, len(remote.Items))
	for _, it := range remote.Items {
		items = append(items, Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Weight:    it.Weight,
			Length:    it.Length,
			Width:     it.Width,
			Height:    it.Height,
		})
	}

	return &Snapshot{Items: items, Subtotal: remote.TotalPrice}, nil
}
