package locations

import (
	"context"
	"fmt"
	"strings"
	"sync"

	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
	"github.com/glowmart/glowmart-backend/pkg/ghn"
)

type carrierDirectory interface {
	ListProvinces(ctx context.Context) ([]ghn.Province, error)
	ListDistricts(ctx context.Context, provinceID int) ([]ghn.District, error)
	ListWards(ctx context.Context, districtID int) ([]ghn.Ward, error)
}

// Directory resolves the province/district/ward hierarchy. Lists are
// fetched lazily from the carrier and cached for the service lifetime;
// the hierarchy changes rarely enough that restarts are an acceptable
// refresh mechanism.
type Directory interface {
	Provinces(ctx context.Context) ([]ghn.Province, error)
	Districts(ctx context.Context, provinceID int) ([]ghn.District, error)
	Wards(ctx context.Context, districtID int) ([]ghn.Ward, error)
	ValidateSelection(ctx context.Context, sel Selection) error
	ResolveNames(ctx context.Context, sel Selection) (*ResolvedNames, error)
}

// ResolvedNames carries the display names for a complete selection.
type ResolvedNames struct {
	Province string
	District string
	Ward     string
}

type directory struct {
	carrier carrierDirectory

	mu        sync.Mutex
	provinces []ghn.Province
	districts map[int][]ghn.District
	wards     map[int][]ghn.Ward
}

// NewDirectory builds the location directory.
func NewDirectory(carrier carrierDirectory) (Directory, error) {
	if carrier == nil {
		return nil, fmt.Errorf("carrier client required")
	}
	return &directory{
		carrier:   carrier,
		districts: map[int][]ghn.District{},
		wards:     map[int][]ghn.Ward{},
	}, nil
}

func (d *directory) Provinces(ctx context.Context) ([]ghn.Province, error) {
	d.mu.Lock()
	cached := d.provinces
	d.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	provinces, err := d.carrier.ListProvinces(ctx)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.provinces = provinces
	d.mu.Unlock()
	return provinces, nil
}

func (d *directory) Districts(ctx context.Context, provinceID int) ([]ghn.District, error) {
	if provinceID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown province")
	}

	d.mu.Lock()
	cached, ok := d.districts[provinceID]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}

	districts, err := d.carrier.ListDistricts(ctx, provinceID)
	if err != nil {
		return nil, err
	}
	if len(districts) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown province")
	}

	d.mu.Lock()
	d.districts[provinceID] = districts
	d.mu.Unlock()
	return districts, nil
}

func (d *directory) Wards(ctx context.Context, districtID int) ([]ghn.Ward, error) {
	if districtID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown district")
	}

	d.mu.Lock()
	cached, ok := d.wards[districtID]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}

	wards, err := d.carrier.ListWards(ctx, districtID)
	if err != nil {
		return nil, err
	}
	if len(wards) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown district")
	}

	d.mu.Lock()
	d.wards[districtID] = wards
	d.mu.Unlock()
	return wards, nil
}

// ValidateSelection checks whatever levels are set against the hierarchy:
// a district must belong to the selected province's district list and a
// ward to the selected district's ward list. Unset levels are skipped, so
// a partial selection built up over several edits still validates.
func (d *directory) ValidateSelection(ctx context.Context, sel Selection) error {
	if sel.ProvinceID != nil {
		provinces, err := d.Provinces(ctx)
		if err != nil {
			return err
		}
		found := false
		for _, p := range provinces {
			if p.ProvinceID == *sel.ProvinceID {
				found = true
				break
			}
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown province").
				WithDetails(map[string]any{"province_id": *sel.ProvinceID})
		}
	}

	if sel.DistrictID != nil {
		if sel.ProvinceID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "select a province before a district")
		}
		districts, err := d.Districts(ctx, *sel.ProvinceID)
		if err != nil {
			return err
		}
		found := false
		for _, dist := range districts {
			if dist.DistrictID == *sel.DistrictID {
				found = true
				break
			}
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeValidation, "district does not belong to the selected province").
				WithDetails(map[string]any{"province_id": *sel.ProvinceID, "district_id": *sel.DistrictID})
		}
	}

	if sel.WardCode != nil && strings.TrimSpace(*sel.WardCode) != "" {
		if sel.DistrictID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "select a district before a ward")
		}
		wards, err := d.Wards(ctx, *sel.DistrictID)
		if err != nil {
			return err
		}
		found := false
		for _, w := range wards {
			if w.WardCode == *sel.WardCode {
				found = true
				break
			}
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeValidation, "ward does not belong to the selected district").
				WithDetails(map[string]any{"district_id": *sel.DistrictID, "ward_code": *sel.WardCode})
		}
	}

	return nil
}

// ResolveNames maps a complete selection back to display names. Submission
// concatenates these into the order's address string, so an id that no
// longer resolves blocks the submit.
func (d *directory) ResolveNames(ctx context.Context, sel Selection) (*ResolvedNames, error) {
	if !sel.Complete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete")
	}

	provinces, err := d.Provinces(ctx)
	if err != nil {
		return nil, err
	}
	names := &ResolvedNames{}
	for _, p := range provinces {
		if p.ProvinceID == *sel.ProvinceID {
			names.Province = p.Name
			break
		}
	}
	if names.Province == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selected province could not be resolved")
	}

	districts, err := d.Districts(ctx, *sel.ProvinceID)
	if err != nil {
		return nil, err
	}
	for _, dist := range districts {
		if dist.DistrictID == *sel.DistrictID {
			names.District = dist.Name
			break
		}
	}
	if names.District == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selected district could not be resolved")
	}

	wards, err := d.Wards(ctx, *sel.DistrictID)
	if err != nil {
		return nil, err
	}
	for _, w := range wards {
		if w.WardCode == *sel.WardCode {
			names.Ward = w.Name
			break
		}
	}
	if names.Ward == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selected ward could not be resolved")
	}

	return names, nil
}
