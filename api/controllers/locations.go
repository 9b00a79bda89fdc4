package controllers

import (
	"net/http"

	"github.com/glowmart/glowmart-backend/api/responses"
	"github.com/glowmart/glowmart-backend/api/validators"
	"github.com/glowmart/glowmart-backend/internal/locations"
	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
	"github.com/glowmart/glowmart-backend/pkg/logger"
)

type provinceResponse struct {
	ProvinceID int    `json:"province_id"`
	Name       string `json:"name"`
}

type districtResponse struct {
	DistrictID int    `json:"district_id"`
	ProvinceID int    `json:"province_id"`
	Name       string `json:"name"`
}

type wardResponse struct {
	WardCode   string `json:"ward_code"`
	DistrictID int    `json:"district_id"`
	Name       string `json:"name"`
}

// ListProvinces returns the top level of the address hierarchy.
func ListProvinces(dir locations.Directory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dir == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location directory unavailable"))
			return
		}

		provinces, err := dir.Provinces(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]provinceResponse, 0, len(provinces))
		for _, p := range provinces {
			out = append(out, provinceResponse{ProvinceID: p.ProvinceID, Name: p.Name})
		}
		responses.WriteSuccess(w, out)
	}
}

// ListDistricts returns the districts of one province.
func ListDistricts(dir locations.Directory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dir == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location directory unavailable"))
			return
		}

		provinceID, err := validators.RequireQueryInt(r, "province_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		districts, err := dir.Districts(r.Context(), provinceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]districtResponse, 0, len(districts))
		for _, d := range districts {
			out = append(out, districtResponse{DistrictID: d.DistrictID, ProvinceID: d.ProvinceID, Name: d.Name})
		}
		responses.WriteSuccess(w, out)
	}
}

// ListWards returns the wards of one district.
func ListWards(dir locations.Directory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dir == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location directory unavailable"))
			return
		}

		districtID, err := validators.RequireQueryInt(r, "district_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wards, err := dir.Wards(r.Context(), districtID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]wardResponse, 0, len(wards))
		for _, ward := range wards {
			out = append(out, wardResponse{WardCode: ward.WardCode, DistrictID: ward.DistrictID, Name: ward.Name})
		}
		responses.WriteSuccess(w, out)
	}
}
