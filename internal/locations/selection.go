package locations

import (
	"strings"

	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
)

// Selection is the cascading address picked during checkout. A district is
// only meaningful under its province and a ward only under its district, so
// changing a higher level always clears everything below it.
type Selection struct {
	StreetLine string  `json:"street_line"`
	ProvinceID *int    `json:"province_id,omitempty"`
	DistrictID *int    `json:"district_id,omitempty"`
	WardCode   *string `json:"ward_code,omitempty"`
}

// SetStreetLine replaces the free-text street line.
func (s *Selection) SetStreetLine(line string) {
	s.StreetLine = strings.TrimSpace(line)
}

// SetProvince stores the province and clears district and ward. The caller
// must invalidate any shipping quote computed for the old destination.
func (s *Selection) SetProvince(id *int) {
	s.ProvinceID = id
	s.DistrictID = nil
	s.WardCode = nil
}

// SetDistrict stores the district and clears the ward. The caller must
// invalidate any shipping quote computed for the old destination.
func (s *Selection) SetDistrict(id *int) {
	s.DistrictID = id
	s.WardCode = nil
}

// SetWard stores the ward code. The caller must invalidate any shipping
// quote computed for the old destination.
func (s *Selection) SetWard(code *string) {
	s.WardCode = code
}

// Complete reports whether province, district and ward are all set.
func (s Selection) Complete() bool {
	return s.ProvinceID != nil && s.DistrictID != nil && s.WardCode != nil && strings.TrimSpace(*s.WardCode) != ""
}

// ValidateForSubmission checks the selection the way the submit guards do:
// a non-empty street line plus a complete province/district/ward chain.
func ValidateForSubmission(s Selection) error {
	details := map[string]string{}
	if strings.TrimSpace(s.StreetLine) == "" {
		details["street_line"] = "is required"
	}
	if s.ProvinceID == nil {
		details["province_id"] = "is required"
	}
	if s.DistrictID == nil {
		details["district_id"] = "is required"
	}
	if s.WardCode == nil || strings.TrimSpace(*s.WardCode) == "" {
		details["ward_code"] = "is required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").WithDetails(details)
	}
	return nil
}
