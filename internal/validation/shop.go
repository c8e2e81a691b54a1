package validation

import (
	"math"
	"strconv"
	"strings"

	"github.com/individuals-mars/seller-admin/internal/models"
)

type shopRules struct {
	Name       string `form:"shopname" validate:"notblank"`
	Address    string `form:"address" validate:"notblank"`
	Phone      string `form:"phone" validate:"phone"`
	Logo       string `form:"logotype" validate:"omitempty,logo"`
	TariffPlan string `form:"TariffPlan" validate:"omitempty,oneof=basic standard premium"`
}

var shopMessages = map[string]string{
	"shopname":   "Shop name is required",
	"address":    "Address is required",
	"phone":      "Phone must be a valid number (e.g., +998901234567)",
	"logotype":   "Logo must be a valid image URL",
	"TariffPlan": "Please select a valid tariff plan",
}

// Shop validates a shop draft.
func Shop(d models.ShopDraft) Errors {
	errs := Errors{}

	check(shopRules{
		Name:       d.Name,
		Address:    d.Address,
		Phone:      d.Phone,
		Logo:       strings.TrimSpace(d.Logo),
		TariffPlan: string(d.TariffPlan),
	}, shopMessages, errs)

	if d.HasLocation() {
		if msg := checkLocation(d.Latitude, d.Longitude); msg != "" {
			errs["location"] = msg
		}
	}
	return errs
}

func checkLocation(latRaw, lonRaw string) string {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil || !finite(lat) {
		return "Latitude must be a number (e.g., 41.3111)"
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err != nil || !finite(lon) {
		return "Longitude must be a number (e.g., 69.2797)"
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "Invalid latitude or longitude"
	}
	return ""
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
