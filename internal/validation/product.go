package validation

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/individuals-mars/seller-admin/internal/models"
)

type productRules struct {
	Name         string `form:"name" validate:"notblank"`
	Category     string `form:"category" validate:"notblank"`
	Shop         string `form:"shop" validate:"notblank"`
	CostPrice    string `form:"costPrice" validate:"notblank"`
	SellingPrice string `form:"sellingPrice" validate:"notblank"`
	Stock        string `form:"stock" validate:"notblank"`
}

var productMessages = map[string]string{
	"name":         "Product name is required",
	"category":     "Category is required",
	"shop":         "Shop is required",
	"costPrice":    "Cost price is required",
	"sellingPrice": "Selling price is required",
	"stock":        "Stock is required",
}

// Product validates a product draft.
func Product(d models.ProductDraft) Errors {
	errs := Errors{}

	check(productRules{
		Name:         d.Name,
		Category:     d.CategoryID(),
		Shop:         d.Shop,
		CostPrice:    d.CostPrice,
		SellingPrice: d.SellingPrice,
		Stock:        d.Stock,
	}, productMessages, errs)

	if _, failed := errs["costPrice"]; !failed {
		if msg := checkAmount(d.CostPrice); msg != "" {
			errs["costPrice"] = "Cost price " + msg
		}
	}
	if _, failed := errs["sellingPrice"]; !failed {
		if msg := checkAmount(d.SellingPrice); msg != "" {
			errs["sellingPrice"] = "Selling price " + msg
		}
	}
	if _, failed := errs["stock"]; !failed {
		if msg := checkCount(d.Stock); msg != "" {
			errs["stock"] = "Stock " + msg
		}
	}

	if _, certified := d.Labeling.(models.CertifiedLabel); certified && d.Certificate() == nil {
		errs["certificate"] = "Certificate image is required for certified products"
	}
	return errs
}

func checkAmount(raw string) string {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return "must be a number"
	}
	if v.IsNegative() {
		return "must not be negative"
	}
	return ""
}

func checkCount(raw string) string {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "must be a whole number"
	}
	if v < 0 {
		return "must not be negative"
	}
	return ""
}
