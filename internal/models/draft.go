package models

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/individuals-mars/seller-admin/internal/staging"
)

// ShopDraft is the editable, unsaved state of a shop form. Values are kept
// exactly as typed so a failed submit can show them again.
type ShopDraft struct {
	Name        string     `json:"shopname"`
	Address     string     `json:"address"`
	Description string     `json:"description"`
	Logo        string     `json:"logotype"`
	Phone       string     `json:"phone"`
	Latitude    string     `json:"lat"`
	Longitude   string     `json:"lon"`
	TariffPlan  TariffPlan `json:"TariffPlan"`
}

// NewShopDraft returns the defaults of the create-shop form.
func NewShopDraft() ShopDraft {
	return ShopDraft{TariffPlan: TariffBasic}
}

// ShopDraftFrom projects a fetched shop into an editable draft.
func ShopDraftFrom(s *Shop) ShopDraft {
	d := ShopDraft{
		Name:        s.Name,
		Address:     s.Address,
		Description: s.Description,
		Logo:        s.Logo,
		Phone:       s.Phone,
		TariffPlan:  s.TariffPlan,
	}
	if d.TariffPlan == "" {
		d.TariffPlan = TariffBasic
	}
	if s.Location != nil {
		d.Latitude = formatCoordinate(s.Location.Lat)
		d.Longitude = formatCoordinate(s.Location.Lon)
	}
	return d
}

// HasLocation reports whether either coordinate was filled in.
func (d ShopDraft) HasLocation() bool {
	return strings.TrimSpace(d.Latitude) != "" || strings.TrimSpace(d.Longitude) != ""
}

// Payload converts a validated draft into the request body.
func (d ShopDraft) Payload() ShopPayload {
	p := ShopPayload{
		Name:        strings.TrimSpace(d.Name),
		Address:     strings.TrimSpace(d.Address),
		Description: d.Description,
		Logo:        strings.TrimSpace(d.Logo),
		Phone:       strings.TrimSpace(d.Phone),
		TariffPlan:  d.TariffPlan,
	}
	if p.TariffPlan == "" {
		p.TariffPlan = TariffBasic
	}
	if d.HasLocation() {
		lat, _ := strconv.ParseFloat(strings.TrimSpace(d.Latitude), 64)
		lon, _ := strconv.ParseFloat(strings.TrimSpace(d.Longitude), 64)
		p.Location = &Location{Lat: lat, Lon: lon}
	}
	return p
}

// Classification is the category choice of a product draft. A subcategory
// can only exist under a chosen category.
type Classification interface {
	isClassification()
}

// Uncategorized means no category has been picked yet.
type Uncategorized struct{}

// Categorized carries a category without a subcategory.
type Categorized struct {
	Category string
}

// Subcategorized carries a category and one of its subcategories.
type Subcategorized struct {
	Category    string
	Subcategory string
}

func (Uncategorized) isClassification()  {}
func (Categorized) isClassification()    {}
func (Subcategorized) isClassification() {}

// CertifiedLabelText is the label that requires a certificate image.
const CertifiedLabelText = "Certified"

// Labeling is the optional product label. Only a certified label has a
// certificate slot.
type Labeling interface {
	isLabeling()
}

// Unlabeled means the label field is empty.
type Unlabeled struct{}

// PlainLabel is any free-text label.
type PlainLabel struct {
	Text string
}

// CertifiedLabel is the certified label and its staged certificate, nil
// until one is attached.
type CertifiedLabel struct {
	Certificate *staging.Image
}

func (Unlabeled) isLabeling()      {}
func (PlainLabel) isLabeling()     {}
func (CertifiedLabel) isLabeling() {}

// LabelFor maps typed label text to its variant.
func LabelFor(text string) Labeling {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return Unlabeled{}
	case strings.EqualFold(text, CertifiedLabelText):
		return CertifiedLabel{}
	default:
		return PlainLabel{Text: text}
	}
}

// ProductDraft is the editable, unsaved state of a create-product form.
type ProductDraft struct {
	Name           string
	Shop           string
	CostPrice      string
	SellingPrice   string
	Stock          string
	Description    string
	Classification Classification
	Labeling       Labeling
}

// NewProductDraft returns an empty product draft.
func NewProductDraft() ProductDraft {
	return ProductDraft{
		Classification: Uncategorized{},
		Labeling:       Unlabeled{},
	}
}

// CategoryID returns the chosen category or "".
func (d ProductDraft) CategoryID() string {
	switch c := d.Classification.(type) {
	case Categorized:
		return c.Category
	case Subcategorized:
		return c.Category
	default:
		return ""
	}
}

// SubcategoryID returns the chosen subcategory or "".
func (d ProductDraft) SubcategoryID() string {
	if c, ok := d.Classification.(Subcategorized); ok {
		return c.Subcategory
	}
	return ""
}

// Label returns the label text as it is sent to the backend.
func (d ProductDraft) Label() string {
	switch l := d.Labeling.(type) {
	case PlainLabel:
		return l.Text
	case CertifiedLabel:
		return CertifiedLabelText
	default:
		return ""
	}
}

// Certificate returns the staged certificate, if the label has one.
func (d ProductDraft) Certificate() *staging.Image {
	if l, ok := d.Labeling.(CertifiedLabel); ok {
		return l.Certificate
	}
	return nil
}

// Payload converts a validated draft into the structured product body.
func (d ProductDraft) Payload(sellerID string) ProductPayload {
	cost, _ := decimal.NewFromString(strings.TrimSpace(d.CostPrice))
	selling, _ := decimal.NewFromString(strings.TrimSpace(d.SellingPrice))
	stock, _ := strconv.Atoi(strings.TrimSpace(d.Stock))

	p := ProductPayload{
		Name:        strings.TrimSpace(d.Name),
		Category:    d.CategoryID(),
		Seller:      sellerID,
		Shop:        d.Shop,
		Stock:       stock,
		Price:       Price{CostPrice: cost, SellingPrice: selling},
		Description: d.Description,
		Tags:        []string{},
	}
	if label := d.Label(); label != "" {
		p.Tags = []string{label}
	}
	if sub := d.SubcategoryID(); sub != "" {
		p.Subcategory = &sub
	}
	return p
}
