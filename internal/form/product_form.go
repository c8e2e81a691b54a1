package form

import (
	"context"
	"fmt"
	"sync"

	"github.com/individuals-mars/seller-admin/internal/models"
	"github.com/individuals-mars/seller-admin/internal/staging"
	"github.com/individuals-mars/seller-admin/internal/validation"
	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

// ProductStore persists products. *marketplace.Client satisfies it.
type ProductStore interface {
	CreateProduct(ctx context.Context, p models.ProductPayload, images []marketplace.File, certificate *marketplace.File, s marketplace.Session) (*models.Product, error)
}

// ProductPatch carries the fields changed by one edit. Category,
// Subcategory and Label go through the same rules as SelectCategory,
// SelectSubcategory and SetLabel, in that order.
type ProductPatch struct {
	Name         *string `json:"name"`
	Shop         *string `json:"shop"`
	CostPrice    *string `json:"costPrice"`
	SellingPrice *string `json:"sellingPrice"`
	Stock        *string `json:"stock"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Subcategory  *string `json:"subcategory"`
	Label        *string `json:"label"`
}

// ProductForm is one create-product screen.
type ProductForm struct {
	mu          sync.Mutex
	store       ProductStore
	state       State
	draft       models.ProductDraft
	categories  []models.Category
	shops       []models.Shop
	images      *staging.Set
	certificate *staging.Set
	errs        validation.Errors
	failure     string
}

// NewProductForm starts an empty create form. categories and shops are the
// options offered by the selects.
func NewProductForm(store ProductStore, categories []models.Category, shops []models.Shop, previews *staging.Previews, policy staging.Policy) *ProductForm {
	return &ProductForm{
		store:       store,
		draft:       models.NewProductDraft(),
		categories:  categories,
		shops:       shops,
		images:      staging.NewSet(previews, policy),
		certificate: staging.NewSingle(previews, policy),
	}
}

// ProductSnapshot is a read-only copy of the form for rendering.
type ProductSnapshot struct {
	State            State                `json:"state"`
	Name             string               `json:"name"`
	Shop             string               `json:"shop"`
	CostPrice        string               `json:"costPrice"`
	SellingPrice     string               `json:"sellingPrice"`
	Stock            string               `json:"stock"`
	Description      string               `json:"description"`
	Category         string               `json:"category"`
	Subcategory      string               `json:"subcategory"`
	Label            string               `json:"label"`
	Subcategories    []models.Subcategory `json:"subcategories"`
	Shops            []models.Shop        `json:"shops"`
	Categories       []models.Category    `json:"categories"`
	Images           []*staging.Image     `json:"images"`
	HiddenImages     int                  `json:"hiddenImages"`
	NeedsCertificate bool                 `json:"needsCertificate"`
	Certificate      *staging.Image       `json:"certificate,omitempty"`
	Errors           validation.Errors    `json:"errors,omitempty"`
	Failure          string               `json:"failure,omitempty"`
}

// Snapshot returns the current form state.
func (f *ProductForm) Snapshot() ProductSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	inline, hidden := f.images.Inline()
	_, certified := f.draft.Labeling.(models.CertifiedLabel)
	return ProductSnapshot{
		State:            f.state,
		Name:             f.draft.Name,
		Shop:             f.draft.Shop,
		CostPrice:        f.draft.CostPrice,
		SellingPrice:     f.draft.SellingPrice,
		Stock:            f.draft.Stock,
		Description:      f.draft.Description,
		Category:         f.draft.CategoryID(),
		Subcategory:      f.draft.SubcategoryID(),
		Label:            f.draft.Label(),
		Subcategories:    f.subcategories(),
		Shops:            f.shops,
		Categories:       f.categories,
		Images:           inline,
		HiddenImages:     hidden,
		NeedsCertificate: certified,
		Certificate:      f.certificate.First(),
		Errors:           copyErrors(f.errs),
		Failure:          f.failure,
	}
}

// State returns the lifecycle state.
func (f *ProductForm) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns a copy of the draft.
func (f *ProductForm) Draft() models.ProductDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Gallery returns every staged product image in order.
func (f *ProductForm) Gallery() []*staging.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.images.Images()
}

// Edit applies a field patch. A rejected category, subcategory or label
// leaves the rest of the patch applied.
func (f *ProductForm) Edit(p ProductPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.draft.Name, p.Name)
	set(&f.draft.Shop, p.Shop)
	set(&f.draft.CostPrice, p.CostPrice)
	set(&f.draft.SellingPrice, p.SellingPrice)
	set(&f.draft.Stock, p.Stock)
	set(&f.draft.Description, p.Description)

	if p.Category != nil {
		if err := f.selectCategory(*p.Category); err != nil {
			return err
		}
	}
	if p.Subcategory != nil {
		if err := f.selectSubcategory(*p.Subcategory); err != nil {
			return err
		}
	}
	if p.Label != nil {
		f.setLabel(*p.Label)
	}
	return nil
}

// SelectCategory picks a category and clears any subcategory. An empty id
// clears the category.
func (f *ProductForm) SelectCategory(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}
	return f.selectCategory(id)
}

func (f *ProductForm) selectCategory(id string) error {
	if id == "" {
		f.draft.Classification = models.Uncategorized{}
		return nil
	}
	if _, ok := models.FindCategory(f.categories, id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, id)
	}
	f.draft.Classification = models.Categorized{Category: id}
	return nil
}

// SelectSubcategory picks a subcategory of the chosen category. An empty
// id clears it.
func (f *ProductForm) SelectSubcategory(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}
	return f.selectSubcategory(id)
}

func (f *ProductForm) selectSubcategory(id string) error {
	categoryID := f.draft.CategoryID()
	if categoryID == "" {
		if id == "" {
			return nil
		}
		return ErrNoCategory
	}
	if id == "" {
		f.draft.Classification = models.Categorized{Category: categoryID}
		return nil
	}

	cat, ok := models.FindCategory(f.categories, categoryID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}
	if _, ok := cat.Subcategory(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubcategory, id)
	}
	f.draft.Classification = models.Subcategorized{Category: categoryID, Subcategory: id}
	return nil
}

// Subcategories returns the subcategories offered for the chosen category.
func (f *ProductForm) Subcategories() []models.Subcategory {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subcategories()
}

func (f *ProductForm) subcategories() []models.Subcategory {
	cat, ok := models.FindCategory(f.categories, f.draft.CategoryID())
	if !ok {
		return nil
	}
	return cat.Subcategories
}

// SetLabel sets the label text. Leaving the certified label releases any
// staged certificate.
func (f *ProductForm) SetLabel(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}
	f.setLabel(text)
	return nil
}

func (f *ProductForm) setLabel(text string) {
	label := models.LabelFor(text)
	if _, certified := label.(models.CertifiedLabel); certified {
		f.draft.Labeling = models.CertifiedLabel{Certificate: f.certificate.First()}
		return
	}
	f.certificate.Close()
	f.draft.Labeling = label
}

// AddImages stages product images. Bad files come back as warnings; the
// good ones are kept.
func (f *ProductForm) AddImages(ctx context.Context, uploads ...staging.Upload) ([]staging.Warning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return nil, err
	}
	return f.images.Add(ctx, uploads...), nil
}

// RemoveImage drops the staged image at index i.
func (f *ProductForm) RemoveImage(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}
	return f.images.Remove(i)
}

// AttachCertificate stages the certificate image. Only the certified label
// has a certificate slot and only the first upload is used.
func (f *ProductForm) AttachCertificate(ctx context.Context, uploads ...staging.Upload) ([]staging.Warning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return nil, err
	}
	if _, ok := f.draft.Labeling.(models.CertifiedLabel); !ok {
		return nil, ErrNoCertificateSlot
	}
	warnings := f.certificate.Add(ctx, uploads...)
	f.draft.Labeling = models.CertifiedLabel{Certificate: f.certificate.First()}
	return warnings, nil
}

// RemoveCertificate drops the staged certificate.
func (f *ProductForm) RemoveCertificate() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}
	f.certificate.Close()
	if _, ok := f.draft.Labeling.(models.CertifiedLabel); ok {
		f.draft.Labeling = models.CertifiedLabel{}
	}
	return nil
}

func (f *ProductForm) beginEdit() error {
	if f.state == Submitting {
		return ErrSubmitInFlight
	}
	f.state = Editing
	return nil
}

// Submit validates the draft and creates the product for the session's
// seller. A second Submit while one is in flight fails with
// ErrSubmitInFlight and makes no call.
func (f *ProductForm) Submit(ctx context.Context, s marketplace.Session) (Result, error) {
	f.mu.Lock()
	if f.state == Submitting {
		f.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	}

	f.state = Validating
	if errs := validation.Product(f.draft); !errs.Valid() {
		f.errs = errs
		f.state = Editing
		f.mu.Unlock()
		return Result{}, &ValidationError{Errors: copyErrors(errs)}
	}

	f.errs = nil
	f.failure = ""
	f.state = Submitting
	payload := f.draft.Payload(s.SellerID())
	var images []marketplace.File
	for _, img := range f.images.Images() {
		images = append(images, *fileOf(img))
	}
	certificate := fileOf(f.draft.Certificate())
	f.mu.Unlock()

	_, err := f.store.CreateProduct(ctx, payload, images, certificate, s)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.state = Editing
		f.failure = marketplace.Message(err)
		return Result{}, fmt.Errorf("submit product: %w", err)
	}

	f.images.Close()
	f.certificate.Close()
	f.draft = models.NewProductDraft()
	f.state = Idle
	return Result{Message: "Product created successfully", Navigate: ProductsPath}, nil
}

// Close releases staged files. The form must not be used afterwards.
func (f *ProductForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images.Close()
	f.certificate.Close()
}
