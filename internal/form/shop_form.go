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

// ShopStore persists shops. *marketplace.Client satisfies it.
type ShopStore interface {
	CreateShop(ctx context.Context, p models.ShopPayload, logo *marketplace.File, s marketplace.Session) (*models.Shop, error)
	UpdateShop(ctx context.Context, id string, p models.ShopPayload, logo *marketplace.File, s marketplace.Session) (*models.Shop, error)
}

// ShopPatch carries the fields changed by one edit. Nil fields are left
// alone.
type ShopPatch struct {
	Name        *string            `json:"shopname"`
	Address     *string            `json:"address"`
	Description *string            `json:"description"`
	Logo        *string            `json:"logotype"`
	Phone       *string            `json:"phone"`
	Latitude    *string            `json:"lat"`
	Longitude   *string            `json:"lon"`
	TariffPlan  *models.TariffPlan `json:"TariffPlan"`
}

func (p ShopPatch) apply(d *models.ShopDraft) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&d.Name, p.Name)
	set(&d.Address, p.Address)
	set(&d.Description, p.Description)
	set(&d.Logo, p.Logo)
	set(&d.Phone, p.Phone)
	set(&d.Latitude, p.Latitude)
	set(&d.Longitude, p.Longitude)
	if p.TariffPlan != nil {
		d.TariffPlan = *p.TariffPlan
	}
}

// ShopForm is one create or edit shop screen.
type ShopForm struct {
	mu      sync.Mutex
	store   ShopStore
	state   State
	draft   models.ShopDraft
	shop    *models.Shop
	logo    *staging.Set
	errs    validation.Errors
	failure string
}

// NewShopForm starts a create form with default values.
func NewShopForm(store ShopStore, previews *staging.Previews, policy staging.Policy) *ShopForm {
	return &ShopForm{
		store: store,
		draft: models.NewShopDraft(),
		logo:  staging.NewSingle(previews, policy),
	}
}

// EditShopForm starts an edit form from a fetched shop.
func EditShopForm(store ShopStore, shop *models.Shop, previews *staging.Previews, policy staging.Policy) *ShopForm {
	f := NewShopForm(store, previews, policy)
	f.shop = shop
	f.draft = models.ShopDraftFrom(shop)
	return f
}

// ShopSnapshot is a read-only copy of the form for rendering.
type ShopSnapshot struct {
	State   State             `json:"state"`
	Editing bool              `json:"editing"`
	ShopID  string            `json:"shopId,omitempty"`
	Draft   models.ShopDraft  `json:"draft"`
	Logo    *staging.Image    `json:"logo,omitempty"`
	Errors  validation.Errors `json:"errors,omitempty"`
	Failure string            `json:"failure,omitempty"`
}

// Snapshot returns the current form state.
func (f *ShopForm) Snapshot() ShopSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := ShopSnapshot{
		State:   f.state,
		Editing: f.shop != nil,
		Draft:   f.draft,
		Logo:    f.logo.First(),
		Errors:  copyErrors(f.errs),
		Failure: f.failure,
	}
	if f.shop != nil {
		snap.ShopID = f.shop.ID
	}
	return snap
}

// State returns the lifecycle state.
func (f *ShopForm) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns a copy of the draft.
func (f *ShopForm) Draft() models.ShopDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Shop returns the cached shop of an edit form, nil for create forms.
func (f *ShopForm) Shop() *models.Shop {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shop
}

// Edit applies a field patch.
func (f *ShopForm) Edit(p ShopPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}
	p.apply(&f.draft)
	return nil
}

// StageLogo replaces the staged logo file. An invalid file is rejected with
// a warning and the previous logo stays. Only the first upload is used.
func (f *ShopForm) StageLogo(ctx context.Context, uploads ...staging.Upload) ([]staging.Warning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return nil, err
	}
	return f.logo.Add(ctx, uploads...), nil
}

// RemoveLogo drops the staged logo file.
func (f *ShopForm) RemoveLogo() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}
	if f.logo.Len() == 0 {
		return nil
	}
	return f.logo.Remove(0)
}

func (f *ShopForm) beginEdit() error {
	if f.state == Submitting {
		return ErrSubmitInFlight
	}
	f.state = Editing
	return nil
}

// Submit validates the draft and persists it. A second Submit while one is
// in flight fails with ErrSubmitInFlight and makes no call.
func (f *ShopForm) Submit(ctx context.Context, s marketplace.Session) (Result, error) {
	f.mu.Lock()
	if f.state == Submitting {
		f.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	}

	f.state = Validating
	if errs := validation.Shop(f.draft); !errs.Valid() {
		f.errs = errs
		f.state = Editing
		f.mu.Unlock()
		return Result{}, &ValidationError{Errors: copyErrors(errs)}
	}

	f.errs = nil
	f.failure = ""
	f.state = Submitting
	payload := f.draft.Payload()
	logo := fileOf(f.logo.First())
	editing := f.shop
	f.mu.Unlock()

	var (
		saved *models.Shop
		err   error
	)
	if editing != nil {
		saved, err = f.store.UpdateShop(ctx, editing.ID, payload, logo, s)
	} else {
		saved, err = f.store.CreateShop(ctx, payload, logo, s)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.state = Editing
		f.failure = marketplace.Message(err)
		return Result{}, fmt.Errorf("submit shop: %w", err)
	}

	f.logo.Close()
	f.state = Idle
	if editing != nil {
		f.shop = saved
		f.draft = models.ShopDraftFrom(saved)
		return Result{Message: "Shop updated successfully", Navigate: ShopPath(saved.ID)}, nil
	}
	f.draft = models.NewShopDraft()
	return Result{Message: "Shop created successfully", Navigate: ShopsPath}, nil
}

// Close releases staged files. The form must not be used afterwards.
func (f *ShopForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logo.Close()
}
