package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/individuals-mars/seller-admin/internal/form"
	"github.com/individuals-mars/seller-admin/internal/sse"
	"github.com/individuals-mars/seller-admin/internal/staging"
	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

var (
	ErrFormNotFound     = errors.New("FORM_NOT_FOUND")
	ErrDeletionNotFound = errors.New("DELETION_NOT_FOUND")
	ErrUnknownSlot      = errors.New("UNKNOWN_IMAGE_SLOT")
	ErrInvalidPatch     = errors.New("INVALID_PATCH")
)

// FormKind names the entity a form edits.
type FormKind string

const (
	KindShop    FormKind = "shop"
	KindProduct FormKind = "product"
)

// Image slots of the forms.
const (
	SlotLogo        = "logo"
	SlotImages      = "images"
	SlotCertificate = "certificate"
)

// FormView is what the dashboard renders for one open form.
type FormView struct {
	ID       string                `json:"id"`
	Kind     FormKind              `json:"kind"`
	Shop     *form.ShopSnapshot    `json:"shop,omitempty"`
	Product  *form.ProductSnapshot `json:"product,omitempty"`
	Warnings []staging.Warning     `json:"warnings,omitempty"`
}

// DeletionView is an open delete confirmation.
type DeletionView struct {
	ID   string            `json:"id"`
	Gate form.GateSnapshot `json:"gate"`
}

type formEntry struct {
	id      string
	owner   string
	kind    FormKind
	shop    *form.ShopForm
	product *form.ProductForm
	touched time.Time
}

func (e *formEntry) view() FormView {
	v := FormView{ID: e.id, Kind: e.kind}
	switch e.kind {
	case KindShop:
		snap := e.shop.Snapshot()
		v.Shop = &snap
	case KindProduct:
		snap := e.product.Snapshot()
		v.Product = &snap
	}
	return v
}

func (e *formEntry) close() {
	switch e.kind {
	case KindShop:
		e.shop.Close()
	case KindProduct:
		e.product.Close()
	}
}

type gateEntry struct {
	id      string
	owner   string
	gate    *form.DeleteGate
	touched time.Time
}

// FormServiceConfig holds the staging settings of the forms.
type FormServiceConfig struct {
	Previews    *staging.Previews
	ImagePolicy staging.Policy
	LogoPolicy  staging.Policy
	IdleTTL     time.Duration
}

// FormService keeps the open forms and delete confirmations of every seller
// session. Each form belongs to the session that opened it.
type FormService struct {
	client       *marketplace.Client
	shopStore    form.ShopStore
	productStore form.ProductStore
	shops        *ShopService
	products     *ProductService
	hub          *sse.Hub
	cfg          FormServiceConfig

	mu    sync.Mutex
	forms map[string]*formEntry
	gates map[string]*gateEntry
	now   func() time.Time
}

// NewFormService creates a new FormService.
func NewFormService(
	client *marketplace.Client,
	shopStore form.ShopStore,
	productStore form.ProductStore,
	shops *ShopService,
	products *ProductService,
	hub *sse.Hub,
	cfg FormServiceConfig,
) *FormService {
	return &FormService{
		client:       client,
		shopStore:    shopStore,
		productStore: productStore,
		shops:        shops,
		products:     products,
		hub:          hub,
		cfg:          cfg,
		forms:        make(map[string]*formEntry),
		gates:        make(map[string]*gateEntry),
		now:          time.Now,
	}
}

// StartShop opens a create-shop form.
func (s *FormService) StartShop(ctx context.Context, sess marketplace.Session) (FormView, error) {
	if err := sess.Check(); err != nil {
		return FormView{}, s.report(sess, err)
	}
	f := form.NewShopForm(s.shopStore, s.cfg.Previews.For(sess.Key()), s.cfg.LogoPolicy)
	return s.register(sess, &formEntry{kind: KindShop, shop: f}), nil
}

// EditShop opens an edit form for an existing shop.
func (s *FormService) EditShop(ctx context.Context, sess marketplace.Session, shopID string) (FormView, error) {
	shop, err := s.client.GetShop(ctx, shopID, sess)
	if err != nil {
		return FormView{}, s.report(sess, err)
	}
	f := form.EditShopForm(s.shopStore, shop, s.cfg.Previews.For(sess.Key()), s.cfg.LogoPolicy)
	return s.register(sess, &formEntry{kind: KindShop, shop: f}), nil
}

// StartProduct opens a create-product form with its select options.
func (s *FormService) StartProduct(ctx context.Context, sess marketplace.Session) (FormView, error) {
	if err := sess.Check(); err != nil {
		return FormView{}, s.report(sess, err)
	}
	opts, err := s.products.FormOptions(ctx, sess)
	if err != nil {
		return FormView{}, s.report(sess, err)
	}
	f := form.NewProductForm(s.productStore, opts.Categories, opts.Shops, s.cfg.Previews.For(sess.Key()), s.cfg.ImagePolicy)
	return s.register(sess, &formEntry{kind: KindProduct, product: f}), nil
}

func (s *FormService) register(sess marketplace.Session, e *formEntry) FormView {
	e.id = uuid.NewString()
	e.owner = sess.Key()

	s.mu.Lock()
	e.touched = s.now()
	s.forms[e.id] = e
	s.mu.Unlock()

	log.Debug().Str("form_id", e.id).Str("kind", string(e.kind)).Msg("[FORM] Opened")
	return e.view()
}

func (s *FormService) lookup(sess marketplace.Session, id string) (*formEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.forms[id]
	if !ok || e.owner != sess.Key() {
		return nil, ErrFormNotFound
	}
	e.touched = s.now()
	return e, nil
}

// Get returns an open form.
func (s *FormService) Get(sess marketplace.Session, id string) (FormView, error) {
	e, err := s.lookup(sess, id)
	if err != nil {
		return FormView{}, err
	}
	return e.view(), nil
}

// Patch applies a JSON field patch to a form.
func (s *FormService) Patch(sess marketplace.Session, id string, raw []byte) (FormView, error) {
	e, err := s.lookup(sess, id)
	if err != nil {
		return FormView{}, err
	}

	switch e.kind {
	case KindShop:
		var p form.ShopPatch
		if err := json.Unmarshal(raw, &p); err != nil {
			return FormView{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
		}
		err = e.shop.Edit(p)
	case KindProduct:
		var p form.ProductPatch
		if err := json.Unmarshal(raw, &p); err != nil {
			return FormView{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
		}
		err = e.product.Edit(p)
	}
	return e.view(), err
}

// Stage adds uploads to an image slot of a form. Rejected files come back
// as warnings.
func (s *FormService) Stage(ctx context.Context, sess marketplace.Session, id, slot string, uploads []staging.Upload) (FormView, error) {
	e, err := s.lookup(sess, id)
	if err != nil {
		return FormView{}, err
	}

	var warnings []staging.Warning
	switch {
	case e.kind == KindShop && slot == SlotLogo:
		warnings, err = e.shop.StageLogo(ctx, uploads...)
	case e.kind == KindProduct && slot == SlotImages:
		warnings, err = e.product.AddImages(ctx, uploads...)
	case e.kind == KindProduct && slot == SlotCertificate:
		warnings, err = e.product.AttachCertificate(ctx, uploads...)
	default:
		return FormView{}, fmt.Errorf("%w: %s", ErrUnknownSlot, slot)
	}
	if err != nil {
		return FormView{}, err
	}

	n := s.hub.For(sess.Key())
	for _, w := range warnings {
		n.Warn(w.Filename + ": " + w.Reason)
	}
	v := e.view()
	v.Warnings = warnings
	return v, nil
}

// RemoveImage drops a staged image from a slot.
func (s *FormService) RemoveImage(sess marketplace.Session, id, slot string, index int) (FormView, error) {
	e, err := s.lookup(sess, id)
	if err != nil {
		return FormView{}, err
	}

	switch {
	case e.kind == KindShop && slot == SlotLogo:
		err = e.shop.RemoveLogo()
	case e.kind == KindProduct && slot == SlotImages:
		err = e.product.RemoveImage(index)
	case e.kind == KindProduct && slot == SlotCertificate:
		err = e.product.RemoveCertificate()
	default:
		return FormView{}, fmt.Errorf("%w: %s", ErrUnknownSlot, slot)
	}
	return e.view(), err
}

// Submit validates and persists a form. A successful submit closes the
// form and refreshes the affected lists.
func (s *FormService) Submit(ctx context.Context, sess marketplace.Session, id string) (form.Result, FormView, error) {
	e, err := s.lookup(sess, id)
	if err != nil {
		return form.Result{}, FormView{}, err
	}

	var res form.Result
	switch e.kind {
	case KindShop:
		res, err = e.shop.Submit(ctx, sess)
	case KindProduct:
		res, err = e.product.Submit(ctx, sess)
	}
	if err != nil {
		var verr *form.ValidationError
		if !errors.As(err, &verr) && !errors.Is(err, form.ErrSubmitInFlight) {
			err = s.report(sess, err)
		}
		return form.Result{}, e.view(), err
	}

	log.Info().Str("form_id", id).Str("kind", string(e.kind)).Str("navigate", res.Navigate).Msg("[FORM] Submitted")
	s.hub.For(sess.Key()).Success(res.Message, res.Navigate)
	if e.kind == KindShop {
		s.shops.Invalidate(sess)
	} else {
		s.products.Invalidate(sess)
	}
	s.remove(id)
	return res, FormView{}, nil
}

// Cancel discards a form and releases its staged images.
func (s *FormService) Cancel(sess marketplace.Session, id string) error {
	if _, err := s.lookup(sess, id); err != nil {
		return err
	}
	s.remove(id)
	return nil
}

func (s *FormService) remove(id string) {
	s.mu.Lock()
	e, ok := s.forms[id]
	delete(s.forms, id)
	s.mu.Unlock()

	if ok {
		e.close()
	}
}

// OpenShopDeletion opens a confirmation for deleting a shop. Nothing is
// deleted until ConfirmDeletion.
func (s *FormService) OpenShopDeletion(sess marketplace.Session, shopID string) (DeletionView, error) {
	if err := sess.Check(); err != nil {
		return DeletionView{}, s.report(sess, err)
	}

	g := form.NewDeleteGate("shop", form.ShopsPath, func(ctx context.Context) error {
		return s.client.DeleteShop(ctx, shopID, sess)
	})
	e := &gateEntry{id: uuid.NewString(), owner: sess.Key(), gate: g}

	s.mu.Lock()
	e.touched = s.now()
	s.gates[e.id] = e
	s.mu.Unlock()

	return DeletionView{ID: e.id, Gate: g.Snapshot()}, nil
}

// ConfirmDeletion records the confirmation and performs the delete. A
// failed delete leaves the gate open for another confirmation.
func (s *FormService) ConfirmDeletion(ctx context.Context, sess marketplace.Session, gateID string) (form.Result, DeletionView, error) {
	s.mu.Lock()
	e, ok := s.gates[gateID]
	if ok && e.owner == sess.Key() {
		e.touched = s.now()
	} else {
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return form.Result{}, DeletionView{}, ErrDeletionNotFound
	}

	if err := e.gate.Confirm(); err != nil {
		return form.Result{}, DeletionView{ID: e.id, Gate: e.gate.Snapshot()}, err
	}
	res, err := e.gate.Delete(ctx)
	if err != nil {
		if !errors.Is(err, form.ErrSubmitInFlight) {
			err = s.report(sess, err)
		}
		return form.Result{}, DeletionView{ID: e.id, Gate: e.gate.Snapshot()}, err
	}

	s.mu.Lock()
	delete(s.gates, gateID)
	s.mu.Unlock()

	s.hub.For(sess.Key()).Success(res.Message, res.Navigate)
	s.shops.Invalidate(sess)
	return res, DeletionView{}, nil
}

// report returns err, pushing it to the session's tabs unless it needs a
// login. The HTTP response carries that redirect.
func (s *FormService) report(sess marketplace.Session, err error) error {
	if !marketplace.NeedsLogin(err) {
		s.hub.For(sess.Key()).Notify(marketplace.Message(err))
	}
	return err
}

// SweepIdle closes forms and confirmations untouched for longer than the
// idle TTL and releases their staged images.
func (s *FormService) SweepIdle(now time.Time) (forms, gates int) {
	cutoff := now.Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var stale []*formEntry
	for id, e := range s.forms {
		if e.touched.Before(cutoff) {
			stale = append(stale, e)
			delete(s.forms, id)
		}
	}
	for id, e := range s.gates {
		if e.touched.Before(cutoff) {
			delete(s.gates, id)
			gates++
		}
	}
	s.mu.Unlock()

	for _, e := range stale {
		e.close()
	}
	s.shops.Sweep(cutoff)
	s.products.Sweep(cutoff)
	return len(stale), gates
}

// Len returns the number of open forms.
func (s *FormService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms)
}

// Close discards every form. Used on shutdown.
func (s *FormService) Close() {
	s.mu.Lock()
	forms := s.forms
	s.forms = make(map[string]*formEntry)
	s.gates = make(map[string]*gateEntry)
	s.mu.Unlock()

	for _, e := range forms {
		e.close()
	}
}
