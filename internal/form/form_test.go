package form

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/individuals-mars/seller-admin/internal/models"
	"github.com/individuals-mars/seller-admin/internal/staging"
	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00")
	session   = marketplace.Session{Token: "token"}
)

func newPreviews() *staging.Previews {
	return staging.NewPreviews("/v1/previews")
}

type fakeShopStore struct {
	mu      sync.Mutex
	created []models.ShopPayload
	updated map[string]models.ShopPayload
	logos   []string
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (s *fakeShopStore) wait() {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
}

func (s *fakeShopStore) record(logo *marketplace.File) {
	if logo != nil {
		data, _ := io.ReadAll(logo.Reader)
		s.logos = append(s.logos, logo.Filename+":"+string(data[:4]))
	}
}

func (s *fakeShopStore) CreateShop(_ context.Context, p models.ShopPayload, logo *marketplace.File, _ marketplace.Session) (*models.Shop, error) {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, p)
	s.record(logo)
	return &models.Shop{ID: "new", Name: p.Name}, nil
}

func (s *fakeShopStore) UpdateShop(_ context.Context, id string, p models.ShopPayload, logo *marketplace.File, _ marketplace.Session) (*models.Shop, error) {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.updated == nil {
		s.updated = map[string]models.ShopPayload{}
	}
	s.updated[id] = p
	s.record(logo)
	return &models.Shop{ID: id, Name: p.Name, Address: p.Address, Phone: p.Phone, TariffPlan: p.TariffPlan, Location: p.Location}, nil
}

func str(s string) *string { return &s }

func fillShop(t *testing.T, f *ShopForm) {
	t.Helper()
	require.NoError(t, f.Edit(ShopPatch{
		Name:      str("Green Market"),
		Address:   str("Tashkent"),
		Phone:     str("+998901234567"),
		Latitude:  str("41.3111"),
		Longitude: str("69.2797"),
	}))
}

func TestShopFormValidationStaysEditing(t *testing.T) {
	store := &fakeShopStore{}
	f := NewShopForm(store, newPreviews(), staging.DefaultPolicy())
	assert.Equal(t, Idle, f.State())
	assert.Equal(t, models.TariffBasic, f.Draft().TariffPlan)

	require.NoError(t, f.Edit(ShopPatch{Name: str("Green"), Phone: str("123")}))
	assert.Equal(t, Editing, f.State())

	_, err := f.Submit(context.Background(), session)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, "phone")
	assert.Contains(t, verr.Errors, "address")

	snap := f.Snapshot()
	assert.Equal(t, Editing, snap.State)
	assert.Equal(t, "Green", snap.Draft.Name)
	assert.Contains(t, snap.Errors, "phone")
	assert.Empty(t, store.created)
}

func TestShopFormCreate(t *testing.T) {
	store := &fakeShopStore{}
	previews := newPreviews()
	f := NewShopForm(store, previews, staging.LogoPolicy(1<<20))
	fillShop(t, f)

	warnings, err := f.StageLogo(context.Background(), staging.Upload{Filename: "logo.png", Data: pngBytes})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 1, previews.Len())

	res, err := f.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, ShopsPath, res.Navigate)
	assert.Equal(t, "Shop created successfully", res.Message)

	require.Len(t, store.created, 1)
	assert.Equal(t, "Green Market", store.created[0].Name)
	assert.Equal(t, &models.Location{Lat: 41.3111, Lon: 69.2797}, store.created[0].Location)
	assert.Equal(t, []string{"logo.png:\x89PNG"}, store.logos)

	assert.Equal(t, Idle, f.State())
	assert.Equal(t, models.NewShopDraft(), f.Draft())
	assert.Equal(t, 0, previews.Len())
}

func TestShopFormEdit(t *testing.T) {
	store := &fakeShopStore{}
	shop := &models.Shop{
		ID:         "s1",
		Name:       "Old",
		Address:    "Samarkand",
		Phone:      "+998901234567",
		TariffPlan: models.TariffPremium,
		Location:   &models.Location{Lat: 39.65, Lon: 66.96},
	}
	f := EditShopForm(store, shop, newPreviews(), staging.DefaultPolicy())
	assert.Equal(t, "39.65", f.Draft().Latitude)
	assert.Equal(t, models.TariffPremium, f.Draft().TariffPlan)

	require.NoError(t, f.Edit(ShopPatch{Name: str("New")}))
	res, err := f.Submit(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, ShopPath("s1"), res.Navigate)
	assert.Equal(t, "New", store.updated["s1"].Name)
	assert.Equal(t, "New", f.Shop().Name)
	assert.Equal(t, "New", f.Draft().Name)
	assert.Equal(t, Idle, f.State())
}

func TestShopFormFailureKeepsValues(t *testing.T) {
	store := &fakeShopStore{err: &marketplace.Error{Kind: marketplace.ErrRejected, Status: 400, Message: "Shop name already taken"}}
	f := NewShopForm(store, newPreviews(), staging.DefaultPolicy())
	fillShop(t, f)

	_, err := f.Submit(context.Background(), session)
	require.ErrorIs(t, err, marketplace.ErrRejected)

	snap := f.Snapshot()
	assert.Equal(t, Editing, snap.State)
	assert.Equal(t, "Green Market", snap.Draft.Name)
	assert.Equal(t, "Shop name already taken", snap.Failure)
}

func TestShopFormBlocksDuplicateSubmit(t *testing.T) {
	store := &fakeShopStore{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	f := NewShopForm(store, newPreviews(), staging.DefaultPolicy())
	fillShop(t, f)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background(), session)
		done <- err
	}()

	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not reach the store")
	}
	assert.Equal(t, Submitting, f.State())

	_, err := f.Submit(context.Background(), session)
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.ErrorIs(t, f.Edit(ShopPatch{Name: str("x")}), ErrSubmitInFlight)

	close(store.gate)
	require.NoError(t, <-done)
	assert.Len(t, store.created, 1)
}

func TestShopFormLogoReplaceAndRemove(t *testing.T) {
	previews := newPreviews()
	f := NewShopForm(&fakeShopStore{}, previews, staging.LogoPolicy(1<<20))

	_, err := f.StageLogo(context.Background(), staging.Upload{Filename: "a.png", Data: pngBytes})
	require.NoError(t, err)
	_, err = f.StageLogo(context.Background(), staging.Upload{Filename: "b.jpg", Data: jpegBytes})
	require.NoError(t, err)
	assert.Equal(t, "b.jpg", f.Snapshot().Logo.Filename)
	assert.Equal(t, 1, previews.Len())

	warnings, err := f.StageLogo(context.Background(), staging.Upload{Filename: "c.txt", Data: []byte("hello")})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "b.jpg", f.Snapshot().Logo.Filename)

	require.NoError(t, f.RemoveLogo())
	assert.Nil(t, f.Snapshot().Logo)
	assert.Equal(t, 0, previews.Len())
}

type fakeProductStore struct {
	payloads     []models.ProductPayload
	images       [][]string
	certificates []string
	err          error
}

func (s *fakeProductStore) CreateProduct(_ context.Context, p models.ProductPayload, images []marketplace.File, cert *marketplace.File, _ marketplace.Session) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.payloads = append(s.payloads, p)
	var names []string
	for _, img := range images {
		names = append(names, img.Filename)
	}
	s.images = append(s.images, names)
	if cert != nil {
		s.certificates = append(s.certificates, cert.Filename)
	}
	return &models.Product{ID: "p1", Name: p.Name}, nil
}

var categories = []models.Category{
	{ID: "food", Name: "Food", Subcategories: []models.Subcategory{{ID: "nuts", Name: "Nuts"}, {ID: "tea", Name: "Tea"}}},
	{ID: "home", Name: "Home", Subcategories: []models.Subcategory{{ID: "lamps", Name: "Lamps"}}},
}

func newProductForm(store ProductStore, previews *staging.Previews) *ProductForm {
	return NewProductForm(store, categories, []models.Shop{{ID: "s1", Name: "Green"}}, previews, staging.DefaultPolicy())
}

func fillProduct(t *testing.T, f *ProductForm) {
	t.Helper()
	require.NoError(t, f.Edit(ProductPatch{
		Name:         str("Walnuts"),
		Shop:         str("s1"),
		CostPrice:    str("10"),
		SellingPrice: str("12.5"),
		Stock:        str("7"),
		Category:     str("food"),
	}))
}

func TestProductFormCategoryResetsSubcategory(t *testing.T) {
	f := newProductForm(&fakeProductStore{}, newPreviews())

	assert.ErrorIs(t, f.SelectSubcategory("nuts"), ErrNoCategory)
	assert.ErrorIs(t, f.SelectCategory("toys"), ErrUnknownCategory)

	require.NoError(t, f.SelectCategory("food"))
	assert.Len(t, f.Subcategories(), 2)
	require.NoError(t, f.SelectSubcategory("nuts"))
	assert.Equal(t, models.Subcategorized{Category: "food", Subcategory: "nuts"}, f.Draft().Classification)

	assert.ErrorIs(t, f.SelectSubcategory("lamps"), ErrUnknownSubcategory)

	require.NoError(t, f.SelectCategory("home"))
	assert.Equal(t, models.Categorized{Category: "home"}, f.Draft().Classification)
	assert.Equal(t, "lamps", f.Subcategories()[0].ID)

	require.NoError(t, f.SelectCategory(""))
	assert.Equal(t, models.Uncategorized{}, f.Draft().Classification)
	assert.Empty(t, f.Subcategories())
}

func TestProductFormCertificateSlot(t *testing.T) {
	previews := newPreviews()
	f := newProductForm(&fakeProductStore{}, previews)
	cert := staging.Upload{Filename: "cert.png", Data: pngBytes}

	_, err := f.AttachCertificate(context.Background(), cert)
	assert.ErrorIs(t, err, ErrNoCertificateSlot)

	require.NoError(t, f.SetLabel("certified"))
	assert.True(t, f.Snapshot().NeedsCertificate)
	assert.Equal(t, "Certified", f.Snapshot().Label)

	_, err = f.AttachCertificate(context.Background(), cert)
	require.NoError(t, err)
	assert.Equal(t, 1, previews.Len())
	assert.NotNil(t, f.Draft().Certificate())

	require.NoError(t, f.SetLabel("Organic"))
	assert.False(t, f.Snapshot().NeedsCertificate)
	assert.Nil(t, f.Snapshot().Certificate)
	assert.Equal(t, 0, previews.Len())
	assert.Equal(t, models.PlainLabel{Text: "Organic"}, f.Draft().Labeling)
}

func TestProductFormCertifiedNeedsCertificate(t *testing.T) {
	store := &fakeProductStore{}
	f := newProductForm(store, newPreviews())
	fillProduct(t, f)
	require.NoError(t, f.SetLabel("Certified"))

	_, err := f.Submit(context.Background(), session)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"certificate"}, verr.Errors.Fields())
	assert.Empty(t, store.payloads)

	_, err = f.AttachCertificate(context.Background(), staging.Upload{Filename: "cert.png", Data: pngBytes})
	require.NoError(t, err)

	_, err = f.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, []string{"cert.png"}, store.certificates)
	assert.Equal(t, []string{"Certified"}, store.payloads[0].Tags)
}

func TestProductFormSubmit(t *testing.T) {
	store := &fakeProductStore{}
	previews := newPreviews()
	f := newProductForm(store, previews)
	fillProduct(t, f)
	require.NoError(t, f.SelectSubcategory("tea"))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"_id": "seller-1"}).SignedString([]byte("k"))
	require.NoError(t, err)

	warnings, err := f.AddImages(context.Background(),
		staging.Upload{Filename: "1.png", Data: pngBytes},
		staging.Upload{Filename: "bad.txt", Data: []byte("text")},
		staging.Upload{Filename: "2.jpg", Data: jpegBytes},
		staging.Upload{Filename: "3.png", Data: pngBytes},
		staging.Upload{Filename: "4.png", Data: pngBytes},
	)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)

	snap := f.Snapshot()
	assert.Len(t, snap.Images, 3)
	assert.Equal(t, 1, snap.HiddenImages)
	require.NoError(t, f.RemoveImage(1))
	assert.Len(t, f.Gallery(), 3)

	res, err := f.Submit(context.Background(), marketplace.NewSession(token))
	require.NoError(t, err)
	assert.Equal(t, ProductsPath, res.Navigate)

	require.Len(t, store.payloads, 1)
	p := store.payloads[0]
	assert.Equal(t, "seller-1", p.Seller)
	assert.Equal(t, "food", p.Category)
	require.NotNil(t, p.Subcategory)
	assert.Equal(t, "tea", *p.Subcategory)
	assert.Equal(t, 7, p.Stock)
	assert.Equal(t, "12.5", p.Price.SellingPrice.String())
	assert.Equal(t, []string{}, p.Tags)
	assert.Equal(t, []string{"1.png", "3.png", "4.png"}, store.images[0])

	assert.Equal(t, Idle, f.State())
	assert.Equal(t, models.NewProductDraft(), f.Draft())
	assert.Equal(t, 0, previews.Len())
}

func TestProductFormCloseReleasesPreviews(t *testing.T) {
	previews := newPreviews()
	f := newProductForm(&fakeProductStore{}, previews)
	_, err := f.AddImages(context.Background(), staging.Upload{Filename: "1.png", Data: pngBytes})
	require.NoError(t, err)
	require.NoError(t, f.SetLabel("Certified"))
	_, err = f.AttachCertificate(context.Background(), staging.Upload{Filename: "c.png", Data: pngBytes})
	require.NoError(t, err)
	assert.Equal(t, 2, previews.Len())

	f.Close()
	assert.Equal(t, 0, previews.Len())
}

func TestDeleteGateRequiresConfirmation(t *testing.T) {
	calls := 0
	g := NewDeleteGate("shop", ShopsPath, func(context.Context) error {
		calls++
		return nil
	})

	_, err := g.Delete(context.Background())
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, 0, calls)

	require.NoError(t, g.Confirm())
	res, err := g.Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, ShopsPath, res.Navigate)
	assert.Equal(t, "Shop deleted successfully", res.Message)
	assert.Equal(t, Deleted, g.Snapshot().State)

	assert.ErrorIs(t, g.Confirm(), ErrAlreadyDeleted)
}

func TestDeleteGateFailureNeedsReconfirm(t *testing.T) {
	calls := 0
	fail := errors.New("boom")
	g := NewDeleteGate("shop", ShopsPath, func(context.Context) error {
		calls++
		if calls == 1 {
			return &marketplace.Error{Kind: marketplace.ErrServer, Status: 500, Err: fail}
		}
		return nil
	})

	require.NoError(t, g.Confirm())
	_, err := g.Delete(context.Background())
	require.ErrorIs(t, err, marketplace.ErrServer)
	require.ErrorIs(t, err, fail)

	snap := g.Snapshot()
	assert.Equal(t, Confirming, snap.State)
	assert.False(t, snap.Confirmed)
	assert.NotEmpty(t, snap.Failure)

	_, err = g.Delete(context.Background())
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, 1, calls)

	require.NoError(t, g.Confirm())
	_, err = g.Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestStateNamesDecode(t *testing.T) {
	var view struct {
		State State     `json:"state"`
		Gate  GateState `json:"gate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"state":"submitting","gate":"deleted"}`), &view))
	assert.Equal(t, Submitting, view.State)
	assert.Equal(t, Deleted, view.Gate)

	for _, st := range []State{Idle, Editing, Validating, Submitting} {
		raw, err := json.Marshal(st)
		require.NoError(t, err)
		var got State
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, st, got)
	}

	err := json.Unmarshal([]byte(`{"state":"paused"}`), &view)
	assert.ErrorIs(t, err, ErrUnknownState)
	err = json.Unmarshal([]byte(`{"gate":"unknown"}`), &view)
	assert.ErrorIs(t, err, ErrUnknownState)
}
