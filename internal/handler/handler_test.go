package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/individuals-mars/seller-admin/internal/cache"
	"github.com/individuals-mars/seller-admin/internal/middleware"
	"github.com/individuals-mars/seller-admin/internal/service"
	"github.com/individuals-mars/seller-admin/internal/sse"
	"github.com/individuals-mars/seller-admin/internal/staging"
	"github.com/individuals-mars/seller-admin/internal/utils"
	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type fakeBackend struct {
	mu      sync.Mutex
	failing bool
	created map[string]any
	deleted []string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failing {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"boom"}`)
		return
	}
	switch {
	case r.URL.Path == "/api/categories":
		_, _ = io.WriteString(w, `[{"_id":"food","title":"Food"}]`)
	case r.URL.Path == "/api/shops" && r.Method == http.MethodGet:
		_, _ = io.WriteString(w, `[{"_id":"s1","shopname":"Green Grocer"},{"_id":"s2","shopname":"Blue Lamp"}]`)
	case r.URL.Path == "/api/shops" && r.Method == http.MethodPost:
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			_ = r.ParseMultipartForm(1 << 20)
			_ = json.Unmarshal([]byte(r.FormValue("shop")), &b.created)
		} else {
			_ = json.NewDecoder(r.Body).Decode(&b.created)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"_id":"s9"}`)
	case r.URL.Path == "/api/shops/s1" && r.Method == http.MethodDelete:
		b.deleted = append(b.deleted, "s1")
		_, _ = io.WriteString(w, `{}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Not found"}`)
	}
}

type testServer struct {
	router   *gin.Engine
	backend  *fakeBackend
	previews *staging.Previews
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client := marketplace.NewClient(marketplace.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	hub := sse.NewHub()
	t.Cleanup(hub.Close)
	previews := staging.NewPreviews("/v1/previews")

	shops := service.NewShopService(client, hub)
	products := service.NewProductService(client, cache.NewCatalogCache(cache.NewMemoryStore(), time.Minute), hub)
	forms := service.NewFormService(client, service.NewShopGateway(client, nil), client, shops, products, hub, service.FormServiceConfig{
		Previews:    previews,
		ImagePolicy: staging.DefaultPolicy(),
		LogoPolicy:  staging.LogoPolicy(1 << 20),
		IdleTTL:     time.Minute,
	})
	t.Cleanup(forms.Close)

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	SetupRoutes(router, &Handlers{
		Health:  NewHealthHandler(nil, forms, hub),
		Shop:    NewShopHandler(shops, forms),
		Product: NewProductHandler(products),
		Form:    NewFormHandler(forms, 1<<20),
		Preview: NewPreviewHandler(previews),
		SSE:     NewSSEHandler(hub),
	}, middleware.NewSessionMiddleware(nil))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"_id": "seller-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	return &testServer{router: router, backend: backend, previews: previews, token: token}
}

type envelope struct {
	utils.Response
	Data json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+s.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func (s *testServer) openShopForm(t *testing.T) service.FormView {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/v1/forms/shops", nil, "")
	require.Equal(t, http.StatusCreated, code)
	var v service.FormView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodGet, "/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"cache":"memory"`)
}

func TestSellerRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/shops", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/login"`)
}

func TestStreamRedirectsOnceWhenTokenExpires(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"_id": "seller-1",
		"exp": time.Now().Add(2 * time.Second).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(srv.URL + "/v1/notifications/stream?token=" + token)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(body), `"redirect":"/login"`))
}

func TestCategoriesArePublic(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/categories", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Food"`)
}

func TestListShopsFilters(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodGet, "/v1/shops?search=grocer", nil, "")
	require.Equal(t, http.StatusOK, code)

	var page struct {
		Status string `json:"status"`
		Items  []struct {
			ID string `json:"id"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, "ready", page.Status)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "s1", page.Items[0].ID)
	assert.Equal(t, 2, page.Total)
}

func TestBackendFailureIsBadGateway(t *testing.T) {
	s := newTestServer(t)
	s.backend.failing = true

	code, env := s.do(t, http.MethodGet, "/v1/shops", nil, "")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "UPSTREAM_ERROR", env.Error.Code)
}

func TestShopFormValidationThenSubmit(t *testing.T) {
	s := newTestServer(t)
	v := s.openShopForm(t)
	path := "/v1/forms/" + v.ID

	code, _ := s.do(t, http.MethodPatch, path, strings.NewReader(`{"shopname":"Green","phone":"12"}`), "application/json")
	require.Equal(t, http.StatusOK, code)

	code, env := s.do(t, http.MethodPost, path+"/submit", nil, "")
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error.Fields, "address")
	assert.Contains(t, env.Error.Fields, "phone")

	code, _ = s.do(t, http.MethodPatch, path, strings.NewReader(`{"address":"Tashkent","phone":"+998901234567"}`), "application/json")
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, path+"/submit", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "/shops", env.Redirect)
	assert.Equal(t, "Green", s.backend.created["shopname"])

	code, _ = s.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPatchRejectsMalformedJSON(t *testing.T) {
	s := newTestServer(t)
	v := s.openShopForm(t)

	code, env := s.do(t, http.MethodPatch, "/v1/forms/"+v.ID, strings.NewReader(`{"shopname":`), "application/json")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
}

func multipartFiles(t *testing.T, files map[string][]byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestStageLogoAndServePreview(t *testing.T) {
	s := newTestServer(t)
	v := s.openShopForm(t)

	body, ct := multipartFiles(t, map[string][]byte{"logo.png": pngBytes})
	code, env := s.do(t, http.MethodPost, "/v1/forms/"+v.ID+"/images?slot=logo", body, ct)
	require.Equal(t, http.StatusOK, code)

	var staged service.FormView
	require.NoError(t, json.Unmarshal(env.Data, &staged))
	require.NotNil(t, staged.Shop.Logo)
	assert.True(t, strings.HasPrefix(staged.Shop.Logo.Preview, "/v1/previews/"))

	req := httptest.NewRequest(http.MethodGet, staged.Shop.Logo.Preview+"?token="+s.token, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, w.Body.Bytes())

	code, _ = s.do(t, http.MethodDelete, "/v1/forms/"+v.ID+"/images/0?slot=logo", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, s.previews.Len())
}

func TestPreviewsAndFormsStayWithTheirToken(t *testing.T) {
	s := newTestServer(t)
	v := s.openShopForm(t)

	body, ct := multipartFiles(t, map[string][]byte{"logo.png": pngBytes})
	code, env := s.do(t, http.MethodPost, "/v1/forms/"+v.ID+"/images?slot=logo", body, ct)
	require.Equal(t, http.StatusOK, code)
	var staged service.FormView
	require.NoError(t, json.Unmarshal(env.Data, &staged))
	require.NotNil(t, staged.Shop.Logo)

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"_id": "seller-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("another-key"))
	require.NoError(t, err)
	owner := s.token
	s.token = other

	req := httptest.NewRequest(http.MethodGet, staged.Shop.Logo.Preview+"?token="+other, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	code, _ = s.do(t, http.MethodGet, "/v1/forms/"+v.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, code)

	s.token = owner
	code, _ = s.do(t, http.MethodGet, "/v1/forms/"+v.ID, nil, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestStageWarnsAboutRejectedFiles(t *testing.T) {
	s := newTestServer(t)
	v := s.openShopForm(t)

	body, ct := multipartFiles(t, map[string][]byte{"notes.txt": []byte("hello")})
	code, env := s.do(t, http.MethodPost, "/v1/forms/"+v.ID+"/images?slot=logo", body, ct)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1 file(s) were not added", env.Message)
}

func TestStageRequiresFiles(t *testing.T) {
	s := newTestServer(t)
	v := s.openShopForm(t)

	body, ct := multipartFiles(t, nil)
	code, env := s.do(t, http.MethodPost, "/v1/forms/"+v.ID+"/images?slot=logo", body, ct)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
}

func TestShopDeletionFlow(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/v1/shops/s1/delete", nil, "")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Are you sure you want to delete this shop?", env.Message)
	var d service.DeletionView
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Empty(t, s.backend.deleted)

	code, env = s.do(t, http.MethodPost, "/v1/deletions/"+d.ID+"/confirm", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "/shops", env.Redirect)
	assert.Equal(t, []string{"s1"}, s.backend.deleted)

	code, _ = s.do(t, http.MethodPost, "/v1/deletions/"+d.ID+"/confirm", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
}
