package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lelekart/variantmatrix/internal/domain"
	"github.com/lelekart/variantmatrix/internal/export"
	"github.com/lelekart/variantmatrix/internal/matrix"
	"github.com/lelekart/variantmatrix/internal/repository/memory"
	"github.com/lelekart/variantmatrix/internal/service"
	"github.com/lelekart/variantmatrix/internal/uploader"
	"github.com/lelekart/variantmatrix/pkg/health"
	"github.com/lelekart/variantmatrix/pkg/httputil"
	"github.com/lelekart/variantmatrix/pkg/middleware"
)

const testProductID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

var pngData = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

// ============================================================================
// Mocks
// ============================================================================

type mockVariantRepository struct {
	mock.Mock
}

func (m *mockVariantRepository) FindByProduct(ctx context.Context, productID string) ([]domain.ProductVariant, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductVariant), args.Error(1)
}

func (m *mockVariantRepository) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]domain.ProductVariant, int, error) {
	args := m.Called(ctx, productID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ProductVariant), args.Int(1), args.Error(2)
}

func (m *mockVariantRepository) ReplaceForProduct(ctx context.Context, productID string, variants []domain.ProductVariant) error {
	args := m.Called(ctx, productID, variants)
	return args.Error(0)
}

func (m *mockVariantRepository) DeleteByProduct(ctx context.Context, productID string) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

type nopPublisher struct{}

func (nopPublisher) PublishVariantsSaved(context.Context, *domain.Draft, []domain.ProductVariant) error {
	return nil
}

// failAfterUploader stores the first ok files and fails every later one.
type failAfterUploader struct {
	ok    int
	calls int
}

func (u *failAfterUploader) Upload(_ context.Context, f uploader.File) (string, error) {
	u.calls++
	if u.calls > u.ok {
		return "", errors.New("media service unavailable")
	}
	return "https://media.test/ok" + f.Extension, nil
}

// ============================================================================
// Test helpers
// ============================================================================

type envelope struct {
	Data  json.RawMessage         `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

type testServer struct {
	router   http.Handler
	variants *mockVariantRepository
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, up uploader.Uploader, opts ...func(*RouterConfig)) *testServer {
	t.Helper()

	if up == nil {
		up = uploader.NewMemoryUploader("https://media.test")
	}
	variants := new(mockVariantRepository)
	logger := testLogger()

	drafts := service.NewDraftService(memory.NewDraftRepository(0), variants, up, nopPublisher{}, nil, logger, service.DraftConfig{
		Materializer: matrix.Materializer{PlaceholderBaseURL: "https://placehold.test"},
	})
	variantSvc := service.NewVariantService(variants, nil, logger)

	cfg := RouterConfig{
		ServiceName: "variant-service-test",
		Health:      health.NewHandler(),
		CORS:        middleware.DefaultCORSConfig(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	router := NewRouter(drafts, variantSvc, cfg, logger)

	t.Cleanup(func() { variants.AssertExpectations(t) })
	return &testServer{router: router, variants: variants}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.UserIDHeader, "seller-1")

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

type draftBody struct {
	domain.Draft
	ImageIndex map[domain.RowKey][]string `json:"image_index"`
}

func decodeDraft(t *testing.T, rec *httptest.ResponseRecorder) draftBody {
	t.Helper()
	env := decode(t, rec)
	require.Nil(t, env.Error, "unexpected error: %+v", env.Error)
	var d draftBody
	require.NoError(t, json.Unmarshal(env.Data, &d))
	return d
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, code, env.Error.Code)
}

// createConfigured opens a product-bound draft with one colour and moves it
// to the configure step.
func (s *testServer) createConfigured(t *testing.T, colors ...string) draftBody {
	t.Helper()

	s.variants.On("FindByProduct", mock.Anything, testProductID).Return([]domain.ProductVariant{}, nil).Once()
	rec := s.do(t, http.MethodPost, "/api/v1/variant-drafts/", map[string]any{
		"product_id":   testProductID,
		"product_name": "Linen Shirt",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	d := decodeDraft(t, rec)

	for _, c := range colors {
		rec = s.do(t, http.MethodPost, "/api/v1/variant-drafts/"+d.ID+"/attributes/0/values", AddValueRequest{Value: c})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/v1/variant-drafts/"+d.ID+"/configure", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeDraft(t, rec)
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile(UploadFormField, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// ============================================================================
// Drafts
// ============================================================================

func TestCreateDraft_Defaults(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/variant-drafts/", map[string]any{"product_name": "Linen Shirt"})
	require.Equal(t, http.StatusCreated, rec.Code)

	d := decodeDraft(t, rec)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "seller-1", d.OwnerID)
	assert.Equal(t, domain.StepAttributes, d.Step)
	require.Len(t, d.Attributes, 2)
	assert.Equal(t, domain.AttributeColor, d.Attributes[0].Name)
	assert.Empty(t, d.Rows)
}

func TestCreateDraft_InvalidBody(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/variant-drafts/", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_INPUT")
}

func TestCreateDraft_ValidationError(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/variant-drafts/", map[string]any{"product_id": "not-a-uuid"})
	assertErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestCreateDraft_RejectsNonJSONContentType(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/variant-drafts/", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assertErrorCode(t, rec, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE")
}

func TestGetDraft(t *testing.T) {
	s := newTestServer(t, nil)
	created := s.createConfigured(t, "Red")

	rec := s.do(t, http.MethodGet, "/api/v1/variant-drafts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	d := decodeDraft(t, rec)
	assert.Equal(t, created.ID, d.ID)
	require.Len(t, d.Rows, 1)
	assert.Equal(t, "Red", d.Rows[0].Label)
	assert.True(t, d.Rows[0].Placeholder)
	assert.Empty(t, d.ImageIndex[d.Rows[0].ID])
}

func TestGetDraft_InvalidID(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/variant-drafts/abc", nil)
	assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_PARAMETER")
}

func TestGetDraft_NotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/variant-drafts/"+testProductID, nil)
	assertErrorCode(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestDeleteDraft(t *testing.T) {
	s := newTestServer(t, nil)
	d := s.createConfigured(t, "Red")

	rec := s.do(t, http.MethodDelete, "/api/v1/variant-drafts/"+d.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/variant-drafts/"+d.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttributeValues(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/variant-drafts/", map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code)
	d := decodeDraft(t, rec)
	base := "/api/v1/variant-drafts/" + d.ID

	rec = s.do(t, http.MethodPost, base+"/attributes/0/values", AddValueRequest{Value: "Red"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, base+"/attributes/0/values", AddValueRequest{Value: "Red"})
	assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_INPUT")

	rec = s.do(t, http.MethodPost, base+"/attributes/0/values", AddValueRequest{})
	assertErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

	rec = s.do(t, http.MethodPost, base+"/attributes/x/values", AddValueRequest{Value: "S"})
	assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_PARAMETER")

	rec = s.do(t, http.MethodDelete, base+"/attributes/0/values/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeDraft(t, rec).Attributes[0].Values)
}

func TestConfigure_RequiresValues(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/variant-drafts/", map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code)
	d := decodeDraft(t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/variant-drafts/"+d.ID+"/configure", nil)
	assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_INPUT")
}

func TestEditAttributes(t *testing.T) {
	s := newTestServer(t, nil)
	d := s.createConfigured(t, "Red")

	rec := s.do(t, http.MethodPost, "/api/v1/variant-drafts/"+d.ID+"/edit-attributes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	edited := decodeDraft(t, rec)
	assert.Equal(t, domain.StepAttributes, edited.Step)
	assert.Len(t, edited.Rows, 1)
}

// ============================================================================
// Rows
// ============================================================================

func TestUpdateRows(t *testing.T) {
	s := newTestServer(t, nil)
	d := s.createConfigured(t, "Red", "Blue")
	base := "/api/v1/variant-drafts/" + d.ID

	rec := s.do(t, http.MethodPatch, base+"/rows", map[string]any{"price": 1500, "mrp": 2000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, row := range decodeDraft(t, rec).Rows {
		assert.Equal(t, int64(1500), row.Price)
		assert.Equal(t, int64(2000), row.MRP)
	}

	rowID := string(d.Rows[0].ID)
	rec = s.do(t, http.MethodPatch, base+"/rows/"+rowID, map[string]any{"sku": "SHIRT-RED", "enabled": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeDraft(t, rec)
	assert.Equal(t, "SHIRT-RED", updated.Rows[0].SKU)
	assert.False(t, updated.Rows[0].Enabled)
	assert.True(t, updated.Rows[1].Enabled)
}

func TestUpdateRow_Rejections(t *testing.T) {
	s := newTestServer(t, nil)
	d := s.createConfigured(t, "Red")
	base := "/api/v1/variant-drafts/" + d.ID

	rec := s.do(t, http.MethodPatch, base+"/rows/"+string(d.Rows[0].ID), map[string]any{"price": -1})
	assertErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

	rec = s.do(t, http.MethodPatch, base+"/rows/unknown", map[string]any{"stock": 3})
	assertErrorCode(t, rec, http.StatusNotFound, "NOT_FOUND")
}

// ============================================================================
// Images
// ============================================================================

func TestAttachURLs_AndRemoveImage(t *testing.T) {
	s := newTestServer(t, nil)
	d := s.createConfigured(t, "Red")
	rowPath := "/api/v1/variant-drafts/" + d.ID + "/rows/" + string(d.Rows[0].ID)

	rec := s.do(t, http.MethodPost, rowPath+"/images/urls", AttachURLsRequest{URLs: "https://a/1.jpg\n\n  https://a/2.jpg  \n"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeDraft(t, rec)
	assert.Equal(t, []string{"https://a/1.jpg", "https://a/2.jpg"}, got.Rows[0].Images)
	assert.Equal(t, got.Rows[0].Images, got.ImageIndex[got.Rows[0].ID])

	rec = s.do(t, http.MethodPost, rowPath+"/images/url", AttachURLRequest{URL: "https://a/3.jpg"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeDraft(t, rec).Rows[0].Images, 3)

	rec = s.do(t, http.MethodDelete, rowPath+"/images/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"https://a/2.jpg", "https://a/3.jpg"}, decodeDraft(t, rec).Rows[0].Images)

	rec = s.do(t, http.MethodDelete, rowPath+"/images/-1", nil)
	assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_PARAMETER")
}

func TestUploadImages(t *testing.T) {
	s := newTestServer(t, nil)
	d := s.createConfigured(t, "Red")
	rowPath := "/api/v1/variant-drafts/" + d.ID + "/rows/" + string(d.Rows[0].ID)

	body, contentType := multipartBody(t, map[string][]byte{"front.png": pngData, "back.png": pngData})
	req := httptest.NewRequest(http.MethodPost, rowPath+"/images/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report uploadResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &report))
	assert.Equal(t, 2, report.Uploaded)
	assert.Equal(t, 2, report.Total)
	require.Len(t, report.URLs, 2)
	for _, url := range report.URLs {
		assert.True(t, strings.HasPrefix(url, "https://media.test/media/variants/"), url)
		assert.True(t, strings.HasSuffix(url, ".png"), url)
	}
	require.NotNil(t, report.Draft)
	assert.Equal(t, report.URLs, report.Draft.Rows[0].Images)
	assert.False(t, report.Draft.Rows[0].Placeholder)
	assert.Zero(t, report.Draft.UploadsInFlight)
}

func TestUploadImages_RateLimitedPerSeller(t *testing.T) {
	s := newTestServer(t, nil, func(cfg *RouterConfig) {
		cfg.UploadLimit = &middleware.RateLimitConfig{PerMinute: 1, Burst: 1}
	})
	d := s.createConfigured(t, "Red")
	rowPath := "/api/v1/variant-drafts/" + d.ID + "/rows/" + string(d.Rows[0].ID)

	upload := func(seller string) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, map[string][]byte{"front.png": pngData})
		req := httptest.NewRequest(http.MethodPost, rowPath+"/images/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set(middleware.UserIDHeader, seller)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, upload("seller-1").Code)
	assertErrorCode(t, upload("seller-1"), http.StatusTooManyRequests, "RATE_LIMITED")
	assert.Equal(t, http.StatusOK, upload("seller-2").Code)

	// Other routes are not throttled.
	rec := s.do(t, http.MethodGet, "/api/v1/variant-drafts/"+d.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeDraft(t, rec).Rows[0].Images, 2)
}

func TestUploadImages_PartialFailure(t *testing.T) {
	s := newTestServer(t, &failAfterUploader{ok: 1})
	d := s.createConfigured(t, "Red")
	rowPath := "/api/v1/variant-drafts/" + d.ID + "/rows/" + string(d.Rows[0].ID)

	body, contentType := multipartBody(t, map[string][]byte{"a.png": pngData, "b.png": pngData})
	req := httptest.NewRequest(http.MethodPost, rowPath+"/images/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_GATEWAY", env.Error.Code)

	var report uploadResponse
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 1, report.Uploaded)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, []string{"https://media.test/ok.png"}, report.URLs)
}

func TestUploadImages_RejectsUnsupportedFile(t *testing.T) {
	s := newTestServer(t, nil)
	d := s.createConfigured(t, "Red")
	rowPath := "/api/v1/variant-drafts/" + d.ID + "/rows/" + string(d.Rows[0].ID)

	body, contentType := multipartBody(t, map[string][]byte{"notes.txt": []byte("plain text")})
	req := httptest.NewRequest(http.MethodPost, rowPath+"/images/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_INPUT")
}

func TestUploadImages_RequiresMultipart(t *testing.T) {
	s := newTestServer(t, nil)
	d := s.createConfigured(t, "Red")

	rec := s.do(t, http.MethodPost, "/api/v1/variant-drafts/"+d.ID+"/rows/"+string(d.Rows[0].ID)+"/images/upload", map[string]any{})
	assertErrorCode(t, rec, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE")
}

// ============================================================================
// Save, export and saved variants
// ============================================================================

func TestSave(t *testing.T) {
	s := newTestServer(t, nil)
	d := s.createConfigured(t, "Red")
	base := "/api/v1/variant-drafts/" + d.ID

	rec := s.do(t, http.MethodPatch, base+"/rows", map[string]any{"price": 1500, "mrp": 2000, "stock": 4})
	require.Equal(t, http.StatusOK, rec.Code)

	s.variants.On("ReplaceForProduct", mock.Anything, testProductID, mock.MatchedBy(func(vs []domain.ProductVariant) bool {
		return len(vs) == 1 && vs[0].Color == "Red" && vs[0].Price == 1500
	})).Return(nil).Once()

	rec = s.do(t, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Draft    draftBody               `json:"draft"`
		Variants []domain.ProductVariant `json:"variants"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &result))
	require.Len(t, result.Variants, 1)
	assert.Equal(t, testProductID, result.Variants[0].ProductID)
	assert.Equal(t, 4, result.Variants[0].Stock)
	assert.Empty(t, result.Variants[0].Images)
	assert.NotNil(t, result.Draft.SavedAt)
}

func TestSave_ZeroPriceIsUnprocessable(t *testing.T) {
	s := newTestServer(t, nil)
	d := s.createConfigured(t, "Red")

	rec := s.do(t, http.MethodPost, "/api/v1/variant-drafts/"+d.ID+"/save", nil)
	assertErrorCode(t, rec, http.StatusUnprocessableEntity, matrix.CodeInvalidVariantPrice)
}

func TestExport(t *testing.T) {
	s := newTestServer(t, nil)
	d := s.createConfigured(t, "Red")

	rec := s.do(t, http.MethodGet, "/api/v1/variant-drafts/"+d.ID+"/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="linen-shirt-variants.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.NotZero(t, rec.Body.Len())
}

func TestListVariants(t *testing.T) {
	s := newTestServer(t, nil)

	variants := []domain.ProductVariant{{ID: "v-1", ProductID: testProductID, SKU: "SHIRT-RED", Price: 1500, MRP: 2000}}
	s.variants.On("ListByProduct", mock.Anything, testProductID, 2, 2).Return(variants, 3, nil).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/products/"+testProductID+"/variants?page=2&per_page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page httputil.PaginatedResponse[domain.ProductVariant]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.False(t, page.HasNext)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "SHIRT-RED", page.Data[0].SKU)
}

func TestListVariants_BadParams(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/products/nope/variants", nil)
	assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_PARAMETER")

	rec = s.do(t, http.MethodGet, "/api/v1/products/"+testProductID+"/variants?page=0", nil)
	assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_INPUT")
}

func TestHealthAndCORS(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/variant-drafts/", nil)
	req.Header.Set("Origin", "https://seller.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMediaHandler(t *testing.T) {
	store := uploader.NewMemoryUploader("https://media.test/")
	f := uploader.File{Name: "front.png", Data: pngData}
	require.NoError(t, uploader.Validate(&f))
	url, err := store.Upload(context.Background(), f)
	require.NoError(t, err)

	router := NewRouter(nil, nil, RouterConfig{Media: NewMediaHandler(store, "https://media.test")}, testLogger())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(url, "https://media.test"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngData, rec.Body.Bytes())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MediaPath+"missing.png", nil))
	assertErrorCode(t, rec, http.StatusNotFound, "NOT_FOUND")
}
