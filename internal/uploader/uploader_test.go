package uploader

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lelekart/variantmatrix/pkg/errors"
	"github.com/lelekart/variantmatrix/pkg/httpclient"
)

var (
	pngData  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	jpegData = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 32)...)
)

func newTestClient() *httpclient.CircuitBreakerClient {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.Timeout = 2 * time.Second
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpclient.NewCircuitBreakerClient(httpclient.New(cfg), httpclient.DefaultCircuitBreakerConfig("media-service"), nil, logger)
}

// ============================================================================
// Validate
// ============================================================================

func TestValidate(t *testing.T) {
	f := File{Name: "red.png", ContentType: "application/octet-stream", Data: pngData}
	require.NoError(t, Validate(&f))
	assert.Equal(t, "image/png", f.ContentType)
	assert.Equal(t, ".png", f.Extension)

	j := File{Name: "red.jpg", Data: jpegData}
	require.NoError(t, Validate(&j))
	assert.Equal(t, "image/jpeg", j.ContentType)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("just some text pretending to be an image")},
		{"pdf", []byte("%PDF-1.7\n%âãÏÓ\n")},
		{"too large", append(append([]byte{}, pngData...), make([]byte, MaxFileSize)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&File{Name: tt.name, Data: tt.data})
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

// ============================================================================
// HTTPUploader
// ============================================================================

func TestHTTPUploader_SendsMultipartFile(t *testing.T) {
	var (
		gotName string
		gotType string
		gotData []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile(FormField)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotData, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"id":"m-1","url":"https://cdn.example.com/m-1.png"}}`)
	}))
	defer srv.Close()

	u := NewHTTPUploader(newTestClient(), srv.URL+"/api/v1/media")
	url, err := u.Upload(context.Background(), File{Name: "red.png", ContentType: "image/png", Data: pngData})

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/m-1.png", url)
	assert.Equal(t, "red.png", gotName)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, pngData, gotData)
}

func TestHTTPUploader_ClientErrorKeepsDownstreamMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = io.WriteString(w, `{"error":{"code":"INVALID_INPUT","message":"file too large"}}`)
	}))
	defer srv.Close()

	_, err := NewHTTPUploader(newTestClient(), srv.URL).
		Upload(context.Background(), File{Name: "big.png", ContentType: "image/png", Data: pngData})

	var respErr *httpclient.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, respErr.Status)
	assert.Equal(t, "file too large", respErr.Message)
	assert.True(t, respErr.IsClientError())
}

func TestHTTPUploader_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPUploader(newTestClient(), srv.URL).
		Upload(context.Background(), File{Name: "red.png", ContentType: "image/png", Data: pngData})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "media-service")
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPUploader_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	_, err := NewHTTPUploader(newTestClient(), endpoint).
		Upload(context.Background(), File{Name: "red.png", ContentType: "image/png", Data: pngData})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post red.png to media-service")
}

func TestParseUploadResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"top level url", `{"url":"https://a/1.jpg"}`, "https://a/1.jpg", nil},
		{"top level imageUrl", `{"imageUrl":"https://a/2.jpg"}`, "https://a/2.jpg", nil},
		{"enveloped url", `{"data":{"url":"https://a/3.jpg"}}`, "https://a/3.jpg", nil},
		{"enveloped imageUrl", `{"data":{"imageUrl":" https://a/4.jpg "}}`, "https://a/4.jpg", nil},
		{"url preferred", `{"url":"https://a/5.jpg","imageUrl":"https://a/6.jpg"}`, "https://a/5.jpg", nil},
		{"missing", `{"data":{"id":"m-1"}}`, "", ErrNoURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseUploadResponse(strings.NewReader(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseUploadResponse(bytes.NewReader([]byte("<html>")))
	assert.ErrorContains(t, err, "decode upload response")
}

// ============================================================================
// MemoryUploader
// ============================================================================

func TestMemoryUploader(t *testing.T) {
	u := NewMemoryUploader("http://localhost:8014/")

	url, err := u.Upload(context.Background(), File{Name: "red.png", Extension: ".png", Data: pngData})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8014/media/variants/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	f, ok := u.Get(url)
	require.True(t, ok)
	assert.Equal(t, "red.png", f.Name)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = u.Upload(ctx, File{Name: "x.png"})
	assert.ErrorIs(t, err, context.Canceled)
}
