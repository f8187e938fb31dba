package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/lelekart/variantmatrix/pkg/httpclient"
)

const serviceName = "media-service"

// FormField is the multipart field the media endpoint reads the file from.
const FormField = "file"

// ErrNoURL is returned when the media endpoint answers 2xx without a URL.
var ErrNoURL = errors.New("upload response has no image url")

// Poster is satisfied by httpclient.CircuitBreakerClient.
type Poster interface {
	Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error)
}

// HTTPUploader posts each file to the media service's upload endpoint.
type HTTPUploader struct {
	client   Poster
	endpoint string
}

// NewHTTPUploader creates an uploader for endpoint.
func NewHTTPUploader(client Poster, endpoint string) *HTTPUploader {
	return &HTTPUploader{client: client, endpoint: endpoint}
}

// Upload sends f as multipart/form-data and returns the URL from the response.
func (u *HTTPUploader) Upload(ctx context.Context, f File) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FormField, f.Name))
	header.Set("Content-Type", f.ContentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return "", fmt.Errorf("write multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	resp, err := u.client.Post(ctx, u.endpoint, mw.FormDataContentType(), &body)
	if err != nil {
		return "", fmt.Errorf("post %s to %s: %w", f.Name, serviceName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	return parseUploadResponse(resp.Body)
}

type urlFields struct {
	URL      string `json:"url"`
	ImageURL string `json:"imageUrl"`
}

func (f urlFields) get() string {
	if s := strings.TrimSpace(f.URL); s != "" {
		return s
	}
	return strings.TrimSpace(f.ImageURL)
}

// parseUploadResponse accepts the URL under "url" or "imageUrl", either at the
// top level or inside a "data" object.
func parseUploadResponse(r io.Reader) (string, error) {
	var payload struct {
		urlFields
		Data *urlFields `json:"data"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}

	if url := payload.get(); url != "" {
		return url, nil
	}
	if payload.Data != nil {
		if url := payload.Data.get(); url != "" {
			return url, nil
		}
	}
	return "", ErrNoURL
}
