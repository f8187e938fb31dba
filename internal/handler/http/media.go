package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/lelekart/variantmatrix/internal/uploader"
	"github.com/lelekart/variantmatrix/pkg/httputil"
)

// MediaPath is where images kept by the in-memory uploader are served.
const MediaPath = "/media/variants/"

type mediaSource interface {
	Get(url string) (uploader.File, bool)
}

// NewMediaHandler serves files stored by an in-memory uploader whose URLs
// start with baseURL.
func NewMediaHandler(files mediaSource, baseURL string) http.HandlerFunc {
	baseURL = strings.TrimRight(baseURL, "/")

	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := files.Get(baseURL + r.URL.Path)
		if !ok {
			httputil.WriteJSON(w, http.StatusNotFound, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "NOT_FOUND", Message: "media not found"},
			})
			return
		}

		w.Header().Set("Content-Type", f.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(f.Data)
	}
}
