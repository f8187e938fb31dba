package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ResponseError describes a non-2xx response from a downstream service.
type ResponseError struct {
	Service string
	Status  int
	Code    string
	Message string
}

func (e *ResponseError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s returned status %d (%s): %s", e.Service, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Message)
}

// IsClientError reports whether the downstream rejected the request itself.
func (e *ResponseError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// ParseResponseError reads and closes the body of a non-2xx response. A body
// in the {"error":{"code","message"}} envelope keeps its code and message;
// anything else is carried as raw text.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", service, resp.StatusCode, err)
	}

	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
		return &ResponseError{
			Service: service,
			Status:  resp.StatusCode,
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
		}
	}

	return &ResponseError{
		Service: service,
		Status:  resp.StatusCode,
		Message: strings.TrimSpace(string(body)),
	}
}
