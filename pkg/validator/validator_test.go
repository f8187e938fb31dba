package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createDraftRequest struct {
	ProductName string   `json:"product_name" validate:"required,max=20"`
	ProductID   string   `json:"product_id" validate:"omitempty,uuid"`
	Step        string   `json:"step" validate:"omitempty,oneof=attributes configure"`
	Values      []string `json:"values" validate:"omitempty,min=1"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Internal    string   `json:"-"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(createDraftRequest{ProductName: "Tee", Stock: 3})
	assert.NoError(t, err)
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	err := Validate(createDraftRequest{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["product_name"])
	assert.NotContains(t, fields, "ProductName")
}

func TestValidate_Messages(t *testing.T) {
	tests := []struct {
		name  string
		req   createDraftRequest
		field string
		want  string
	}{
		{"max on string", createDraftRequest{ProductName: strings.Repeat("x", 21)}, "product_name", "at most 20"},
		{"uuid", createDraftRequest{ProductName: "a", ProductID: "nope"}, "product_id", "must be a valid UUID"},
		{"oneof", createDraftRequest{ProductName: "a", Step: "done"}, "step", "one of"},
		{"gte", createDraftRequest{ProductName: "a", Stock: -1}, "stock", "greater than or equal to 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			require.Error(t, err)

			var valErr *ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Contains(t, valErr.Fields()[tt.field], tt.want)
		})
	}
}

type numberStruct struct {
	Price int64 `json:"price" validate:"min=1"`
}

func TestValidate_MinOnNumber(t *testing.T) {
	err := Validate(numberStruct{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be at least 1", valErr.Fields()["price"])
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(createDraftRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'product_name'")
	assert.Contains(t, err.Error(), "is required")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"product_name":"Tee","stock":4}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))

	var s createDraftRequest
	require.NoError(t, DecodeAndValidate(req, &s))
	assert.Equal(t, "Tee", s.ProductName)
	assert.Equal(t, 4, s.Stock)
}

func TestDecodeAndValidate_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))

	var s numberStruct
	err := DecodeAndValidate(req, &s)

	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))

	var s createDraftRequest
	err := DecodeAndValidate(req, &s)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
