package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lelekart/variantmatrix/internal/domain"
)

func testDraft() *domain.Draft {
	red := domain.Combination{{Name: "Color", Value: "Red"}, {Name: "Size", Value: "S"}}
	blue := domain.Combination{{Name: "Color", Value: "Blue"}, {Name: "Size", Value: "S"}}
	return &domain.Draft{
		ID:          "d-1",
		ProductName: "Cotton Tee",
		Attributes: []domain.Attribute{
			{Name: "Color", Values: []string{"Red", "Blue"}},
			{Name: "Size", Values: []string{"S"}, Optional: true},
		},
		Rows: []domain.Row{
			{
				ID: red.Key(), Label: red.Label(), Combination: red,
				SKU: "COTTONTEE-Red-S", Price: 1999, MRP: 2499, Stock: 4, Enabled: true,
				Images: []string{"https://cdn/1.jpg", "https://cdn/2.jpg"},
			},
			{
				ID: blue.Key(), Label: blue.Label(), Combination: blue,
				SKU: "COTTONTEE-Blue-S", Images: []string{"https://placehold.co/600x600?text=Blue"}, Placeholder: true,
			},
		},
	}
}

func TestWriteMatrix(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMatrix(&buf, testDraft()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Color", "Size", "SKU", "Price", "MRP", "Stock", "Enabled", "Images"}, rows[0])
	assert.Equal(t, []string{"Red", "S", "COTTONTEE-Red-S", "1999", "2499", "4", "yes", "https://cdn/1.jpg\nhttps://cdn/2.jpg"}, rows[1])
	// Trailing empty cells are trimmed by GetRows.
	assert.Equal(t, []string{"Blue", "S", "COTTONTEE-Blue-S", "0", "0", "0", "no"}, rows[2])
}

func TestWriteMatrix_HeaderIsStyled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMatrix(&buf, testDraft()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellStyle(SheetName, "A1")
	require.NoError(t, err)
	body, err := f.GetCellStyle(SheetName, "A2")
	require.NoError(t, err)
	assert.NotZero(t, header)
	assert.NotEqual(t, header, body)
}

func TestWriteMatrix_EmptyDraft(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMatrix(&buf, &domain.Draft{Attributes: domain.DefaultAttributes()}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Color", rows[0][0])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "cotton-tee-variants.xlsx", Filename(&domain.Draft{ProductName: "Cotton Tee"}))
	assert.Equal(t, "product-variants.xlsx", Filename(&domain.Draft{}))
}
