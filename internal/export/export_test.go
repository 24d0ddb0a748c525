package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"remitapi/internal/model"
)

func TestXLSX_Render(t *testing.T) {
	payload := model.DefaultSchema().EmptyPayload()
	payload.Set(model.FieldClaimNumber, "A12345678")
	payload.Set(model.FieldPaidAmount, "180")

	ext := model.ExtractionResult{ID: "ext-1", DocumentID: "doc-1", PayerName: "Acme Health"}
	v := model.ClaimVersion{Version: model.Version{Major: 1, Minor: 3}, Payload: payload}

	b, err := NewXLSX().Render(ext, v)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)

	assert.Equal(t, []string{"Extraction ID", "ext-1"}, rows[0])
	assert.Equal(t, []string{"Claim Number", "A12345678"}, rows[3])
	assert.Equal(t, []string{"Version", "1.3"}, rows[4])
	assert.Equal(t, []string{"Section", "Field", "Value"}, rows[6])

	var paid []string
	for _, r := range rows[7:] {
		if len(r) >= 2 && r[1] == "Paid Amount" {
			paid = r
		}
	}
	assert.Equal(t, []string{"Claim Information", "Paid Amount", "180.00"}, paid)
	assert.Len(t, rows, 7+len(payload.Sections[0].Fields)+len(payload.Sections[1].Fields))
}
