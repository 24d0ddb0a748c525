// Package export renders approved claims into downloadable workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"remitapi/internal/model"
)

const (
	sheetName   = "Claim"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	Extension   = ".xlsx"
)

// XLSX writes one claim version as a single-sheet workbook: a metadata block
// followed by one row per payload field in schema order.
type XLSX struct{}

func NewXLSX() *XLSX { return &XLSX{} }

func (*XLSX) ContentType() string { return ContentType }
func (*XLSX) Extension() string   { return Extension }

func (*XLSX) Render(ext model.ExtractionResult, v model.ClaimVersion) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	meta := [][2]string{
		{"Extraction ID", ext.ID},
		{"Document ID", ext.DocumentID},
		{"Payer", ext.PayerName},
		{"Claim Number", v.Payload.ClaimNumber()},
		{"Version", v.Version.String()},
	}
	row := 1
	for _, kv := range meta {
		if err := setRow(f, row, kv[0], kv[1]); err != nil {
			return nil, err
		}
		row++
	}

	row++
	header := row
	if err := setRow(f, row, "Section", "Field", "Value"); err != nil {
		return nil, err
	}
	for _, sec := range v.Payload.Sections {
		for _, fld := range sec.Fields {
			row++
			label := fld.Label
			if label == "" {
				label = fld.Key
			}
			value := ""
			if fld.Value != nil {
				value = *fld.Value
			}
			if err := setRow(f, row, sec.Name, label, value); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetCellStyle(sheetName, "A1", fmt.Sprintf("A%d", len(meta)), bold); err != nil {
		return nil, fmt.Errorf("style metadata: %w", err)
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", header), fmt.Sprintf("C%d", header), bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", "C", 28); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values ...string) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	return nil
}
