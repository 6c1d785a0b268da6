package sheet

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/contactsel/internal/core"
	"github.com/JonMunkholm/contactsel/internal/schema"
)

// defaultSheet is the sheet excelize.NewFile creates.
const defaultSheet = "Sheet1"

var errNoSheets = errors.New("workbook has no sheets")

// decodeXLSX returns the first sheet's cells as formatted strings.
func decodeXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("invalid spreadsheet: %w", errNoSheets)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet: read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// EncodeXLSX builds the export workbook: one sheet named
// schema.ExportSheetName, a header row, then one row per contact in order.
// Phone values are written as text so leading zeros survive.
func EncodeXLSX(rows []core.ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, schema.ExportSheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := schema.ExportHeader()
	if err := f.SetSheetRow(schema.ExportSheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := r.Values()
		if err := f.SetSheetRow(schema.ExportSheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
