// Package sheet converts between spreadsheet files and contact rows.
//
// Decoding accepts CSV and XLSX, reads only the first sheet, and treats the
// first row as column headers. Encoding always produces a single-sheet XLSX
// workbook in the export schema.
package sheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/contactsel/internal/core"
)

// DefaultMaxFileSize is the decode size cap when none is configured (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

var (
	ErrEmptyFile         = errors.New("empty file")
	ErrUnsupportedFormat = errors.New("unsupported format: expected .csv or .xlsx")
	ErrFileTooLarge      = errors.New("file too large")
)

// Format identifies a spreadsheet encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// zipMagic starts every XLSX (OOXML is a ZIP container).
var zipMagic = []byte("PK\x03\x04")

// Codec decodes uploaded spreadsheets and encodes export workbooks.
type Codec struct {
	maxFileSize int64
}

// New creates a Codec that refuses files larger than maxFileSize bytes.
// A non-positive size uses DefaultMaxFileSize.
func New(maxFileSize int64) *Codec {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Codec{maxFileSize: maxFileSize}
}

// DetectFormat picks the decoder for a file. ZIP content is always XLSX;
// otherwise the extension decides.
func DetectFormat(name string, data []byte) (Format, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX, nil
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		// Not a ZIP, so excelize would reject it anyway.
		return FormatXLSX, nil
	}
	return "", ErrUnsupportedFormat
}

// Decode turns file contents into rows keyed by header.
func (c *Codec) Decode(ctx context.Context, name string, data []byte) ([]core.Row, error) {
	start := time.Now()

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > c.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, len(data), c.maxFileSize)
	}

	format, err := DetectFormat(name, data)
	if err != nil {
		return nil, err
	}

	var table [][]string
	switch format {
	case FormatCSV:
		table, err = decodeCSV(data)
	case FormatXLSX:
		table, err = decodeXLSX(data)
	}
	if err != nil {
		return nil, err
	}

	rows, err := tableToRows(ctx, table)
	if err != nil {
		return nil, err
	}

	slog.Debug("spreadsheet decoded",
		"file", name,
		"format", format,
		"rows", len(rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rows, nil
}

// DecodeFile reads and decodes a spreadsheet from disk.
func (c *Codec) DecodeFile(ctx context.Context, path string) ([]core.Row, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > c.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, path, info.Size(), c.maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c.Decode(ctx, filepath.Base(path), data)
}

// Encode writes rows to an export workbook.
func (c *Codec) Encode(rows []core.ExportRow) ([]byte, error) {
	return EncodeXLSX(rows)
}
