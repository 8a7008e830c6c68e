package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"exceltoquiz/internal/domain"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Format identifies a supported spreadsheet encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

var (
	zipMagic  = []byte("PK\x03\x04")
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
)

// DetectFormat trusts the file extension first and falls back to magic bytes.
func DetectFormat(filename string, head []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".csv":
		return FormatCSV, nil
	case "":
	default:
		if !bytes.HasPrefix(head, zipMagic) && !bytes.HasPrefix(head, ole2Magic) {
			return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(filename))
		}
	}

	switch {
	case bytes.HasPrefix(head, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(head, ole2Magic):
		return FormatXLS, nil
	}
	return FormatCSV, nil
}

// Parse reads the first sheet of an uploaded file and maps it to questions.
func Parse(r io.Reader, filename string) ([]domain.Question, error) {
	rows, _, err := ReadRows(r, filename)
	if err != nil {
		return nil, err
	}
	return ParseRows(rows)
}

// ReadRows decodes the first sheet of r into a grid of cell strings.
func ReadRows(r io.Reader, filename string) ([][]string, Format, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}

	format, err := DetectFormat(filename, data)
	if err != nil {
		return nil, "", err
	}

	var rows [][]string
	switch format {
	case FormatXLSX:
		rows, err = readXLSX(data)
	case FormatXLS:
		rows, err = readXLS(data)
	default:
		rows, err = readCSV(data)
	}
	if err != nil {
		return nil, format, domain.NewError(domain.KindFileFormat, "parse "+string(format),
			"Failed to process Excel file. Please check the file format.", err)
	}
	return rows, format, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func readXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows := make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}
