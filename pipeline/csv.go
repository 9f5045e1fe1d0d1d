package pipeline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"stockout-app/errorx"
	"stockout-app/models"
)

const (
	utf8BOM    = "\ufeff"
	emptyField = "\"\"\n"
)

// ReadCSV parses an uploaded file. The first record is the header; every
// other record must have the same number of fields.
func ReadCSV(r io.Reader) (*models.Table, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && string(b) == utf8BOM {
		br.Discard(len(utf8BOM))
	}

	records, err := csv.NewReader(br).ReadAll()
	if err != nil {
		return nil, errorx.New(errorx.StageRead, errorx.ErrSchema, err)
	}
	if len(records) == 0 {
		return nil, errorx.Newf(errorx.StageRead, errorx.ErrSchema, "file is empty, a header row is required")
	}

	return &models.Table{
		Columns: records[0],
		Rows:    records[1:],
	}, nil
}

// WriteCSV writes t with its header row.
func WriteCSV(w io.Writer, t *models.Table) error {
	cw := csv.NewWriter(w)
	if err := writeRecord(w, cw, t.Columns); err != nil {
		return errorx.New(errorx.StageExport, errorx.ErrExport, err)
	}
	for _, row := range t.Rows {
		if err := writeRecord(w, cw, row); err != nil {
			return errorx.New(errorx.StageExport, errorx.ErrExport, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errorx.New(errorx.StageExport, errorx.ErrExport, err)
	}
	return nil
}

// writeRecord writes a single empty field as "" because csv.Writer emits a
// blank line for it and csv.Reader skips blank lines.
func writeRecord(w io.Writer, cw *csv.Writer, rec []string) error {
	if len(rec) != 1 || rec[0] != "" {
		return cw.Write(rec)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(w, emptyField)
	return err
}

// ToCSV serializes t to UTF-8 CSV bytes.
func ToCSV(t *models.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IsCSVName reports whether an upload looks like a CSV by its file name.
func IsCSVName(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".csv")
}
