package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned for files that are neither delimited text
// nor a spreadsheet workbook.
var ErrUnsupportedFormat = errors.New("invalid file type: only Excel or CSV files are allowed")

// SchemaError reports required columns missing from the file header. No rows
// are processed when it is returned.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s; expected: %s",
		strings.Join(e.Missing, ", "), strings.Join(RequiredColumns, ", "))
}

// FormatError reports an unparseable value in a data row. Rows committed
// before the offending row stay committed; processing stops at Row.
type FormatError struct {
	Row   int // 1-based data row number, excluding the header
	Field string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("row %d: invalid %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
