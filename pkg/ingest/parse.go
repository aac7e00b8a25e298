package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/saintfish/chardet"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// decodeCSV parses delimited text after auto-detecting its character
// encoding. Rows may have varying field counts; the importer validates
// against the header.
func decodeCSV(data []byte) ([][]string, error) {
	if enc := detectEncoding(data); enc != nil {
		if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
			data = decoded
		}
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

// detectEncoding guesses the charset of raw bytes. Returns nil when the
// input is already UTF-8 or no decoder is available, in which case the bytes
// are used as-is.
func detectEncoding(data []byte) encoding.Encoding {
	res, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || res == nil {
		return nil
	}
	if strings.EqualFold(res.Charset, "UTF-8") {
		return nil
	}
	enc, err := ianaindex.IANA.Encoding(res.Charset)
	if err != nil || enc == nil {
		return nil
	}
	return enc
}

// decodeXLSX reads the first sheet of a workbook.
func decodeXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read workbook rows: %w", err)
	}
	return rows, nil
}
