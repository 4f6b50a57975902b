package orangebook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/giygas/govdata-api/apperr"
	"github.com/jszwec/csvutil"
)

// Delimiter separates fields in the Orange Book text files
const Delimiter = '~'

// Record is one row keyed by header name
type Record map[string]string

// ParseTable is the minimal parser: the first line is the header, every
// other non-blank line is split on '~' and mapped to it by position. Short
// rows are not padded; fields past the header are dropped. There is no
// quoting, so a '~' inside a value shifts the rest of the row.
func ParseTable(text string) []Record {
	lines := strings.Split(text, "\n")
	records := []Record{}
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return records
	}

	headers := strings.Split(strings.TrimSpace(lines[0]), string(Delimiter))
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cols := strings.Split(line, string(Delimiter))
		row := make(Record, len(cols))
		for j, v := range cols {
			if j >= len(headers) {
				break
			}
			row[headers[j]] = v
		}
		records = append(records, row)
	}
	return records
}

// rowReader adapts csv.Reader for csvutil: it trims fields and pads or cuts
// each row to the header width so ragged rows still decode.
type rowReader struct {
	r     *csv.Reader
	width int
}

func (rr *rowReader) Read() ([]string, error) {
	for {
		rec, err := rr.r.Read()
		if err != nil {
			return nil, err
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if rr.width == 0 {
			rr.width = len(rec)
			return rec, nil
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		switch {
		case len(rec) < rr.width:
			rec = append(rec, make([]string, rr.width-len(rec))...)
		case len(rec) > rr.width:
			rec = rec[:rr.width]
		}
		return rec, nil
	}
}

func newRowReader(r io.Reader) *rowReader {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false
	return &rowReader{r: cr}
}

// DecodeTable is the tolerant parser. It accepts CRLF line endings, quoted
// fields containing '~', stray quotes and ragged rows, and decodes each row
// into T using its csv struct tags.
func DecodeTable[T any](text string) ([]T, error) {
	const op = "orangebook decode"

	if strings.TrimSpace(text) == "" {
		return []T{}, nil
	}

	dec, err := csvutil.NewDecoder(newRowReader(strings.NewReader(text)))
	if err != nil {
		return nil, apperr.E(apperr.KindParse, op, fmt.Errorf("reading header: %w", err))
	}

	out := []T{}
	for {
		var v T
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.E(apperr.KindParse, op, fmt.Errorf("decoding row %d: %w", len(out)+1, err))
		}
		out = append(out, v)
	}
	return out, nil
}
