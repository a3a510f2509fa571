package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrDecode reports an unreadable or corrupt PDF container. It is fatal for
// the invocation and never retried.
var ErrDecode = errors.New("unreadable pdf")

// Field names produced by the extractor.
const (
	FieldQuoteNumber = "quote_number"
	FieldIssueDate   = "issue_date"
	FieldSalesperson = "salesperson"
	FieldCustomer    = "customer_name"
	FieldTotal       = "total_amount"
)

// Result maps field name to the best-guess matched text. Fields with zero
// candidates are absent. A field lands in Ambiguous when multiple candidates
// disagreed after normalization; the deterministic pick is still in Fields.
type Result struct {
	Fields    map[string]string
	Ambiguous map[string]bool
}

// Has reports whether a field was extracted.
func (r Result) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// Parse decodes a quotation PDF into reading-order lines and scans them for
// the known fields. Only the first page is read; multi-page quotations are
// not supported.
func Parse(data []byte) (Result, error) {
	lines, err := decode(data)
	if err != nil {
		return Result{}, err
	}
	return Scan(lines), nil
}

func decode(data []byte) (lines []string, err error) {
	// The underlying reader panics on some malformed containers.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrDecode, rec)
		}
	}()

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrDecode)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if reader.NumPage() < 1 {
		return nil, fmt.Errorf("%w: no pages", ErrDecode)
	}

	page := reader.Page(1)
	if page.V.IsNull() {
		return nil, fmt.Errorf("%w: unreadable first page", ErrDecode)
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	for _, row := range rows {
		var sb strings.Builder
		for _, word := range row.Content {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(word.S)
		}
		if line := strings.TrimSpace(sb.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
