package quotes

import (
	"fmt"
	"strings"
	"time"

	"quotes-backend/internal/extract"
)

// Quotations older than this are rejected as stale.
const maxQuoteAge = 5 * 365 * 24 * time.Hour

// Accepted issue-date layouts, in match order.
var dateLayouts = []string{"02/01/2006", "02-01-2006", "2006-01-02"}

// IdentitySet resolves the salesperson text printed on a quotation to a
// known vendor identity. Implementations must be pure lookups.
type IdentitySet interface {
	Resolve(raw string) (vendorID string, ok bool)
}

// Validate checks an extraction for completeness and well-formedness and
// normalizes it into a QuoteRecord. On failure it returns a *ValidationError
// enumerating every violation. The clock and the identity set are passed in
// explicitly so the function stays pure.
func Validate(raw extract.Result, now time.Time, ids IdentitySet) (QuoteRecord, error) {
	verr := &ValidationError{}
	var rec QuoteRecord

	for _, field := range []string{
		extract.FieldQuoteNumber,
		extract.FieldIssueDate,
		extract.FieldSalesperson,
		extract.FieldCustomer,
		extract.FieldTotal,
	} {
		if !raw.Has(field) {
			verr.add(field, "not found in document")
		} else if raw.Ambiguous[field] {
			verr.add(field, "multiple disagreeing candidates")
		}
	}

	if number := strings.TrimSpace(raw.Fields[extract.FieldQuoteNumber]); number != "" {
		rec.QuoteNumber = number
	}

	if rawDate := raw.Fields[extract.FieldIssueDate]; rawDate != "" {
		issued, err := parseDate(rawDate)
		switch {
		case err != nil:
			verr.add(extract.FieldIssueDate, fmt.Sprintf("unparseable date %q", rawDate))
		case issued.After(now):
			verr.add(extract.FieldIssueDate, "issue date is in the future")
		case now.Sub(issued) > maxQuoteAge:
			verr.add(extract.FieldIssueDate, "issue date is more than 5 years old")
		default:
			rec.IssueDate = issued
		}
	}

	if seller := strings.TrimSpace(raw.Fields[extract.FieldSalesperson]); seller != "" {
		rec.Salesperson = seller
		if vendorID, ok := ids.Resolve(seller); ok {
			rec.VendorID = vendorID
		} else {
			verr.add(extract.FieldSalesperson, fmt.Sprintf("unknown salesperson %q", seller))
		}
	}

	if customer := strings.TrimSpace(raw.Fields[extract.FieldCustomer]); customer != "" {
		rec.Customer = customer
	}

	if rawTotal := raw.Fields[extract.FieldTotal]; rawTotal != "" {
		total, err := parseAmount(rawTotal)
		if err != nil {
			verr.add(extract.FieldTotal, fmt.Sprintf("unparseable amount %q", rawTotal))
		} else if total.Cents < 0 {
			verr.add(extract.FieldTotal, "amount is negative")
		} else {
			rec.Total = total
		}
	}

	if len(verr.Violations) > 0 {
		return QuoteRecord{}, verr
	}
	return rec, nil
}

func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("no accepted date layout matches %q", raw)
}

// parseAmount normalizes es-AR ("150.000,00") and plain ("150000.00")
// decimal notations into cents. The currency defaults to ARS unless the raw
// text names USD.
func parseAmount(raw string) (Money, error) {
	currency := "ARS"
	upper := strings.ToUpper(raw)
	if strings.Contains(upper, "USD") || strings.Contains(upper, "U$S") {
		currency = "USD"
	}

	var digits []byte
	negative := false
	for _, c := range []byte(strings.TrimSpace(raw)) {
		switch {
		case c >= '0' && c <= '9', c == '.', c == ',':
			digits = append(digits, c)
		case c == '-':
			negative = true
		}
	}
	if len(digits) == 0 {
		return Money{}, fmt.Errorf("no numeric content in %q", raw)
	}

	s := string(digits)
	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')

	var whole, frac string
	switch {
	case lastComma >= 0 && lastDot >= 0:
		// The rightmost separator is the decimal one.
		sep := lastComma
		if lastDot > lastComma {
			sep = lastDot
		}
		whole, frac = s[:sep], s[sep+1:]
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			whole, frac = s[:lastComma], s[lastComma+1:]
		} else {
			whole = s
		}
	case lastDot >= 0:
		if strings.Count(s, ".") == 1 && len(s)-lastDot-1 <= 2 {
			whole, frac = s[:lastDot], s[lastDot+1:]
		} else {
			whole = s
		}
	default:
		whole = s
	}

	whole = strings.Map(dropSeparators, whole)
	frac = strings.Map(dropSeparators, frac)
	if len(frac) > 2 {
		return Money{}, fmt.Errorf("too many decimal digits in %q", raw)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	var cents int64
	for _, c := range whole + frac {
		if c < '0' || c > '9' {
			return Money{}, fmt.Errorf("unexpected character in %q", raw)
		}
		cents = cents*10 + int64(c-'0')
	}
	if negative {
		cents = -cents
	}
	return Money{Cents: cents, Currency: currency}, nil
}

func dropSeparators(r rune) rune {
	if r == '.' || r == ',' {
		return -1
	}
	return r
}
