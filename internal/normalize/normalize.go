// Package normalize canonicalizes raw field values before comparison.
//
// Extracted invoice data and mapping files disagree on casing, whitespace,
// currency symbols and date formats long before they disagree on substance.
// Every comparison in the matching engine goes through this package first so
// that only semantic deviations surface as discrepancies.
//
// All functions are pure and never return an error: unparseable input
// degrades to an absent value with the Failed flag set, which callers
// surface as a warning. Missing is not zero.
package normalize

import (
	"strings"
	"time"
	"unicode"

	"invoice-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// FieldType declares how a raw value should be canonicalized
type FieldType int

const (
	// FieldString is free text compared after case and whitespace folding
	FieldString FieldType = iota
	// FieldNumber is a numeric value, possibly formatted as currency text
	FieldNumber
	// FieldDate is a calendar date in any of the supported formats
	FieldDate
)

// String returns the string representation of FieldType
func (ft FieldType) String() string {
	switch ft {
	case FieldString:
		return "string"
	case FieldNumber:
		return "number"
	case FieldDate:
		return "date"
	default:
		return "unknown"
	}
}

// Result holds a normalized field value. Exactly one of Text, Number or
// Date is populated depending on the requested FieldType; Failed is set
// when the raw value was present but could not be normalized.
type Result struct {
	Text   string
	Number *decimal.Decimal
	Date   *time.Time
	Failed bool
}

// Field normalizes a raw value according to its declared type
func Field(raw string, ft FieldType) Result {
	switch ft {
	case FieldNumber:
		n, ok := Number(raw)
		return Result{Number: n, Failed: !ok}
	case FieldDate:
		d, ok := Date(raw)
		return Result{Date: d, Failed: !ok}
	default:
		return Result{Text: String(raw)}
	}
}

// String canonicalizes free text: trims, case-folds and collapses internal
// whitespace runs to a single space.
func String(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Number coerces a numeric string to a decimal, stripping currency symbols
// and thousands separators. Empty input returns (nil, true): absent is not
// a failure. Present but unparseable input returns (nil, false).
func Number(raw string) (*decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}

	d, err := models.ParseDecimalFromString(raw)
	if err != nil {
		return nil, false
	}
	return &d, true
}

// Date parses a calendar date. Empty input returns (nil, true); present but
// unparseable input returns (nil, false).
func Date(raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}

	t, err := models.ParseDateWithFormats(raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// StringsEqual reports whether two raw strings are equal after
// normalization. Two absent values are equal; an absent and a present
// value are not comparable and report false.
func StringsEqual(a, b string) bool {
	na, nb := String(a), String(b)
	if na == "" || nb == "" {
		return na == nb
	}
	return na == nb
}
