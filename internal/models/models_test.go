package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSeverityRankOrdering(t *testing.T) {
	ordered := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("%s must rank before %s", ordered[i-1], ordered[i])
		}
	}
}

func TestSeverityAtLeast(t *testing.T) {
	if !SeverityCritical.AtLeast(SeverityHigh) {
		t.Error("CRITICAL is at least HIGH")
	}
	if !SeverityHigh.AtLeast(SeverityHigh) {
		t.Error("HIGH is at least HIGH")
	}
	if SeverityLow.AtLeast(SeverityMedium) {
		t.Error("LOW is not at least MEDIUM")
	}
}

func TestSeverityIsValid(t *testing.T) {
	for _, s := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Severity("SEVERE").IsValid() {
		t.Error("unknown severity should be invalid")
	}
}

func TestInvoiceDataValidate(t *testing.T) {
	invoice := &InvoiceData{
		LineItems: []InvoiceLineItem{
			{LineID: 1},
			{LineID: 2},
		},
	}
	if err := invoice.Validate(); err != nil {
		t.Errorf("unique line ids should validate: %v", err)
	}

	invoice.LineItems = append(invoice.LineItems, InvoiceLineItem{LineID: 1})
	if err := invoice.Validate(); err == nil {
		t.Error("duplicate line ids must fail validation")
	}

	empty := &InvoiceData{}
	if err := empty.Validate(); err != nil {
		t.Errorf("an empty invoice is structurally valid: %v", err)
	}
}

func TestInvoiceLineItemHasIdentity(t *testing.T) {
	li := &InvoiceLineItem{CampaignName: "Summer Sale"}
	if !li.HasIdentity() {
		t.Error("campaign name alone is an identity")
	}

	li = &InvoiceLineItem{Placement: "Homepage"}
	if !li.HasIdentity() {
		t.Error("placement alone is an identity")
	}

	li = &InvoiceLineItem{CampaignName: "   "}
	if li.HasIdentity() {
		t.Error("whitespace is not an identity")
	}
}

func TestPlannedLineKey(t *testing.T) {
	a := &PlannedLine{SourceFile: "plan_a.json", LineID: 1}
	b := &PlannedLine{SourceFile: "plan_b.json", LineID: 1}
	if a.Key() == b.Key() {
		t.Error("the same line id in different files must have distinct keys")
	}
}

func TestSeverityBreakdown(t *testing.T) {
	var sb SeverityBreakdown
	sb.Add(SeverityCritical)
	sb.Add(SeverityHigh)
	sb.Add(SeverityHigh)
	sb.Add(SeverityLow)

	if sb.Total() != 4 {
		t.Errorf("total = %d, want 4", sb.Total())
	}
	if sb.Count(SeverityHigh) != 2 {
		t.Errorf("high count = %d, want 2", sb.Count(SeverityHigh))
	}

	var other SeverityBreakdown
	other.Add(SeverityMedium)
	sb.Merge(other)
	if sb.Total() != 5 || sb.Medium != 1 {
		t.Errorf("merge failed: %+v", sb)
	}
}

func TestSeverityBreakdownJSONDeterministic(t *testing.T) {
	sb := SeverityBreakdown{Critical: 1, High: 2, Medium: 3, Low: 4}

	first, err := json.Marshal(sb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _ := json.Marshal(sb)
		if string(again) != string(first) {
			t.Fatal("breakdown JSON must be byte-identical across marshals")
		}
	}
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"1234.56", "1234.56", true},
		{"$1,234.56", "1234.56", true},
		{"€500", "500", true},
		{"£99.99", "99.99", true},
		{" 42 ", "42", true},
		{"", "", false},
		{"abc", "", false},
	}

	for _, tt := range tests {
		d, err := ParseDecimalFromString(tt.input)
		if tt.ok {
			if err != nil {
				t.Errorf("ParseDecimalFromString(%q) error: %v", tt.input, err)
				continue
			}
			if !d.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseDecimalFromString(%q) = %s, want %s", tt.input, d, tt.want)
			}
		} else if err == nil {
			t.Errorf("ParseDecimalFromString(%q) expected error", tt.input)
		}
	}
}

func TestParseDateWithFormats(t *testing.T) {
	for _, input := range []string{
		"2026-07-15",
		"07/15/2026",
		"2026/07/15",
		"Jul 15, 2026",
		"July 15, 2026",
	} {
		d, err := ParseDateWithFormats(input)
		if err != nil {
			t.Errorf("ParseDateWithFormats(%q) error: %v", input, err)
			continue
		}
		if d.Year() != 2026 || d.Day() != 15 {
			t.Errorf("ParseDateWithFormats(%q) = %v", input, d)
		}
	}

	if _, err := ParseDateWithFormats("not a date"); err == nil {
		t.Error("expected error for unparseable date")
	}
	if _, err := ParseDateWithFormats(""); err == nil {
		t.Error("expected error for empty date")
	}
}
