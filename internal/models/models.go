package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Severity represents the severity level of a field-level discrepancy
type Severity string

const (
	// SeverityCritical represents a deviation large enough to block payment
	SeverityCritical Severity = "CRITICAL"
	// SeverityHigh represents a deviation requiring review before approval
	SeverityHigh Severity = "HIGH"
	// SeverityMedium represents a notable but bounded deviation
	SeverityMedium Severity = "MEDIUM"
	// SeverityLow represents a deviation just past tolerance
	SeverityLow Severity = "LOW"
)

// String returns the string representation of Severity
func (s Severity) String() string {
	return string(s)
}

// IsValid checks if the severity is one of the known levels
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	default:
		return false
	}
}

// Rank returns the ordering rank of the severity, lower is more severe.
// Used for deterministic report sorting.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// AtLeast reports whether s is at least as severe as other
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() <= other.Rank()
}

// TrustLevel is the qualitative label derived from a trust score
type TrustLevel string

const (
	TrustExcellent TrustLevel = "EXCELLENT"
	TrustGood      TrustLevel = "GOOD"
	TrustFair      TrustLevel = "FAIR"
	TrustPoor      TrustLevel = "POOR"
	TrustCritical  TrustLevel = "CRITICAL"
)

// String returns the string representation of TrustLevel
func (tl TrustLevel) String() string {
	return string(tl)
}

// VendorGrade is the display letter grade for a vendor's longitudinal score
type VendorGrade string

const (
	GradeA VendorGrade = "A"
	GradeB VendorGrade = "B"
	GradeC VendorGrade = "C"
	GradeD VendorGrade = "D"
	GradeF VendorGrade = "F"
)

// InvoiceHeader holds vendor identity, billing period and header-level totals
// as produced by the upstream extraction collaborator. Every numeric and date
// field may be absent when extraction failed to locate it. The header is
// read-only input to the reconciliation core.
type InvoiceHeader struct {
	InvoiceNumber       string           `json:"invoice_number,omitempty"`
	VendorName          string           `json:"vendor_name,omitempty"`
	CampaignName        string           `json:"campaign_name,omitempty"`
	InvoiceDate         string           `json:"invoice_date,omitempty"`
	BillingStartDate    string           `json:"billing_start_date,omitempty"`
	BillingEndDate      string           `json:"billing_end_date,omitempty"`
	Currency            string           `json:"currency,omitempty"`
	TotalImpressions    *decimal.Decimal `json:"total_impressions,omitempty"`
	TotalViews          *decimal.Decimal `json:"total_views,omitempty"`
	TotalClicks         *decimal.Decimal `json:"total_clicks,omitempty"`
	GrossRevenue        *decimal.Decimal `json:"gross_revenue,omitempty"`
	NetRevenue          *decimal.Decimal `json:"net_revenue,omitempty"`
	TotalDiscountAmount *decimal.Decimal `json:"total_discount_amount,omitempty"`
	DiscountPercent     *decimal.Decimal `json:"discount_percent,omitempty"`
	Profit              *decimal.Decimal `json:"profit,omitempty"`
}

// InvoiceLineItem is one billed line of an invoice. LineID is the sequence
// number assigned by the extraction collaborator; ordering of line items in
// an invoice is the extraction order and is stable.
type InvoiceLineItem struct {
	LineID             int              `json:"line_id"`
	CampaignName       string           `json:"campaign_name,omitempty"`
	Placement          string           `json:"placement,omitempty"`
	StartDate          string           `json:"start_date,omitempty"`
	EndDate            string           `json:"end_date,omitempty"`
	PlannedImpressions *decimal.Decimal `json:"planned_impressions,omitempty"`
	BilledImpressions  *decimal.Decimal `json:"billed_impressions,omitempty"`
	Views              *decimal.Decimal `json:"views,omitempty"`
	Clicks             *decimal.Decimal `json:"clicks,omitempty"`
	GrossRevenue       *decimal.Decimal `json:"gross_revenue,omitempty"`
	NetRevenue         *decimal.Decimal `json:"net_revenue,omitempty"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount,omitempty"`
	DiscountPercent    *decimal.Decimal `json:"discount_percent,omitempty"`
	Profit             *decimal.Decimal `json:"profit,omitempty"`
	RateType           string           `json:"rate_type,omitempty"`
	Rate               *decimal.Decimal `json:"rate,omitempty"`
}

// HasIdentity reports whether the line carries at least one identity-bearing
// field. Lines without any identity cannot be matched and degrade to
// unmatched rather than failing the run.
func (li *InvoiceLineItem) HasIdentity() bool {
	return strings.TrimSpace(li.CampaignName) != "" || strings.TrimSpace(li.Placement) != ""
}

// String returns a short description of the line item
func (li *InvoiceLineItem) String() string {
	return fmt.Sprintf("InvoiceLineItem{ID: %d, Campaign: %q, Placement: %q}",
		li.LineID, li.CampaignName, li.Placement)
}

// InvoiceData is the canonical structure the extraction collaborator hands
// to the core: header, line items and free-text notes.
type InvoiceData struct {
	Header    InvoiceHeader     `json:"invoice_header"`
	LineItems []InvoiceLineItem `json:"line_items"`
	Notes     string            `json:"notes,omitempty"`
}

// Validate performs structural validation on the invoice data. An empty
// line item list is valid input; it yields an empty-but-valid result.
func (inv *InvoiceData) Validate() error {
	seen := make(map[int]bool, len(inv.LineItems))
	for i := range inv.LineItems {
		id := inv.LineItems[i].LineID
		if seen[id] {
			return fmt.Errorf("duplicate line_id %d in invoice", id)
		}
		seen[id] = true
	}
	return nil
}

// PlannedLine is one internally authorized delivery line from a mapping
// file. It shares the semantic field set of InvoiceLineItem plus the source
// file it was loaded from; it is the ground truth invoices are checked
// against.
type PlannedLine struct {
	LineID             int              `json:"line_id"`
	SourceFile         string           `json:"source_file"`
	CampaignName       string           `json:"campaign_name,omitempty"`
	Placement          string           `json:"placement,omitempty"`
	StartDate          string           `json:"start_date,omitempty"`
	EndDate            string           `json:"end_date,omitempty"`
	PlannedImpressions *decimal.Decimal `json:"planned_impressions,omitempty"`
	BilledImpressions  *decimal.Decimal `json:"billed_impressions,omitempty"`
	Views              *decimal.Decimal `json:"views,omitempty"`
	Clicks             *decimal.Decimal `json:"clicks,omitempty"`
	GrossRevenue       *decimal.Decimal `json:"gross_revenue,omitempty"`
	NetRevenue         *decimal.Decimal `json:"net_revenue,omitempty"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount,omitempty"`
	DiscountPercent    *decimal.Decimal `json:"discount_percent,omitempty"`
	Profit             *decimal.Decimal `json:"profit,omitempty"`
	RateType           string           `json:"rate_type,omitempty"`
	Rate               *decimal.Decimal `json:"rate,omitempty"`
}

// Key returns the globally unique identity of a planned line across all
// mapping files, used by the one-to-one claim resolution.
func (pl *PlannedLine) Key() string {
	return fmt.Sprintf("%s#%d", pl.SourceFile, pl.LineID)
}

// HasIdentity reports whether the planned line carries an identity field
func (pl *PlannedLine) HasIdentity() bool {
	return strings.TrimSpace(pl.CampaignName) != "" || strings.TrimSpace(pl.Placement) != ""
}

// MappingFile is one internally authored record of planned campaign
// delivery, parsed from the mapping-file collaborator's folder.
type MappingFile struct {
	SourceFile   string        `json:"source_file"`
	Vendor       string        `json:"vendor,omitempty"`
	CampaignName string        `json:"campaign_name,omitempty"`
	Lines        []PlannedLine `json:"lines"`
}

// SeverityBreakdown counts discrepancies per severity level. A struct is
// used rather than a map so that JSON output is deterministic.
type SeverityBreakdown struct {
	Critical int `json:"CRITICAL"`
	High     int `json:"HIGH"`
	Medium   int `json:"MEDIUM"`
	Low      int `json:"LOW"`
}

// Add increments the count for the given severity
func (sb *SeverityBreakdown) Add(s Severity) {
	switch s {
	case SeverityCritical:
		sb.Critical++
	case SeverityHigh:
		sb.High++
	case SeverityMedium:
		sb.Medium++
	case SeverityLow:
		sb.Low++
	}
}

// Merge folds another breakdown into this one element-wise
func (sb *SeverityBreakdown) Merge(other SeverityBreakdown) {
	sb.Critical += other.Critical
	sb.High += other.High
	sb.Medium += other.Medium
	sb.Low += other.Low
}

// Total returns the sum of all severity counts
func (sb SeverityBreakdown) Total() int {
	return sb.Critical + sb.High + sb.Medium + sb.Low
}

// Count returns the count for one severity level
func (sb SeverityBreakdown) Count(s Severity) int {
	switch s {
	case SeverityCritical:
		return sb.Critical
	case SeverityHigh:
		return sb.High
	case SeverityMedium:
		return sb.Medium
	case SeverityLow:
		return sb.Low
	default:
		return 0
	}
}

// TrustScore is the invoice-scoped quality metric summarizing match
// completeness and discrepancy severity. It is recomputed fresh on every
// reconciliation run and never mutated in place. ReportID identifies this
// reconciliation report in vendor history folds.
type TrustScore struct {
	ReportID           string            `json:"report_id"`
	Score              float64           `json:"score"`
	Level              TrustLevel        `json:"level"`
	SeverityBreakdown  SeverityBreakdown `json:"severity_breakdown"`
	TotalDiscrepancies int               `json:"total_discrepancies"`
	SuccessfulMatches  int               `json:"successful_matches"`
	TotalItems         int               `json:"total_items"`
	MatchRate          float64           `json:"match_rate"`
}

// String returns a short description of the trust score
func (ts *TrustScore) String() string {
	return fmt.Sprintf("TrustScore{Score: %.2f, Level: %s, MatchRate: %.2f%%, Discrepancies: %d}",
		ts.Score, ts.Level, ts.MatchRate, ts.TotalDiscrepancies)
}

// VendorScore is the longitudinal aggregate of trust scores for one vendor
// across many reconciliations. It is produced by a pure fold over a history
// snapshot; lifecycle and storage belong to the caller.
type VendorScore struct {
	VendorID           string            `json:"vendor_id"`
	Score              float64           `json:"score"`
	Grade              VendorGrade       `json:"grade"`
	TotalDiscrepancies int               `json:"total_discrepancies"`
	ReportsAnalyzed    int               `json:"reports_analyzed"`
	SeverityBreakdown  SeverityBreakdown `json:"severity_breakdown"`
}

// String returns a short description of the vendor score
func (vs *VendorScore) String() string {
	return fmt.Sprintf("VendorScore{Vendor: %s, Score: %.2f, Grade: %s, Reports: %d}",
		vs.VendorID, vs.Score, vs.Grade, vs.ReportsAnalyzed)
}

// ParseDecimalFromString parses a decimal value from a string, tolerating
// currency symbols and thousand separators commonly present in extracted
// invoice data.
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseDateWithFormats attempts to parse a calendar date using the formats
// commonly produced by extraction and mapping tooling.
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"01/02/2006",
		"02-01-2006",
		"2006/01/02",
		"Jan 2, 2006",
		"January 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// DecimalPtr returns a pointer to the given decimal, a convenience for
// building optional invoice fields.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// DecimalFromFloatPtr builds an optional decimal field from a float64
func DecimalFromFloatPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}
