package matcher

import (
	"github.com/shopspring/decimal"

	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/internal/normalize"
)

// Reconcilable field names as they appear in discrepancy reports
const (
	FieldCampaignName       = "campaign_name"
	FieldPlacement          = "placement"
	FieldPlannedImpressions = "planned_impressions"
	FieldBilledImpressions  = "billed_impressions"
	FieldViews              = "views"
	FieldClicks             = "clicks"
	FieldGrossRevenue       = "gross_revenue"
	FieldNetRevenue         = "net_revenue"
	FieldDiscountAmount     = "discount_amount"
	FieldDiscountPercent    = "discount_percent"
	FieldRate               = "rate"
	FieldRateType           = "rate_type"
)

// DiscrepancyItem is one field-level deviation between an invoice line and
// its matched planned line. Difference and DifferencePercent are nil for
// non-numeric fields; DifferencePercent is additionally nil when the
// planned value is zero, in which case the absolute difference alone drove
// the severity.
type DiscrepancyItem struct {
	Field             string           `json:"field"`
	ExtractedValue    string           `json:"extracted_value"`
	PlannedValue      string           `json:"planned_value"`
	Difference        *decimal.Decimal `json:"difference,omitempty"`
	DifferencePercent *float64         `json:"difference_percent,omitempty"`
	Severity          models.Severity  `json:"severity"`
}

// ComparisonWarning records a field that could not be compared because one
// side was missing or failed normalization. Warnings are informational and
// never count as discrepancies.
type ComparisonWarning struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// numericField pairs a field name with its value on each side of a match
type numericField struct {
	name      string
	extracted *decimal.Decimal
	planned   *decimal.Decimal
}

// CompareFields compares every reconcilable field of a matched pair and
// returns the deviations that exceed tolerance, without severities
// assigned, plus warnings for fields that could not be compared. A
// deviation exactly at the tolerance is treated as a match.
func (e *Engine) CompareFields(inv *models.InvoiceLineItem, planned *models.PlannedLine) ([]DiscrepancyItem, []ComparisonWarning) {
	var items []DiscrepancyItem
	var warnings []ComparisonWarning

	fields := []numericField{
		{FieldPlannedImpressions, inv.PlannedImpressions, planned.PlannedImpressions},
		{FieldBilledImpressions, inv.BilledImpressions, planned.BilledImpressions},
		{FieldViews, inv.Views, planned.Views},
		{FieldClicks, inv.Clicks, planned.Clicks},
		{FieldGrossRevenue, inv.GrossRevenue, planned.GrossRevenue},
		{FieldNetRevenue, inv.NetRevenue, planned.NetRevenue},
		{FieldDiscountAmount, inv.DiscountAmount, planned.DiscountAmount},
		{FieldDiscountPercent, inv.DiscountPercent, planned.DiscountPercent},
		{FieldRate, inv.Rate, planned.Rate},
	}

	for _, f := range fields {
		if f.extracted == nil || f.planned == nil {
			// Absent on one side only is worth flagging; absent on both
			// sides is simply a field the invoice does not carry.
			if f.extracted != nil || f.planned != nil {
				warnings = append(warnings, ComparisonWarning{
					Field:  f.name,
					Reason: "value missing on one side, cannot compare",
				})
			}
			continue
		}

		if item, ok := e.compareNumeric(f.name, *f.extracted, *f.planned); ok {
			items = append(items, item)
		}
	}

	if item, ok := compareText(FieldRateType, inv.RateType, planned.RateType); ok {
		items = append(items, item)
	}

	return items, warnings
}

// compareNumeric evaluates one numeric field pair against the tolerance.
// The second return value is false when the pair is within tolerance.
func (e *Engine) compareNumeric(field string, extracted, planned decimal.Decimal) (DiscrepancyItem, bool) {
	if e.Config.WithinTolerance(extracted, planned) {
		return DiscrepancyItem{}, false
	}

	difference := extracted.Sub(planned)
	item := DiscrepancyItem{
		Field:          field,
		ExtractedValue: extracted.String(),
		PlannedValue:   planned.String(),
		Difference:     models.DecimalPtr(difference),
	}

	if planned.IsZero() {
		// No percentage exists against a zero plan; any billed value is a
		// deviation and the absolute difference drives severity.
		return item, true
	}

	percent, _ := difference.Div(planned).Mul(decimal.NewFromInt(100)).Float64()
	item.DifferencePercent = &percent
	return item, true
}

// compareText evaluates a string field pair after normalization. Absent
// values on either side are skipped, never discrepancies.
func compareText(field, extracted, planned string) (DiscrepancyItem, bool) {
	ne, np := normalize.String(extracted), normalize.String(planned)
	if ne == "" || np == "" || ne == np {
		return DiscrepancyItem{}, false
	}

	return DiscrepancyItem{
		Field:          field,
		ExtractedValue: ne,
		PlannedValue:   np,
	}, true
}

// Classify assigns severities to a set of deviations using the configured
// policy. Numeric deviations with a percentage classify on the percentage
// bands; zero-plan deviations classify on absolute bands; string
// mismatches use the identity floor.
func (e *Engine) Classify(items []DiscrepancyItem) []DiscrepancyItem {
	policy := e.Config.Severity
	for i := range items {
		switch {
		case items[i].DifferencePercent != nil:
			items[i].Severity = policy.ClassifyPercent(items[i].Field, *items[i].DifferencePercent)
		case items[i].Difference != nil:
			items[i].Severity = policy.ClassifyAbsolute(items[i].Field, *items[i].Difference)
		default:
			items[i].Severity = policy.ClassifyStringMismatch(items[i].Field)
		}
	}
	return items
}
