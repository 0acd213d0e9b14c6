package matcher

import (
	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/internal/normalize"
)

// StringSimilarity returns the similarity of two strings in [0, 1] as one
// minus the edit distance normalized by the longer string's length. Both
// inputs are canonicalized first, so case, spacing and punctuation noise
// do not count against the score. An absent value on either side scores 0:
// a missing identity can never support a match.
func StringSimilarity(a, b string) float64 {
	na, nb := normalize.String(a), normalize.String(b)
	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(na, nb)
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}

	return 1.0 - float64(distance)/float64(longest)
}

// NumericProximity returns the closeness of two numeric values in [0, 1],
// where 1 is equality and 0 is a deviation of 100% or more of the larger
// magnitude. Two zeros are equal.
func NumericProximity(a, b decimal.Decimal) float64 {
	diff := a.Sub(b).Abs()
	if diff.IsZero() {
		return 1.0
	}

	base := decimal.Max(a.Abs(), b.Abs())
	if base.IsZero() {
		return 1.0
	}

	ratio, _ := diff.Div(base).Float64()
	if ratio > 1.0 {
		return 0.0
	}
	return 1.0 - ratio
}

// identitySimilarity combines campaign and placement similarity for an
// invoice line against a planned line. Only fields present on both sides
// participate; with no comparable identity field the pair scores 0 and is
// never eligible.
func identitySimilarity(inv *models.InvoiceLineItem, planned *models.PlannedLine) float64 {
	var total float64
	var fields int

	if normalize.String(inv.CampaignName) != "" && normalize.String(planned.CampaignName) != "" {
		total += StringSimilarity(inv.CampaignName, planned.CampaignName)
		fields++
	}
	if normalize.String(inv.Placement) != "" && normalize.String(planned.Placement) != "" {
		total += StringSimilarity(inv.Placement, planned.Placement)
		fields++
	}

	if fields == 0 {
		return 0.0
	}
	return total / float64(fields)
}

// numericSimilarity combines proximity of the ranking numerics, billed
// impressions and gross revenue. Pairs with a missing side are skipped;
// with no comparable pair the component scores 0 so that candidates backed
// by agreeing numbers always outrank bare name matches.
func numericSimilarity(inv *models.InvoiceLineItem, planned *models.PlannedLine) float64 {
	var total float64
	var fields int

	if inv.BilledImpressions != nil && planned.BilledImpressions != nil {
		total += NumericProximity(*inv.BilledImpressions, *planned.BilledImpressions)
		fields++
	}
	if inv.GrossRevenue != nil && planned.GrossRevenue != nil {
		total += NumericProximity(*inv.GrossRevenue, *planned.GrossRevenue)
		fields++
	}

	if fields == 0 {
		return 0.0
	}
	return total / float64(fields)
}
