package scoring

import (
	"strings"

	"invoice-reconciliation-service/internal/models"
	apperrors "invoice-reconciliation-service/pkg/errors"
)

// VendorAggregator folds trust scores into a longitudinal vendor score.
// The fold is pure: the caller supplies the full history snapshot and owns
// its storage; nothing is accumulated inside the aggregator.
type VendorAggregator struct{}

// NewVendorAggregator creates a vendor score aggregator
func NewVendorAggregator() *VendorAggregator {
	return &VendorAggregator{}
}

// Update folds a new trust score into the vendor's history and returns the
// resulting vendor score. The vendor score is the simple arithmetic mean of
// all trust scores; recency weighting is deliberately not applied.
//
// The new report's id must not already appear in the history. A duplicate
// is an aggregation conflict and returns an error rather than silently
// double counting the report.
func (va *VendorAggregator) Update(vendorID string, newScore *models.TrustScore, history []models.TrustScore) (*models.VendorScore, error) {
	if strings.TrimSpace(vendorID) == "" {
		return nil, apperrors.New(apperrors.CategoryAggregation, apperrors.CodeEmptyVendorID,
			"vendor id cannot be empty")
	}

	seen := make(map[string]bool, len(history)+1)
	for i := range history {
		if id := history[i].ReportID; id != "" {
			if seen[id] {
				return nil, apperrors.AggregationConflictError(vendorID, id)
			}
			seen[id] = true
		}
	}
	if newScore.ReportID != "" && seen[newScore.ReportID] {
		return nil, apperrors.AggregationConflictError(vendorID, newScore.ReportID)
	}

	var totalScore float64
	var totalDiscrepancies int
	var breakdown models.SeverityBreakdown

	for i := range history {
		totalScore += history[i].Score
		totalDiscrepancies += history[i].TotalDiscrepancies
		breakdown.Merge(history[i].SeverityBreakdown)
	}
	totalScore += newScore.Score
	totalDiscrepancies += newScore.TotalDiscrepancies
	breakdown.Merge(newScore.SeverityBreakdown)

	reports := len(history) + 1
	mean := totalScore / float64(reports)

	return &models.VendorScore{
		VendorID:           vendorID,
		Score:              mean,
		Grade:              GradeForScore(mean),
		TotalDiscrepancies: totalDiscrepancies,
		ReportsAnalyzed:    reports,
		SeverityBreakdown:  breakdown,
	}, nil
}

// Summarize folds an existing history snapshot into a vendor score without
// adding a new report. Used for read-only views over stored history; the
// same duplicate check applies.
func (va *VendorAggregator) Summarize(vendorID string, history []models.TrustScore) (*models.VendorScore, error) {
	if strings.TrimSpace(vendorID) == "" {
		return nil, apperrors.New(apperrors.CategoryAggregation, apperrors.CodeEmptyVendorID,
			"vendor id cannot be empty")
	}
	if len(history) == 0 {
		return nil, apperrors.New(apperrors.CategoryAggregation, apperrors.CodeEmptyHistory,
			"cannot summarize an empty history").
			WithSuggestion("run at least one reconciliation for this vendor first").
			WithContext("vendor_id", vendorID)
	}

	last := history[len(history)-1]
	return va.Update(vendorID, &last, history[:len(history)-1])
}

// GradeForScore maps a vendor score to its display letter grade, using the
// same bands as the trust levels
func GradeForScore(score float64) models.VendorGrade {
	switch {
	case score >= 90:
		return models.GradeA
	case score >= 75:
		return models.GradeB
	case score >= 60:
		return models.GradeC
	case score >= 40:
		return models.GradeD
	default:
		return models.GradeF
	}
}
