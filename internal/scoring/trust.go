// Package scoring derives quality metrics from reconciliation outcomes:
// the per-invoice trust score and the longitudinal vendor score.
//
// Both calculators are pure. The trust score is recomputed fresh from one
// reconciliation run; the vendor score is a fold over an explicit history
// snapshot supplied by the caller. Nothing in this package holds state
// between calls.
package scoring

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"invoice-reconciliation-service/internal/models"
)

// reportNamespace scopes the name-based UUIDs used as report ids
var reportNamespace = uuid.MustParse("8a6bd7e2-5b3f-4f6e-9c1d-2e7a4f0b9d31")

// NewReportID derives a report id from the identifying parts of one
// reconciliation run. The same parts always yield the same id, so rerunning
// an identical reconciliation produces an identical result, and folding the
// rerun into a vendor history trips the duplicate check instead of double
// counting.
func NewReportID(parts ...string) string {
	return uuid.NewSHA1(reportNamespace, []byte(strings.Join(parts, "\x1f"))).String()
}

// PenaltyWeights holds the score deduction per discrepancy at each
// severity level
type PenaltyWeights struct {
	Critical float64 `json:"critical"`
	High     float64 `json:"high"`
	Medium   float64 `json:"medium"`
	Low      float64 `json:"low"`
}

// DefaultPenaltyWeights returns the standard per-discrepancy deductions
func DefaultPenaltyWeights() PenaltyWeights {
	return PenaltyWeights{
		Critical: 8.0,
		High:     4.0,
		Medium:   2.0,
		Low:      0.5,
	}
}

// Validate checks that the weights are non-negative and ordered by
// severity, so a more severe discrepancy never costs less
func (pw PenaltyWeights) Validate() error {
	if pw.Low < 0 {
		return fmt.Errorf("penalty weights cannot be negative: %f", pw.Low)
	}
	if pw.Critical < pw.High || pw.High < pw.Medium || pw.Medium < pw.Low {
		return fmt.Errorf("penalty weights must not increase with decreasing severity: %f/%f/%f/%f",
			pw.Critical, pw.High, pw.Medium, pw.Low)
	}
	return nil
}

// TrustCalculator computes invoice trust scores from match outcomes
type TrustCalculator struct {
	Weights PenaltyWeights
}

// NewTrustCalculator creates a trust calculator. Zero-valued weights fall
// back to the defaults.
func NewTrustCalculator(weights PenaltyWeights) *TrustCalculator {
	if weights == (PenaltyWeights{}) {
		weights = DefaultPenaltyWeights()
	}
	return &TrustCalculator{Weights: weights}
}

// Calculate derives the trust score for one reconciliation run. The score
// starts at the match rate and deducts a weighted penalty per discrepancy,
// clamped to [0, 100]. An invoice with no line items scores zero and is
// always CRITICAL. The caller supplies the report id; use NewReportID to
// derive one from the run's inputs.
func (tc *TrustCalculator) Calculate(reportID string, totalItems, successfulMatches int, breakdown models.SeverityBreakdown) *models.TrustScore {
	var matchRate float64
	if totalItems > 0 {
		matchRate = 100.0 * float64(successfulMatches) / float64(totalItems)
	}

	penalty := tc.Weights.Critical*float64(breakdown.Critical) +
		tc.Weights.High*float64(breakdown.High) +
		tc.Weights.Medium*float64(breakdown.Medium) +
		tc.Weights.Low*float64(breakdown.Low)

	score := matchRate - penalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return &models.TrustScore{
		ReportID:           reportID,
		Score:              score,
		Level:              LevelForScore(score),
		SeverityBreakdown:  breakdown,
		TotalDiscrepancies: breakdown.Total(),
		SuccessfulMatches:  successfulMatches,
		TotalItems:         totalItems,
		MatchRate:          matchRate,
	}
}

// LevelForScore maps a trust score to its qualitative level
func LevelForScore(score float64) models.TrustLevel {
	switch {
	case score >= 90:
		return models.TrustExcellent
	case score >= 75:
		return models.TrustGood
	case score >= 60:
		return models.TrustFair
	case score >= 40:
		return models.TrustPoor
	default:
		return models.TrustCritical
	}
}
