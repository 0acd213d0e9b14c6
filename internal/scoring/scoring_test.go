package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-reconciliation-service/internal/models"
	apperrors "invoice-reconciliation-service/pkg/errors"
)

func TestPenaltyWeightsValidate(t *testing.T) {
	assert.NoError(t, DefaultPenaltyWeights().Validate())

	bad := DefaultPenaltyWeights()
	bad.Low = -1
	assert.Error(t, bad.Validate())

	bad = DefaultPenaltyWeights()
	bad.Medium = 10 // medium above high
	assert.Error(t, bad.Validate())
}

func TestTrustScorePerfectInvoice(t *testing.T) {
	calc := NewTrustCalculator(DefaultPenaltyWeights())

	ts := calc.Calculate("r-perfect", 10, 10, models.SeverityBreakdown{})

	assert.Equal(t, 100.0, ts.Score)
	assert.Equal(t, models.TrustExcellent, ts.Level)
	assert.Equal(t, 100.0, ts.MatchRate)
	assert.Equal(t, 0, ts.TotalDiscrepancies)
	assert.Equal(t, "r-perfect", ts.ReportID)
}

func TestTrustScoreEmptyInvoice(t *testing.T) {
	calc := NewTrustCalculator(DefaultPenaltyWeights())

	ts := calc.Calculate("r-empty", 0, 0, models.SeverityBreakdown{})

	assert.Equal(t, 0.0, ts.Score)
	assert.Equal(t, 0.0, ts.MatchRate)
	assert.Equal(t, models.TrustCritical, ts.Level)
}

func TestTrustScorePenalties(t *testing.T) {
	calc := NewTrustCalculator(DefaultPenaltyWeights())

	// Nine of ten lines matched with one HIGH discrepancy:
	// 90.0 match rate minus a 4.0 penalty
	ts := calc.Calculate("r-penalty", 10, 9, models.SeverityBreakdown{High: 1})

	assert.Equal(t, 90.0, ts.MatchRate)
	assert.Equal(t, 86.0, ts.Score)
	assert.Equal(t, models.TrustGood, ts.Level)
	assert.Equal(t, 1, ts.TotalDiscrepancies)
	assert.Equal(t, 9, ts.SuccessfulMatches)
	assert.Equal(t, 10, ts.TotalItems)
}

func TestTrustScoreClampsAtZero(t *testing.T) {
	calc := NewTrustCalculator(DefaultPenaltyWeights())

	ts := calc.Calculate("r-clamp", 10, 5, models.SeverityBreakdown{Critical: 20})

	assert.Equal(t, 0.0, ts.Score)
	assert.Equal(t, models.TrustCritical, ts.Level)
}

func TestTrustScoreSeverityMonotonicity(t *testing.T) {
	calc := NewTrustCalculator(DefaultPenaltyWeights())

	low := calc.Calculate("r-low", 10, 9, models.SeverityBreakdown{Low: 1})
	medium := calc.Calculate("r-medium", 10, 9, models.SeverityBreakdown{Medium: 1})
	high := calc.Calculate("r-high", 10, 9, models.SeverityBreakdown{High: 1})
	critical := calc.Calculate("r-critical", 10, 9, models.SeverityBreakdown{Critical: 1})

	assert.Greater(t, low.Score, medium.Score)
	assert.Greater(t, medium.Score, high.Score)
	assert.Greater(t, high.Score, critical.Score)
}

func TestLevelForScoreBands(t *testing.T) {
	tests := []struct {
		score float64
		want  models.TrustLevel
	}{
		{100, models.TrustExcellent},
		{90, models.TrustExcellent},
		{89.99, models.TrustGood},
		{75, models.TrustGood},
		{60, models.TrustFair},
		{40, models.TrustPoor},
		{39.99, models.TrustCritical},
		{0, models.TrustCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForScore(tt.score), "score %.2f", tt.score)
	}
}

func TestNewReportIDDeterministic(t *testing.T) {
	a := NewReportID("INV-2031", "acme-media", "cfg", "10/9/1")
	b := NewReportID("INV-2031", "acme-media", "cfg", "10/9/1")
	assert.Equal(t, a, b)

	other := NewReportID("INV-2032", "acme-media", "cfg", "10/9/1")
	assert.NotEqual(t, a, other)
}

func TestNewReportIDPartBoundaries(t *testing.T) {
	// Joining parts must not let adjacent values bleed into each other
	a := NewReportID("INV-20", "31")
	b := NewReportID("INV-203", "1")
	assert.NotEqual(t, a, b)
}

func historyScores(scores ...float64) []models.TrustScore {
	history := make([]models.TrustScore, 0, len(scores))
	for i, s := range scores {
		history = append(history, models.TrustScore{
			ReportID: string(rune('a' + i)),
			Score:    s,
		})
	}
	return history
}

func TestVendorScoreFold(t *testing.T) {
	agg := NewVendorAggregator()

	history := historyScores(95, 88, 40)
	newScore := &models.TrustScore{ReportID: "new-report", Score: 92}

	vs, err := agg.Update("acme-media", newScore, history)
	require.NoError(t, err)

	assert.Equal(t, "acme-media", vs.VendorID)
	assert.Equal(t, 78.75, vs.Score)
	assert.Equal(t, 4, vs.ReportsAnalyzed)
	assert.Equal(t, models.GradeB, vs.Grade)
}

func TestVendorScoreEmptyHistory(t *testing.T) {
	agg := NewVendorAggregator()

	newScore := &models.TrustScore{ReportID: "first", Score: 85}
	vs, err := agg.Update("acme-media", newScore, nil)
	require.NoError(t, err)

	assert.Equal(t, 85.0, vs.Score)
	assert.Equal(t, 1, vs.ReportsAnalyzed)
}

func TestVendorScoreDuplicateReportConflict(t *testing.T) {
	agg := NewVendorAggregator()

	history := []models.TrustScore{
		{ReportID: "r1", Score: 90},
	}
	duplicate := &models.TrustScore{ReportID: "r1", Score: 92}

	_, err := agg.Update("acme-media", duplicate, history)
	require.Error(t, err)
	assert.True(t, apperrors.IsAggregationConflict(err))
}

func TestVendorScoreDuplicateInHistoryConflict(t *testing.T) {
	agg := NewVendorAggregator()

	history := []models.TrustScore{
		{ReportID: "r1", Score: 90},
		{ReportID: "r1", Score: 80},
	}
	newScore := &models.TrustScore{ReportID: "r2", Score: 92}

	_, err := agg.Update("acme-media", newScore, history)
	require.Error(t, err)
	assert.True(t, apperrors.IsAggregationConflict(err))
}

func TestVendorScoreEmptyVendorID(t *testing.T) {
	agg := NewVendorAggregator()

	_, err := agg.Update("  ", &models.TrustScore{ReportID: "r1"}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryAggregation))
}

func TestVendorScoreCumulativeBreakdown(t *testing.T) {
	agg := NewVendorAggregator()

	history := []models.TrustScore{
		{
			ReportID:           "r1",
			Score:              80,
			TotalDiscrepancies: 3,
			SeverityBreakdown:  models.SeverityBreakdown{High: 1, Low: 2},
		},
	}
	newScore := &models.TrustScore{
		ReportID:           "r2",
		Score:              70,
		TotalDiscrepancies: 2,
		SeverityBreakdown:  models.SeverityBreakdown{Critical: 1, Medium: 1},
	}

	vs, err := agg.Update("acme-media", newScore, history)
	require.NoError(t, err)

	assert.Equal(t, 5, vs.TotalDiscrepancies)
	assert.Equal(t, models.SeverityBreakdown{Critical: 1, High: 1, Medium: 1, Low: 2}, vs.SeverityBreakdown)
	assert.Equal(t, 75.0, vs.Score)
}

func TestGradeForScoreBands(t *testing.T) {
	tests := []struct {
		score float64
		want  models.VendorGrade
	}{
		{95, models.GradeA},
		{90, models.GradeA},
		{78.75, models.GradeB},
		{65, models.GradeC},
		{45, models.GradeD},
		{10, models.GradeF},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeForScore(tt.score), "score %.2f", tt.score)
	}
}
