package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-reconciliation-service/internal/matcher"
	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/internal/scoring"
	apperrors "invoice-reconciliation-service/pkg/errors"
)

func dec(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

// tenLineInvoice builds the canonical review scenario: ten lines, nine with
// a planned counterpart, one of the nine carrying a 12% revenue overage,
// and one line with no counterpart at all.
func tenLineInvoice() (*models.InvoiceData, []models.MappingFile) {
	invoice := &models.InvoiceData{
		Header: models.InvoiceHeader{
			InvoiceNumber: "INV-2031",
			VendorName:    "acme-media",
		},
	}

	var planned []models.PlannedLine
	for i := 1; i <= 10; i++ {
		campaign := fmt.Sprintf("Campaign %02d", i)
		line := models.InvoiceLineItem{
			LineID:            i,
			CampaignName:      campaign,
			Placement:         "Homepage Banner",
			BilledImpressions: dec("10000"),
			GrossRevenue:      dec("500"),
		}
		if i == 5 {
			// 12% over the planned 500
			line.GrossRevenue = dec("560")
		}
		if i == 10 {
			line.CampaignName = "Mystery Campaign With No Plan"
		}
		invoice.LineItems = append(invoice.LineItems, line)

		if i < 10 {
			planned = append(planned, models.PlannedLine{
				LineID:            i,
				SourceFile:        "q3_plan.json",
				CampaignName:      campaign,
				Placement:         "Homepage Banner",
				BilledImpressions: dec("10000"),
				GrossRevenue:      dec("500"),
			})
		}
	}

	files := []models.MappingFile{
		{SourceFile: "q3_plan.json", Lines: planned},
	}
	return invoice, files
}

func TestReconcileTenLineScenario(t *testing.T) {
	svc := NewService(matcher.DefaultMatchingConfig(), scoring.DefaultPenaltyWeights())
	invoice, files := tenLineInvoice()

	result, err := svc.Reconcile(context.Background(), invoice, files, nil)
	require.NoError(t, err)

	assert.Equal(t, 10, result.Summary.TotalLineItems)
	assert.Equal(t, 9, result.Summary.FuzzyMatches)
	assert.Equal(t, 1, result.Summary.Discrepancies)
	assert.Equal(t, 1, result.Summary.Unmatched)
	assert.Equal(t, 1, result.MappingFilesCount)

	require.Len(t, result.DiscrepancyReport, 1)
	row := result.DiscrepancyReport[0]
	assert.Equal(t, matcher.FieldGrossRevenue, row.Field)
	assert.Equal(t, 5, row.InvoiceLineID)
	assert.Equal(t, models.SeverityHigh, row.Severity)
	require.NotNil(t, row.DifferencePercent)
	assert.InDelta(t, 12.0, *row.DifferencePercent, 0.0001)

	require.NotNil(t, result.TrustScore)
	assert.Equal(t, 90.0, result.TrustScore.MatchRate)
	assert.Equal(t, 86.0, result.TrustScore.Score)

	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, 10, result.Unmatched[0].LineID)
}

func TestReconcileConservation(t *testing.T) {
	svc := NewService(matcher.DefaultMatchingConfig(), scoring.DefaultPenaltyWeights())
	invoice, files := tenLineInvoice()

	result, err := svc.Reconcile(context.Background(), invoice, files, nil)
	require.NoError(t, err)

	// Every line item is either matched or unmatched, never both or neither
	assert.Equal(t, result.Summary.TotalLineItems, result.Summary.FuzzyMatches+result.Summary.Unmatched)

	// The severity breakdown accounts for every discrepancy
	assert.Equal(t, result.Summary.Discrepancies, result.TrustScore.SeverityBreakdown.Total())
	assert.Equal(t, result.Summary.Discrepancies, len(result.DiscrepancyReport))
}

func TestReconcileDeterminism(t *testing.T) {
	svc := NewService(matcher.DefaultMatchingConfig(), scoring.DefaultPenaltyWeights())
	invoice, files := tenLineInvoice()

	first, err := svc.Reconcile(context.Background(), invoice, files, nil)
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for run := 0; run < 10; run++ {
		result, err := svc.Reconcile(context.Background(), invoice, files, nil)
		require.NoError(t, err)

		// The whole serialized result, report id included, must not vary
		// between identical runs
		resultJSON, err := json.Marshal(result)
		require.NoError(t, err)
		assert.Equal(t, string(firstJSON), string(resultJSON))
	}
}

func TestReconcileReportIDVariesWithInvoice(t *testing.T) {
	svc := NewService(matcher.DefaultMatchingConfig(), scoring.DefaultPenaltyWeights())
	invoice, files := tenLineInvoice()

	first, err := svc.Reconcile(context.Background(), invoice, files, nil)
	require.NoError(t, err)

	invoice.Header.InvoiceNumber = "INV-2032"
	second, err := svc.Reconcile(context.Background(), invoice, files, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.TrustScore.ReportID, second.TrustScore.ReportID)
}

func TestReconcileEmptyInvoice(t *testing.T) {
	svc := NewService(matcher.DefaultMatchingConfig(), scoring.DefaultPenaltyWeights())

	invoice := &models.InvoiceData{
		Header: models.InvoiceHeader{InvoiceNumber: "INV-0"},
	}

	result, err := svc.Reconcile(context.Background(), invoice, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, Summary{}, result.Summary)
	assert.Empty(t, result.DiscrepancyReport)
	assert.Equal(t, 0.0, result.TrustScore.Score)
	assert.Equal(t, models.TrustCritical, result.TrustScore.Level)
}

func TestReconcileInvalidConfigRejected(t *testing.T) {
	cfg := matcher.DefaultMatchingConfig()
	cfg.StringThreshold = 7.0
	svc := NewService(cfg, scoring.DefaultPenaltyWeights())

	invoice, files := tenLineInvoice()
	_, err := svc.Reconcile(context.Background(), invoice, files, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfiguration))
}

func TestReconcileDuplicateLineIDRejected(t *testing.T) {
	svc := NewService(matcher.DefaultMatchingConfig(), scoring.DefaultPenaltyWeights())

	invoice := &models.InvoiceData{
		LineItems: []models.InvoiceLineItem{
			{LineID: 1, CampaignName: "A"},
			{LineID: 1, CampaignName: "B"},
		},
	}

	_, err := svc.Reconcile(context.Background(), invoice, nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
}

func TestReconcileCancelledContext(t *testing.T) {
	svc := NewService(matcher.DefaultMatchingConfig(), scoring.DefaultPenaltyWeights())
	invoice, files := tenLineInvoice()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Reconcile(ctx, invoice, files, nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryReconciliation))
}

func TestReconcileVendorScoreFold(t *testing.T) {
	svc := NewService(matcher.DefaultMatchingConfig(), scoring.DefaultPenaltyWeights())
	invoice, files := tenLineInvoice()

	history := []models.TrustScore{
		{ReportID: "r1", Score: 95},
		{ReportID: "r2", Score: 88},
	}

	result, err := svc.Reconcile(context.Background(), invoice, files, history)
	require.NoError(t, err)

	require.NotNil(t, result.VendorScore)
	assert.Equal(t, "acme-media", result.VendorScore.VendorID)
	assert.Equal(t, 3, result.VendorScore.ReportsAnalyzed)
	// (95 + 88 + 86) / 3
	assert.InDelta(t, 89.6667, result.VendorScore.Score, 0.001)
}

func TestReconcileNoVendorNoVendorScore(t *testing.T) {
	svc := NewService(matcher.DefaultMatchingConfig(), scoring.DefaultPenaltyWeights())
	invoice, files := tenLineInvoice()
	invoice.Header.VendorName = ""

	result, err := svc.Reconcile(context.Background(), invoice, files, nil)
	require.NoError(t, err)
	assert.Nil(t, result.VendorScore)
}

func TestReconcileReportSeveritySorted(t *testing.T) {
	svc := NewService(matcher.DefaultMatchingConfig(), scoring.DefaultPenaltyWeights())

	invoice := &models.InvoiceData{
		Header: models.InvoiceHeader{InvoiceNumber: "INV-7"},
		LineItems: []models.InvoiceLineItem{
			{
				LineID:            1,
				CampaignName:      "Spring Push",
				BilledImpressions: dec("10700"), // 7% over: MEDIUM
				GrossRevenue:      dec("650"),   // 30% over: CRITICAL
			},
		},
	}
	files := []models.MappingFile{
		{
			SourceFile: "plan.json",
			Lines: []models.PlannedLine{
				{
					LineID:            1,
					SourceFile:        "plan.json",
					CampaignName:      "Spring Push",
					BilledImpressions: dec("10000"),
					GrossRevenue:      dec("500"),
				},
			},
		},
	}

	result, err := svc.Reconcile(context.Background(), invoice, files, nil)
	require.NoError(t, err)

	require.Len(t, result.DiscrepancyReport, 2)
	assert.Equal(t, models.SeverityCritical, result.DiscrepancyReport[0].Severity)
	assert.Equal(t, matcher.FieldGrossRevenue, result.DiscrepancyReport[0].Field)
	assert.Equal(t, models.SeverityMedium, result.DiscrepancyReport[1].Severity)
}
