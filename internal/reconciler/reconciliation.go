// Package reconciler orchestrates a full reconciliation run: matching,
// field comparison, severity classification, trust scoring and the vendor
// history fold, producing one immutable result per invoice.
package reconciler

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"invoice-reconciliation-service/internal/matcher"
	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/internal/scoring"
	apperrors "invoice-reconciliation-service/pkg/errors"
	"invoice-reconciliation-service/pkg/logger"
)

// Summary provides aggregate statistics about one reconciliation run.
// FuzzyMatches plus Unmatched always equals TotalLineItems.
type Summary struct {
	TotalLineItems int `json:"total_line_items"`
	FuzzyMatches   int `json:"fuzzy_matches"`
	Discrepancies  int `json:"discrepancies"`
	Unmatched      int `json:"unmatched"`
}

// ReportRow is one discrepancy in the flat report, carrying enough context
// to trace it back to both source documents
type ReportRow struct {
	MappingFile       string           `json:"mapping_file"`
	Campaign          string           `json:"campaign"`
	InvoiceLineID     int              `json:"invoice_line_id"`
	PlannedLineID     int              `json:"planned_line_id"`
	Field             string           `json:"field"`
	ExtractedValue    string           `json:"extracted_value"`
	PlannedValue      string           `json:"planned_value"`
	Difference        *decimal.Decimal `json:"difference,omitempty"`
	DifferencePercent *float64         `json:"difference_percent,omitempty"`
	Severity          models.Severity  `json:"severity"`
}

// ReconciliationResult is the complete outcome of one run. It is built
// fresh every time and never mutated afterwards.
type ReconciliationResult struct {
	Summary           Summary              `json:"summary"`
	DiscrepancyReport []ReportRow          `json:"discrepancy_report"`
	TrustScore        *models.TrustScore   `json:"trust_score"`
	VendorScore       *models.VendorScore  `json:"vendor_score,omitempty"`
	MappingFilesCount int                  `json:"mapping_files_count"`
	Unmatched         []UnmatchedLine      `json:"unmatched_lines,omitempty"`
	Warnings          []string             `json:"warnings,omitempty"`
}

// UnmatchedLine identifies an invoice line that claimed no planned line
type UnmatchedLine struct {
	LineID       int    `json:"line_id"`
	CampaignName string `json:"campaign_name,omitempty"`
	Placement    string `json:"placement,omitempty"`
}

// Service runs reconciliations. It is safe for concurrent use; all mutable
// state lives in the per-run stack.
type Service struct {
	config    *matcher.MatchingConfig
	penalties scoring.PenaltyWeights
	engine    *matcher.Engine
	trust     *scoring.TrustCalculator
	vendor    *scoring.VendorAggregator
	logger    logger.Logger
}

// NewService creates a reconciliation service. A nil matching configuration
// falls back to the defaults; the configuration is validated on the first
// Reconcile call, not here, so construction never fails.
func NewService(config *matcher.MatchingConfig, penalties scoring.PenaltyWeights) *Service {
	if config == nil {
		config = matcher.DefaultMatchingConfig()
	}
	return &Service{
		config:    config,
		penalties: penalties,
		engine:    matcher.NewEngine(config),
		trust:     scoring.NewTrustCalculator(penalties),
		vendor:    scoring.NewVendorAggregator(),
		logger:    logger.WithComponent("reconciler"),
	}
}

// Reconcile runs the full pipeline for one invoice against a set of
// mapping files and the vendor's trust score history.
//
// The history snapshot is only consulted when the invoice names a vendor;
// the vendor score is then the fold of the history plus this run's trust
// score. Cancelling the context abandons the run with an error and no
// partial result.
func (s *Service) Reconcile(ctx context.Context, invoice *models.InvoiceData, mappingFiles []models.MappingFile, history []models.TrustScore) (*ReconciliationResult, error) {
	if err := s.config.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "matching", s.config.String(), err)
	}
	if invoice == nil {
		return nil, apperrors.ValidationError(apperrors.CodeMissingField, "invoice", nil, nil)
	}
	if err := invoice.Validate(); err != nil {
		return nil, apperrors.ValidationError(apperrors.CodeDuplicateLineID, "invoice", invoice.Header.InvoiceNumber, err)
	}

	s.logger.WithFields(logger.Fields{
		"invoice":       invoice.Header.InvoiceNumber,
		"vendor":        invoice.Header.VendorName,
		"line_items":    len(invoice.LineItems),
		"mapping_files": len(mappingFiles),
	}).Info("Starting reconciliation")

	matches, unmatched, err := s.engine.Match(ctx, invoice.LineItems, mappingFiles)
	if err != nil {
		return nil, apperrors.ReconciliationError(apperrors.CodeRunCancelled, "matching", err)
	}

	var rows []ReportRow
	var warnings []string
	var breakdown models.SeverityBreakdown

	for i := range matches {
		m := &matches[i]
		items, compWarnings := s.engine.CompareFields(m.InvoiceLine, m.PlannedLine)
		items = s.engine.Classify(items)

		for _, w := range compWarnings {
			warnings = append(warnings, fmt.Sprintf("line %d, field %s: %s", m.InvoiceLine.LineID, w.Field, w.Reason))
		}

		for _, item := range items {
			breakdown.Add(item.Severity)
			rows = append(rows, ReportRow{
				MappingFile:       m.MappingFile,
				Campaign:          m.Campaign,
				InvoiceLineID:     m.InvoiceLine.LineID,
				PlannedLineID:     m.PlannedLine.LineID,
				Field:             item.Field,
				ExtractedValue:    item.ExtractedValue,
				PlannedValue:      item.PlannedValue,
				Difference:        item.Difference,
				DifferencePercent: item.DifferencePercent,
				Severity:          item.Severity,
			})
		}
	}

	sortReport(rows)

	reportID := scoring.NewReportID(
		invoice.Header.InvoiceNumber,
		invoice.Header.VendorName,
		s.config.String(),
		fmt.Sprintf("%d/%d/%d", len(invoice.LineItems), len(matches), breakdown.Total()),
	)
	trust := s.trust.Calculate(reportID, len(invoice.LineItems), len(matches), breakdown)

	result := &ReconciliationResult{
		Summary: Summary{
			TotalLineItems: len(invoice.LineItems),
			FuzzyMatches:   len(matches),
			Discrepancies:  breakdown.Total(),
			Unmatched:      len(unmatched),
		},
		DiscrepancyReport: rows,
		TrustScore:        trust,
		MappingFilesCount: len(mappingFiles),
		Warnings:          warnings,
	}

	for _, u := range unmatched {
		result.Unmatched = append(result.Unmatched, UnmatchedLine{
			LineID:       u.LineID,
			CampaignName: u.CampaignName,
			Placement:    u.Placement,
		})
	}

	if vendorID := invoice.Header.VendorName; vendorID != "" {
		vendorScore, err := s.vendor.Update(vendorID, trust, history)
		if err != nil {
			return nil, err
		}
		result.VendorScore = vendorScore
	}

	s.logger.WithFields(logger.Fields{
		"matches":       result.Summary.FuzzyMatches,
		"unmatched":     result.Summary.Unmatched,
		"discrepancies": result.Summary.Discrepancies,
		"trust_score":   trust.Score,
		"trust_level":   trust.Level,
	}).Info("Reconciliation complete")

	return result, nil
}

// sortReport orders discrepancy rows most severe first, with deterministic
// tie-breaks so reruns produce byte-identical reports
func sortReport(rows []ReportRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.MappingFile != b.MappingFile {
			return a.MappingFile < b.MappingFile
		}
		if a.InvoiceLineID != b.InvoiceLineID {
			return a.InvoiceLineID < b.InvoiceLineID
		}
		return a.Field < b.Field
	})
}
