// Package reporter renders reconciliation results for people and machines.
//
// Supported output formats:
//   - Console: human-readable summary and discrepancy table for review
//   - JSON: the full result structure for programmatic consumption
//   - CSV: severity-ranked discrepancy rows for spreadsheet triage
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"invoice-reconciliation-service/internal/reconciler"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	IncludeUnmatched bool `json:"include_unmatched"`
	IncludeWarnings  bool `json:"include_warnings"`

	// CSV options
	CSVHeaders bool `json:"csv_headers"`
}

// DefaultReportConfig returns the standard report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:           FormatConsole,
		IncludeUnmatched: true,
		IncludeWarnings:  true,
		CSVHeaders:       true,
	}
}

// Validate checks the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator renders reconciliation results in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator with the given configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport writes the result to the writer in the configured format
func (rg *ReportGenerator) GenerateReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	switch rg.config.Format {
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return rg.generateConsoleReport(result, writer)
	}
}

func (rg *ReportGenerator) generateConsoleReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	fmt.Fprintln(writer, "=== Invoice Reconciliation Report ===")
	fmt.Fprintln(writer)

	fmt.Fprintln(writer, "Summary:")
	fmt.Fprintf(writer, "  Line items:     %d\n", result.Summary.TotalLineItems)
	fmt.Fprintf(writer, "  Matched:        %d\n", result.Summary.FuzzyMatches)
	fmt.Fprintf(writer, "  Unmatched:      %d\n", result.Summary.Unmatched)
	fmt.Fprintf(writer, "  Discrepancies:  %d\n", result.Summary.Discrepancies)
	fmt.Fprintf(writer, "  Mapping files:  %d\n", result.MappingFilesCount)
	fmt.Fprintln(writer)

	if ts := result.TrustScore; ts != nil {
		fmt.Fprintln(writer, "Trust Score:")
		fmt.Fprintf(writer, "  Score:       %.2f (%s)\n", ts.Score, ts.Level)
		fmt.Fprintf(writer, "  Match rate:  %.2f%%\n", ts.MatchRate)
		fmt.Fprintf(writer, "  Breakdown:   %d critical, %d high, %d medium, %d low\n",
			ts.SeverityBreakdown.Critical, ts.SeverityBreakdown.High,
			ts.SeverityBreakdown.Medium, ts.SeverityBreakdown.Low)
		fmt.Fprintln(writer)
	}

	if vs := result.VendorScore; vs != nil {
		fmt.Fprintln(writer, "Vendor Score:")
		fmt.Fprintf(writer, "  Vendor:   %s\n", vs.VendorID)
		fmt.Fprintf(writer, "  Score:    %.2f (grade %s)\n", vs.Score, vs.Grade)
		fmt.Fprintf(writer, "  Reports:  %d\n", vs.ReportsAnalyzed)
		fmt.Fprintln(writer)
	}

	if len(result.DiscrepancyReport) > 0 {
		fmt.Fprintf(writer, "Discrepancies (%d, most severe first):\n", len(result.DiscrepancyReport))
		for _, row := range result.DiscrepancyReport {
			fmt.Fprintf(writer, "  [%s] %s line %d, %s: billed %s, planned %s%s\n",
				row.Severity, row.Campaign, row.InvoiceLineID, row.Field,
				row.ExtractedValue, row.PlannedValue, formatPercent(row.DifferencePercent))
		}
		fmt.Fprintln(writer)
	}

	if rg.config.IncludeUnmatched && len(result.Unmatched) > 0 {
		fmt.Fprintf(writer, "Unmatched line items (%d):\n", len(result.Unmatched))
		for _, u := range result.Unmatched {
			fmt.Fprintf(writer, "  line %d: %s / %s\n", u.LineID, orDash(u.CampaignName), orDash(u.Placement))
		}
		fmt.Fprintln(writer)
	}

	if rg.config.IncludeWarnings && len(result.Warnings) > 0 {
		fmt.Fprintf(writer, "Warnings (%d):\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Fprintf(writer, "  %s\n", w)
		}
	}

	return nil
}

func (rg *ReportGenerator) generateJSONReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func (rg *ReportGenerator) generateCSVReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	w := csv.NewWriter(writer)
	defer w.Flush()

	if rg.config.CSVHeaders {
		header := []string{
			"Mapping File", "Campaign", "Invoice Line ID", "Planned Line ID",
			"Field", "Extracted Value", "Expected Value",
			"Difference", "Difference %", "Severity",
		}
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, row := range result.DiscrepancyReport {
		difference := ""
		if row.Difference != nil {
			difference = row.Difference.String()
		}
		percent := ""
		if row.DifferencePercent != nil {
			percent = strconv.FormatFloat(*row.DifferencePercent, 'f', 2, 64)
		}

		record := []string{
			row.MappingFile,
			row.Campaign,
			strconv.Itoa(row.InvoiceLineID),
			strconv.Itoa(row.PlannedLineID),
			row.Field,
			row.ExtractedValue,
			row.PlannedValue,
			difference,
			percent,
			row.Severity.String(),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func formatPercent(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf(" (%+.2f%%)", *p)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
