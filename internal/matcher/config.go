// Package matcher implements the invoice line matching engine and the
// field-level comparison pipeline built on top of it.
//
// The engine pairs extracted invoice line items against planned line items
// from internally authored mapping files, handling the realities of
// vendor-submitted data:
//   - Campaign and placement names that almost but not quite agree
//   - Delivery and revenue figures inside a negotiable tolerance
//   - Multiple mapping files competing for the same invoice
//   - Lines with no counterpart at all
//
// Matching proceeds in stages:
//  1. Candidate scoring: string similarity on identity fields combined
//     with numeric proximity on delivery and revenue figures
//  2. Eligibility gating on the identity similarity threshold
//  3. Global one-to-one claim resolution, greedy by overall score
//  4. Field comparison and severity classification per accepted match
//
// Example usage:
//
//	config := matcher.DefaultMatchingConfig()
//	config.StringThreshold = 0.85
//	config.NumberTolerancePercent = 2.5
//
//	engine := matcher.NewEngine(config)
//	matches, unmatched, err := engine.Match(ctx, invoice.LineItems, mappingFiles)
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchingConfig holds every tunable of the matching and comparison
// pipeline. Nothing in the engine reads configuration from anywhere else,
// so tests and callers can inject alternatives per run.
//
// Use the factory functions for common postures:
//   - DefaultMatchingConfig(): the negotiated defaults for vendor invoices
//   - StrictMatchingConfig(): tight thresholds for high-value campaigns
//   - RelaxedMatchingConfig(): loose thresholds for exploratory review
type MatchingConfig struct {
	// StringThreshold is the minimum normalized string similarity on the
	// identity fields (campaign, placement) for a planned line to be an
	// eligible match candidate (0.0 to 1.0)
	StringThreshold float64 `json:"string_threshold"`

	// NumberTolerancePercent is the percentage deviation within which two
	// numeric values are treated as matching (0.0 to 100.0). A deviation
	// exactly at the tolerance is still a match.
	NumberTolerancePercent float64 `json:"number_tolerance_percent"`

	// MaxConcurrentMappingFiles bounds the parallel fan-out when scoring
	// candidates across mapping files
	MaxConcurrentMappingFiles int `json:"max_concurrent_mapping_files"`

	// Weights balance string similarity against numeric proximity in the
	// overall candidate score
	Weights MatchingWeights `json:"weights"`

	// Severity is the classification policy applied to discrepancies
	Severity *SeverityPolicy `json:"severity"`
}

// MatchingWeights defines the relative contribution of the similarity
// components to the overall candidate score
type MatchingWeights struct {
	StringWeight  float64 `json:"string_weight"`
	NumericWeight float64 `json:"numeric_weight"`
}

// DefaultMatchingConfig returns the standard configuration for vendor
// invoice reconciliation
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		StringThreshold:           0.8,
		NumberTolerancePercent:    5.0,
		MaxConcurrentMappingFiles: 4,
		Weights: MatchingWeights{
			StringWeight:  0.6,
			NumericWeight: 0.4,
		},
		Severity: DefaultSeverityPolicy(),
	}
}

// StrictMatchingConfig returns a configuration for high-value campaigns
// where near-misses must surface for review
func StrictMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		StringThreshold:           0.92,
		NumberTolerancePercent:    1.0,
		MaxConcurrentMappingFiles: 4,
		Weights: MatchingWeights{
			StringWeight:  0.7,
			NumericWeight: 0.3,
		},
		Severity: StrictSeverityPolicy(),
	}
}

// RelaxedMatchingConfig returns a configuration for exploratory matching
// against messy or partially extracted invoices
func RelaxedMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		StringThreshold:           0.65,
		NumberTolerancePercent:    10.0,
		MaxConcurrentMappingFiles: 8,
		Weights: MatchingWeights{
			StringWeight:  0.5,
			NumericWeight: 0.5,
		},
		Severity: DefaultSeverityPolicy(),
	}
}

// Validate checks that the matching configuration is usable. It is called
// at the reconciliation boundary before any matching runs.
func (mc *MatchingConfig) Validate() error {
	if mc.StringThreshold < 0.0 || mc.StringThreshold > 1.0 {
		return fmt.Errorf("string threshold must be between 0.0 and 1.0: %f", mc.StringThreshold)
	}

	if mc.NumberTolerancePercent < 0.0 || mc.NumberTolerancePercent > 100.0 {
		return fmt.Errorf("number tolerance percent must be between 0.0 and 100.0: %f", mc.NumberTolerancePercent)
	}

	if mc.MaxConcurrentMappingFiles <= 0 {
		return fmt.Errorf("max concurrent mapping files must be positive: %d", mc.MaxConcurrentMappingFiles)
	}

	if err := mc.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}

	if mc.Severity == nil {
		return fmt.Errorf("severity policy is required")
	}

	if err := mc.Severity.Validate(); err != nil {
		return fmt.Errorf("invalid severity policy: %w", err)
	}

	return nil
}

// Validate checks that the matching weights are valid
func (mw *MatchingWeights) Validate() error {
	if mw.StringWeight < 0.0 || mw.StringWeight > 1.0 {
		return fmt.Errorf("string weight must be between 0.0 and 1.0: %f", mw.StringWeight)
	}

	if mw.NumericWeight < 0.0 || mw.NumericWeight > 1.0 {
		return fmt.Errorf("numeric weight must be between 0.0 and 1.0: %f", mw.NumericWeight)
	}

	total := mw.StringWeight + mw.NumericWeight
	if total < 0.9 || total > 1.1 {
		return fmt.Errorf("weights should sum to approximately 1.0, got %f", total)
	}

	return nil
}

// Clone creates a deep copy of the matching configuration
func (mc *MatchingConfig) Clone() *MatchingConfig {
	if mc == nil {
		return nil
	}

	clone := &MatchingConfig{
		StringThreshold:           mc.StringThreshold,
		NumberTolerancePercent:    mc.NumberTolerancePercent,
		MaxConcurrentMappingFiles: mc.MaxConcurrentMappingFiles,
		Weights:                   mc.Weights,
	}
	if mc.Severity != nil {
		clone.Severity = mc.Severity.Clone()
	}
	return clone
}

// WithinTolerance reports whether the deviation between an extracted and a
// planned value sits inside the configured percentage tolerance. The
// deviation is measured against the planned value, so a nonzero extracted
// value against a zero plan is never within tolerance. The boundary itself
// is inside: a deviation exactly at the tolerance matches.
func (mc *MatchingConfig) WithinTolerance(extracted, planned decimal.Decimal) bool {
	diff := extracted.Sub(planned).Abs()
	if diff.IsZero() {
		return true
	}
	if planned.IsZero() {
		return false
	}

	tolerance := decimal.NewFromFloat(mc.NumberTolerancePercent)
	percent := diff.Div(planned.Abs()).Mul(decimal.NewFromInt(100))
	return percent.LessThanOrEqual(tolerance)
}

// String returns a human-readable description of the configuration
func (mc *MatchingConfig) String() string {
	return fmt.Sprintf("MatchingConfig{StringThreshold: %.2f, NumberTolerance: %.2f%%, Weights: %.2f/%.2f}",
		mc.StringThreshold, mc.NumberTolerancePercent, mc.Weights.StringWeight, mc.Weights.NumericWeight)
}
