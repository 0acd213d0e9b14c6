// Package config builds engine and reporter configurations from CLI input
package config

import (
	"fmt"

	"invoice-reconciliation-service/internal/matcher"
	"invoice-reconciliation-service/internal/reporter"
)

// CreateMatchingConfig builds a matching configuration from a named profile
// and CLI overrides. A negative override means the flag was not set and the
// profile value stands.
func CreateMatchingConfig(profile string, stringThreshold, numberTolerance float64, maxConcurrency int) (*matcher.MatchingConfig, error) {
	var cfg *matcher.MatchingConfig
	switch profile {
	case "", "default":
		cfg = matcher.DefaultMatchingConfig()
	case "strict":
		cfg = matcher.StrictMatchingConfig()
	case "relaxed":
		cfg = matcher.RelaxedMatchingConfig()
	default:
		return nil, fmt.Errorf("unknown matching profile '%s'. Valid profiles: default, strict, relaxed", profile)
	}

	if stringThreshold >= 0 {
		cfg.StringThreshold = stringThreshold
	}
	if numberTolerance >= 0 {
		cfg.NumberTolerancePercent = numberTolerance
	}
	if maxConcurrency > 0 {
		cfg.MaxConcurrentMappingFiles = maxConcurrency
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}
	return cfg, nil
}

// CreateReportConfig builds a report configuration for the requested format
func CreateReportConfig(format string) (*reporter.ReportConfig, error) {
	cfg := reporter.DefaultReportConfig()
	cfg.Format = reporter.OutputFormat(format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
