package config

import (
	"testing"

	"invoice-reconciliation-service/internal/reporter"
)

func TestCreateMatchingConfigProfiles(t *testing.T) {
	cfg, err := CreateMatchingConfig("default", -1, -1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StringThreshold != 0.8 {
		t.Errorf("default threshold = %f, want 0.8", cfg.StringThreshold)
	}

	cfg, err = CreateMatchingConfig("strict", -1, -1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StringThreshold <= 0.8 {
		t.Errorf("strict threshold = %f, want above 0.8", cfg.StringThreshold)
	}

	if _, err := CreateMatchingConfig("lenient", -1, -1, 0); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestCreateMatchingConfigOverrides(t *testing.T) {
	cfg, err := CreateMatchingConfig("default", 0.85, 2.5, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StringThreshold != 0.85 {
		t.Errorf("threshold override not applied: %f", cfg.StringThreshold)
	}
	if cfg.NumberTolerancePercent != 2.5 {
		t.Errorf("tolerance override not applied: %f", cfg.NumberTolerancePercent)
	}
	if cfg.MaxConcurrentMappingFiles != 8 {
		t.Errorf("concurrency override not applied: %d", cfg.MaxConcurrentMappingFiles)
	}

	// Out-of-range overrides are rejected by validation
	if _, err := CreateMatchingConfig("default", 2.0, -1, 0); err == nil {
		t.Error("expected error for threshold above 1.0")
	}
}

func TestCreateReportConfig(t *testing.T) {
	cfg, err := CreateReportConfig("json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Format != reporter.FormatJSON {
		t.Errorf("format = %s, want json", cfg.Format)
	}

	if _, err := CreateReportConfig("xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
