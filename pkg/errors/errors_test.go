package errors

import (
	"fmt"
	"testing"
)

func TestReconcilerErrorMessage(t *testing.T) {
	err := New(CategoryValidation, CodeMissingField, "required field missing: vendor")
	if err.Error() != "required field missing: vendor" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	err = err.WithSuggestion("provide the vendor name")
	if err.Error() != "required field missing: vendor (suggestion: provide the vendor name)" {
		t.Errorf("suggestion not included: %s", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := Wrap(cause, CategoryParse, CodeInvalidFormat, "invalid format in file x.json")

	if err.Unwrap() != cause {
		t.Error("wrapped error must expose its cause")
	}
	if Wrap(nil, CategoryParse, CodeInvalidFormat, "msg") != nil {
		t.Error("wrapping nil must return nil")
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryReconciliation, 5},
		{CategoryInternal, 5},
		{CategoryAggregation, 6},
	}

	for _, tt := range tests {
		err := New(tt.category, CodeUnexpectedError, "x")
		if got := err.GetExitCode(); got != tt.want {
			t.Errorf("exit code for %s = %d, want %d", tt.category, got, tt.want)
		}
	}
}

func TestAsReconcilerError(t *testing.T) {
	inner := AggregationConflictError("acme-media", "r1")
	wrapped := fmt.Errorf("fold failed: %w", inner)

	re, ok := AsReconcilerError(wrapped)
	if !ok {
		t.Fatal("expected to find ReconcilerError in chain")
	}
	if re.Code != CodeDuplicateReport {
		t.Errorf("code = %s, want %s", re.Code, CodeDuplicateReport)
	}

	if _, ok := AsReconcilerError(fmt.Errorf("plain")); ok {
		t.Error("plain error must not convert")
	}
}

func TestIsAggregationConflict(t *testing.T) {
	conflict := AggregationConflictError("acme-media", "r1")
	if !IsAggregationConflict(conflict) {
		t.Error("conflict error must be recognized")
	}
	if conflict.Context["vendor_id"] != "acme-media" || conflict.Context["report_id"] != "r1" {
		t.Errorf("context not populated: %v", conflict.Context)
	}

	other := New(CategoryAggregation, CodeEmptyVendorID, "x")
	if IsAggregationConflict(other) {
		t.Error("other aggregation errors are not conflicts")
	}
}

func TestIsCategory(t *testing.T) {
	err := FileError(CodeFileNotFound, "/tmp/missing.json", nil)
	if !IsCategory(err, CategoryFile) {
		t.Error("expected file category")
	}
	if IsCategory(err, CategoryParse) {
		t.Error("wrong category must not match")
	}
	if IsCategory(nil, CategoryFile) {
		t.Error("nil is never a category match")
	}
}
