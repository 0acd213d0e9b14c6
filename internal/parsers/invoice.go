// Package parsers loads the canonical invoice JSON, folders of mapping
// files and vendor history snapshots from disk.
//
// The invoice loader is strict: a malformed invoice file fails the run.
// The mapping loader is tolerant: unreadable files in the folder are
// skipped with a warning, because one bad plan must not block
// reconciliation against the rest.
package parsers

import (
	"encoding/json"
	"os"

	"invoice-reconciliation-service/internal/models"
	apperrors "invoice-reconciliation-service/pkg/errors"
)

// LoadInvoice reads and validates a canonical invoice JSON file
func LoadInvoice(path string) (*models.InvoiceData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, apperrors.FileError(apperrors.CodeFilePermission, path, err)
		}
		return nil, apperrors.FileError(apperrors.CodeDirectoryError, path, err)
	}

	var invoice models.InvoiceData
	if err := json.Unmarshal(data, &invoice); err != nil {
		return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, path, err)
	}

	if err := invoice.Validate(); err != nil {
		return nil, apperrors.ValidationError(apperrors.CodeDuplicateLineID, path, invoice.Header.InvoiceNumber, err)
	}

	return &invoice, nil
}

// LoadVendorHistory reads a vendor's trust score history snapshot from a
// JSON file. An empty path means no history and is not an error.
func LoadVendorHistory(path string) ([]models.TrustScore, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
		}
		return nil, apperrors.FileError(apperrors.CodeDirectoryError, path, err)
	}

	var history []models.TrustScore
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, path, err)
	}

	return history, nil
}
