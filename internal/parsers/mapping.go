package parsers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"invoice-reconciliation-service/internal/models"
	apperrors "invoice-reconciliation-service/pkg/errors"
	"invoice-reconciliation-service/pkg/logger"
)

// mappingFileDocument is the on-disk shape of one mapping file
type mappingFileDocument struct {
	Vendor       string               `json:"vendor,omitempty"`
	CampaignName string               `json:"campaign_name,omitempty"`
	LineItems    []models.PlannedLine `json:"line_items"`
}

// LoadMappingFiles reads every JSON mapping file in a folder. Each loaded
// record is tagged with its source file name. Files that cannot be read or
// parsed are skipped with a warning; an empty folder yields an empty slice
// and no error. Results are ordered by file name so the caller's view of
// the folder is stable.
func LoadMappingFiles(dir string) ([]models.MappingFile, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apperrors.FileError(apperrors.CodeFileNotFound, dir, err)
		}
		return nil, nil, apperrors.FileError(apperrors.CodeDirectoryError, dir, err)
	}

	log := logger.WithComponent("parsers")

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var files []models.MappingFile
	var warnings []string

	for _, name := range names {
		path := filepath.Join(dir, name)

		mf, err := loadMappingFile(path, name)
		if err != nil {
			log.WithError(err).WithField("file", name).Warn("Skipping unreadable mapping file")
			warnings = append(warnings, fmt.Sprintf("skipped mapping file %s: %v", name, err))
			continue
		}

		files = append(files, *mf)
	}

	return files, warnings, nil
}

func loadMappingFile(path, name string) (*models.MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.FileError(apperrors.CodeFilePermission, path, err)
	}

	var doc mappingFileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, path, err)
	}

	mf := &models.MappingFile{
		SourceFile:   name,
		Vendor:       doc.Vendor,
		CampaignName: doc.CampaignName,
		Lines:        doc.LineItems,
	}
	for i := range mf.Lines {
		mf.Lines[i].SourceFile = name
	}

	return mf, nil
}
