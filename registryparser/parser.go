package registryparser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/eskulia/eskulia-api/interfaces"
	"github.com/eskulia/eskulia-api/logging"
	"github.com/eskulia/eskulia-api/registryparser/entities"
)

// Compile-time check to ensure RegistryParser implements Parser interface
var _ interfaces.Parser = (*RegistryParser)(nil)

// RegistryParser implements the Parser interface against the CSV report endpoint.
type RegistryParser struct {
	url       string
	delimiter rune
	client    *http.Client
}

// NewRegistryParser creates a parser for the report at url. The timeout bounds the whole download.
func NewRegistryParser(url string, delimiter rune, timeout time.Duration) *RegistryParser {
	return &RegistryParser{
		url:       url,
		delimiter: delimiter,
		client:    &http.Client{Timeout: timeout},
	}
}

// ParseAllMedicines downloads, decodes and parses the report.
func (p *RegistryParser) ParseAllMedicines(ctx context.Context) ([]entities.Medicine, *entities.DataQualityReport, error) {
	start := time.Now()

	body, err := download(ctx, p.client, p.url)
	if err != nil {
		return nil, nil, err
	}

	reader, err := decode(body)
	if err != nil {
		return nil, nil, err
	}

	medicines, report, err := parseCSV(reader, p.delimiter)
	if err != nil {
		return nil, report, fmt.Errorf("parse registry report: %w", err)
	}

	logging.Info("Registry report parsed",
		"records", report.ImportedRecords,
		"total_rows", report.TotalRows,
		"skipped_rows", report.SkippedRows,
		"duplicates", len(report.DuplicateIdentifiers),
		"missing_columns", report.MissingColumns,
		"without_packaging", report.RecordsWithoutPackaging,
		"duration", time.Since(start))

	return medicines, report, nil
}
