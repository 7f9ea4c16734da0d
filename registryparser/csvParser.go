package registryparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/eskulia/eskulia-api/common"
	"github.com/eskulia/eskulia-api/logging"
	"github.com/eskulia/eskulia-api/registryparser/entities"
)

// parseCSV maps the report onto medicines. Rows without an identifier or a name
// are skipped; for duplicate identifiers the first row wins.
func parseCSV(r io.Reader, delimiter rune) ([]entities.Medicine, *entities.DataQualityReport, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: report has no header row", common.ErrEmptyDataset)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	bindings, missing := bindHeader(header)
	report := &entities.DataQualityReport{MissingColumns: missing}
	for _, b := range bindings {
		if b.index < 0 {
			logging.Warn("Registry report column missing, values left empty",
				"field", b.field, "required", b.required)
		}
	}

	seen := make(map[string]struct{})
	var medicines []entities.Medicine

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report.TotalRows++
				report.SkippedRows++
				logging.Debug("Skipping malformed registry row", "line", parseErr.Line, "error", parseErr.Err)
				continue
			}
			return nil, nil, fmt.Errorf("read report: %w", err)
		}
		report.TotalRows++

		var m entities.Medicine
		for _, b := range bindings {
			if b.index >= 0 && b.index < len(record) {
				b.set(&m, strings.TrimSpace(record[b.index]))
			}
		}

		if m.Identifier == "" || m.Name == "" {
			report.SkippedRows++
			continue
		}
		if _, dup := seen[m.Identifier]; dup {
			report.SkippedRows++
			report.DuplicateIdentifiers = append(report.DuplicateIdentifiers, m.Identifier)
			continue
		}
		seen[m.Identifier] = struct{}{}

		m.Packages = entities.SplitPackaging(m.Packaging)
		if len(m.Packages) == 0 {
			report.RecordsWithoutPackaging++
		}
		medicines = append(medicines, m)
	}

	report.ImportedRecords = len(medicines)
	if len(medicines) == 0 {
		return nil, report, fmt.Errorf("%w: %d rows read, none usable", common.ErrEmptyDataset, report.TotalRows)
	}
	return medicines, report, nil
}
