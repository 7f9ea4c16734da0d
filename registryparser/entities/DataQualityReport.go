package entities

// DataQualityReport summarises what the importer had to drop or default.
type DataQualityReport struct {
	TotalRows               int      `json:"total_rows"`
	ImportedRecords         int      `json:"imported_records"`
	SkippedRows             int      `json:"skipped_rows"`
	DuplicateIdentifiers    []string `json:"duplicate_identifiers"`
	MissingColumns          []string `json:"missing_columns"`
	RecordsWithoutPackaging int      `json:"records_without_packaging"`
}
