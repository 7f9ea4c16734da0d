package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/eskulia/eskulia-api/common"
	"github.com/eskulia/eskulia-api/interfaces"
	"github.com/eskulia/eskulia-api/registryparser/entities"
)

var (
	_ interfaces.MedicineStore = (*Store)(nil)
	_ interfaces.TokenStore    = (*Store)(nil)
)

const (
	medicineColumns = "identifier, name, common_name, preparation_type, administration_route, strength, " +
		"pharmaceutical_form, atc_code, responsible_entity, active_substance, packaging"
	medicineColumnCount = 11

	medicineBatchSize = 500
	packageBatchSize  = 2000
)

func medicineArgs(m entities.Medicine) []any {
	return []any{m.Identifier, m.Name, m.CommonName, m.PreparationType, m.AdministrationRoute, m.Strength,
		m.PharmaceuticalForm, m.AtcCode, m.ResponsibleEntity, m.ActiveSubstance, m.Packaging}
}

func scanMedicine(row interface{ Scan(...any) error }, m *entities.Medicine, extra ...any) error {
	dest := []any{&m.Identifier, &m.Name, &m.CommonName, &m.PreparationType, &m.AdministrationRoute, &m.Strength,
		&m.PharmaceuticalForm, &m.AtcCode, &m.ResponsibleEntity, &m.ActiveSubstance, &m.Packaging}
	return row.Scan(append(dest, extra...)...)
}

// valuesClause renders "($1,$2),($3,$4)" for rows x cols placeholders.
func valuesClause(rows, cols int) string {
	var b strings.Builder
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// ReplaceAll clears and reloads the registry in one transaction. A transaction
// scoped advisory lock keeps concurrent imports, including ones from other
// instances, from interleaving.
func (s *Store) ReplaceAll(ctx context.Context, medicines []entities.Medicine) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, s.importLock); err != nil {
		return fmt.Errorf("acquire import lock: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM `+s.packages); err != nil {
		return fmt.Errorf("clear packages: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM `+s.medicines); err != nil {
		return fmt.Errorf("clear medicines: %w", err)
	}

	for start := 0; start < len(medicines); start += medicineBatchSize {
		batch := medicines[start:min(start+medicineBatchSize, len(medicines))]
		args := make([]any, 0, len(batch)*medicineColumnCount)
		for _, m := range batch {
			args = append(args, medicineArgs(m)...)
		}
		query := `INSERT INTO ` + s.medicines + ` (` + medicineColumns + `) VALUES ` +
			valuesClause(len(batch), medicineColumnCount)
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert medicines at row %d: %w", start, err)
		}
	}

	var pending []any
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		query := `INSERT INTO ` + s.packages + ` (identifier, line, description) VALUES ` +
			valuesClause(len(pending)/3, 3)
		_, execErr := tx.ExecContext(ctx, query, pending...)
		pending = pending[:0]
		return execErr
	}
	for _, m := range medicines {
		packages := m.Packages
		if packages == nil {
			packages = entities.SplitPackaging(m.Packaging)
		}
		for _, p := range packages {
			pending = append(pending, m.Identifier, p.Line, p.Description)
			if len(pending) >= packageBatchSize*3 {
				if err = flush(); err != nil {
					return fmt.Errorf("insert packages: %w", err)
				}
			}
		}
	}
	if err = flush(); err != nil {
		return fmt.Errorf("insert packages: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// SearchByName ranks names with pg_trgm similarity; ties are broken by identifier.
// The % operator lets the planner use the GIN trigram index; similarity() is
// compared as real so a score equal to the threshold is excluded.
func (s *Store) SearchByName(ctx context.Context, name string, threshold float64) ([]entities.ScoredMedicine, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// is_local: the setting ends with the transaction
	if _, err := tx.ExecContext(ctx, `SELECT set_config('pg_trgm.similarity_threshold', $1, true)`,
		strconv.FormatFloat(threshold, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	query := `SELECT ` + medicineColumns + `, similarity(name, $1) AS score FROM ` + s.medicines +
		` WHERE name % $1 AND similarity(name, $1) > $2::real ORDER BY score DESC, identifier ASC`

	rows, err := tx.QueryContext(ctx, query, name, threshold)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var hits []entities.ScoredMedicine
	for rows.Next() {
		var hit entities.ScoredMedicine
		if err := scanMedicine(rows, &hit.Medicine, &hit.Similarity); err != nil {
			return nil, fmt.Errorf("scan medicine: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return hits, nil
}

// FindByBarcode looks the code up in the per-line packages table.
func (s *Store) FindByBarcode(ctx context.Context, barcode string) (entities.BarcodeMatch, error) {
	query := `SELECT m.name, m.common_name, m.strength, m.pharmaceutical_form, p.description, m.active_substance` +
		` FROM ` + s.packages + ` p JOIN ` + s.medicines + ` m ON m.identifier = p.identifier` +
		` WHERE strpos(p.description, $1) > 0 ORDER BY p.identifier ASC, p.line ASC LIMIT 1`

	var match entities.BarcodeMatch
	err := s.db.QueryRowContext(ctx, query, barcode).Scan(&match.Name, &match.CommonName, &match.Strength,
		&match.PharmaceuticalForm, &match.PackagingDetails, &match.ActiveSubstance)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.BarcodeMatch{}, fmt.Errorf("barcode %s: %w", barcode, common.ErrNotFound)
	}
	if err != nil {
		return entities.BarcodeMatch{}, fmt.Errorf("db error: %w", err)
	}
	return match, nil
}

func (s *Store) GetByIdentifier(ctx context.Context, identifier string) (entities.Medicine, error) {
	query := `SELECT ` + medicineColumns + ` FROM ` + s.medicines + ` WHERE identifier = $1`

	var m entities.Medicine
	err := scanMedicine(s.db.QueryRowContext(ctx, query, identifier), &m)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Medicine{}, fmt.Errorf("medicine %s: %w", identifier, common.ErrNotFound)
	}
	if err != nil {
		return entities.Medicine{}, fmt.Errorf("db error: %w", err)
	}
	m.Packages = entities.SplitPackaging(m.Packaging)
	return m, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM `+s.medicines).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
