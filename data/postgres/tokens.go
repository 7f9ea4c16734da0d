package postgres

import (
	"context"
	"fmt"

	"github.com/eskulia/eskulia-api/common"
	"github.com/eskulia/eskulia-api/registryparser/entities"
)

const tokenColumns = "id, owner_id, token, platform, active, created_at, updated_at"

// UpsertToken registers token for ownerID; an existing row is updated and reactivated.
func (s *Store) UpsertToken(ctx context.Context, ownerID int64, token string, platform entities.Platform) (entities.DeviceToken, error) {
	query := `INSERT INTO ` + s.tokens + ` (owner_id, token, platform, active) VALUES ($1, $2, $3, TRUE)` +
		` ON CONFLICT (owner_id, token) DO UPDATE SET platform = EXCLUDED.platform, active = TRUE, updated_at = now()` +
		` RETURNING ` + tokenColumns

	var t entities.DeviceToken
	var p string
	err := s.db.QueryRowContext(ctx, query, ownerID, token, string(platform)).
		Scan(&t.ID, &t.OwnerID, &t.Token, &p, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return entities.DeviceToken{}, fmt.Errorf("db error: %w", err)
	}
	t.Platform = entities.Platform(p)
	return t, nil
}

// DeactivateToken soft-deletes a token; only the owner's active row qualifies.
func (s *Store) DeactivateToken(ctx context.Context, ownerID int64, token string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+s.tokens+` SET active = FALSE, updated_at = now() WHERE owner_id = $1 AND token = $2 AND active`,
		ownerID, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("device token: %w", common.ErrNotFound)
	}
	return nil
}

// ActiveTokens lists active tokens of the owners, ordered by owner then id.
// The ids travel as one bigint[] parameter.
func (s *Store) ActiveTokens(ctx context.Context, ownerIDs []int64) ([]entities.DeviceToken, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + tokenColumns + ` FROM ` + s.tokens +
		` WHERE active AND owner_id = ANY($1) ORDER BY owner_id, id`
	rows, err := s.db.QueryContext(ctx, query, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []entities.DeviceToken
	for rows.Next() {
		var t entities.DeviceToken
		var p string
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Token, &p, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		t.Platform = entities.Platform(p)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
