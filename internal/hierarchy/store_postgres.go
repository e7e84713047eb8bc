package hierarchy

import (
	"context"
	"database/sql"
	"fmt"

	"canvass/internal/voter/models"
)

// PostgresDirectory resolves placement from the org_users table. This store
// is pure I/O; interpretation of missing rows belongs to the rule engine.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) Resolve(ctx context.Context, userID string) (*Entry, error) {
	query := `
		SELECT user_id, role, COALESCE(area_manager_id, ''), COALESCE(city_id, ''), COALESCE(activist_coordinator_id, '')
		FROM org_users
		WHERE user_id = $1
	`
	var e Entry
	var role string
	err := d.db.QueryRowContext(ctx, query, userID).Scan(
		&e.UserID, &role, &e.AreaManagerID, &e.CityID, &e.ActivistCoordinatorID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve org user: %w", err)
	}
	e.Role = models.Role(role)
	return &e, nil
}
