package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hromada-tools/backoffice/internal/domain"
)

type CommunityRepository struct {
	db *pgxpool.Pool
}

func NewCommunityRepository(db *pgxpool.Pool) *CommunityRepository {
	return &CommunityRepository{db: db}
}

// FindByName retrieves the reference settings of a community.
func (r *CommunityRepository) FindByName(ctx context.Context, name string) (*domain.CommunitySettings, error) {
	query := `
		SELECT id, community_name, city_name, territory_title
		FROM config.community_settings
		WHERE community_name = $1
		LIMIT 1
	`

	var settings domain.CommunitySettings
	err := r.db.QueryRow(ctx, query, name).Scan(
		&settings.ID,
		&settings.CommunityName,
		&settings.CityName,
		&settings.TerritoryTitle,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCommunityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find community: %w", err)
	}

	return &settings, nil
}

// List returns all known communities ordered by name.
func (r *CommunityRepository) List(ctx context.Context) ([]domain.CommunitySettings, error) {
	query := `
		SELECT id, community_name, city_name, territory_title
		FROM config.community_settings
		ORDER BY community_name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}
	defer rows.Close()

	var communities []domain.CommunitySettings
	for rows.Next() {
		var settings domain.CommunitySettings
		if err := rows.Scan(
			&settings.ID,
			&settings.CommunityName,
			&settings.CityName,
			&settings.TerritoryTitle,
		); err != nil {
			return nil, fmt.Errorf("failed to scan community: %w", err)
		}
		communities = append(communities, settings)
	}

	return communities, rows.Err()
}
