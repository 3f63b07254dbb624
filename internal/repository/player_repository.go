package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/prop-edge/internal/database"
	"github.com/yourusername/prop-edge/internal/models"
)

const errScanPlayer = "failed to scan player: %w"

// PostgresPlayerRepository implements PlayerRepository for PostgreSQL
type PostgresPlayerRepository struct {
	db *database.DB
}

// NewPostgresPlayerRepository creates a new player repository
func NewPostgresPlayerRepository(db *database.DB) PlayerRepository {
	return &PostgresPlayerRepository{db: db}
}

// Create inserts a new player
func (r *PostgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (id, external_id, name, team, position, active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		player.ID, player.ExternalID, player.Name, player.Team, player.Position, player.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create player: %w", err)
	}

	return nil
}

// Upsert inserts a player or refreshes an existing one keyed by external ID.
// The player's ID field is set to the stored row's ID either way.
func (r *PostgresPlayerRepository) Upsert(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (id, external_id, name, team, position, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO UPDATE
		SET name = EXCLUDED.name,
		    team = EXCLUDED.team,
		    position = EXCLUDED.position,
		    active = EXCLUDED.active,
		    updated_at = NOW()
		RETURNING id
	`

	err := r.db.GetPool().QueryRow(ctx, query,
		player.ID, player.ExternalID, player.Name, player.Team, player.Position, player.Active,
	).Scan(&player.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert player: %w", err)
	}

	return nil
}

// GetByID retrieves a player by ID
func (r *PostgresPlayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	query := `
		SELECT id, external_id, name, team, position, active, created_at, updated_at
		FROM players WHERE id = $1
	`

	player := &models.Player{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&player.ID, &player.ExternalID, &player.Name, &player.Team,
		&player.Position, &player.Active, &player.CreatedAt, &player.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

// GetByExternalID retrieves a player by its data source identifier
func (r *PostgresPlayerRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Player, error) {
	query := `
		SELECT id, external_id, name, team, position, active, created_at, updated_at
		FROM players WHERE external_id = $1
	`

	player := &models.Player{}
	err := r.db.GetPool().QueryRow(ctx, query, externalID).Scan(
		&player.ID, &player.ExternalID, &player.Name, &player.Team,
		&player.Position, &player.Active, &player.CreatedAt, &player.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player by external id: %w", err)
	}

	return player, nil
}

// GetByName retrieves a player by exact display name
func (r *PostgresPlayerRepository) GetByName(ctx context.Context, name string) (*models.Player, error) {
	query := `
		SELECT id, external_id, name, team, position, active, created_at, updated_at
		FROM players WHERE name = $1
	`

	player := &models.Player{}
	err := r.db.GetPool().QueryRow(ctx, query, name).Scan(
		&player.ID, &player.ExternalID, &player.Name, &player.Team,
		&player.Position, &player.Active, &player.CreatedAt, &player.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player by name: %w", err)
	}

	return player, nil
}

// GetActive retrieves all players currently flagged for collection
func (r *PostgresPlayerRepository) GetActive(ctx context.Context) ([]*models.Player, error) {
	query := `
		SELECT id, external_id, name, team, position, active, created_at, updated_at
		FROM players
		WHERE active = TRUE
		ORDER BY name ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		player := &models.Player{}
		err := rows.Scan(
			&player.ID, &player.ExternalID, &player.Name, &player.Team,
			&player.Position, &player.Active, &player.CreatedAt, &player.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanPlayer, err)
		}
		players = append(players, player)
	}

	return players, rows.Err()
}

// Update modifies an existing player
func (r *PostgresPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	query := `
		UPDATE players
		SET name = $2, team = $3, position = $4, active = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.GetPool().Exec(ctx, query,
		player.ID, player.Name, player.Team, player.Position, player.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Deactivate flags a player so collection and projection skip them
func (r *PostgresPlayerRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE players SET active = FALSE, updated_at = NOW() WHERE id = $1`

	result, err := r.db.GetPool().Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate player: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
