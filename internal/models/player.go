package models

import (
	"time"

	"github.com/google/uuid"
)

// Player represents a tracked NBA player
type Player struct {
	ID         uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	ExternalID string    `db:"external_id" json:"external_id" validate:"required"`
	Name       string    `db:"name" json:"name" validate:"required"`
	Team       string    `db:"team" json:"team"`
	Position   string    `db:"position" json:"position"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the player is still being collected
func (p *Player) IsActive() bool {
	return p.Active
}
