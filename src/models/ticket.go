package models

import (
	"sbs/src/types"
)

// Ticket is issued exactly once per successful booking and never mutated
// afterwards. UnitPrice and Total are snapshots of the spectacle's zone
// price at booking time; later reads never recompute them.
type Ticket struct {
	ID          uint               `gorm:"primarykey" json:"id"`
	SpectacleID uint               `json:"id_spectacle,omitempty"`
	UserID      uint               `json:"id_users,omitempty"`
	Zone        string             `json:"type,omitempty"`
	Qty         uint8              `json:"nombre,omitempty"`
	UnitPrice   float64            `json:"prix_unitaire,omitempty"`
	Total       float64            `json:"prix"`
	Status      types.TicketStatus `gorm:"default:'issued'" json:"status,omitempty"`
	Metadata    *types.Metadata    `gorm:"type:jsonb" json:"metadata,omitempty"`

	Spectacle *Spectacle `gorm:"foreignKey:SpectacleID" json:"spectacle,omitempty"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`

	types.Timestamps
}
