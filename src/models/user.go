package models

import (
	"sbs/src/types"
	"time"
)

// User is created at sign-up; ID is the row key, UID the auth identity.
type User struct {
	ID         uint            `gorm:"primarykey" json:"id"`
	FirstName  string          `json:"firstName,omitempty"`
	LastName   string          `json:"lastName,omitempty"`
	Email      string          `json:"email,omitempty"`
	UID        string          `gorm:"uniqueIndex" json:"uid,omitempty"`
	PhotoURL   *string         `json:"photoURL,omitempty"`
	LastActive *time.Time      `json:"last_active,omitempty"`
	Metadata   *types.Metadata `gorm:"type:jsonb" json:"-"`

	Tickets []Ticket `gorm:"foreignKey:UserID" json:"tickets,omitempty"`

	types.Timestamps
}
