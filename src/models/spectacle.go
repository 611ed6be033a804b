package models

import (
	"sbs/src/types"
	"strings"
	"time"
)

// Spectacle is a catalog record. Written by the content-management process,
// read-only everywhere else.
type Spectacle struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Name         string         `json:"nom_spectacle,omitempty"`
	Venue        string         `json:"lieu,omitempty"`
	Date         time.Time      `json:"date,omitempty"`
	Heure        string         `json:"heure,omitempty"`
	Category     types.Category `gorm:"default:'spectacle'" json:"categorie,omitempty"`
	CoverImage   *string        `json:"photo_couverture,omitempty"`
	PosterImage  *string        `json:"photo_poster,omitempty"`
	PriceVIP     float64        `gorm:"column:price_vip" json:"prix_vip,omitempty"`
	PricePremium float64        `json:"prix_premium,omitempty"`
	PriceLite    float64        `json:"prix_lite,omitempty"`
	Information1 string         `json:"information1,omitempty"`
	Information2 string         `json:"information2,omitempty"`
	Description  string         `json:"description,omitempty"`

	Tickets []Ticket `gorm:"foreignKey:SpectacleID" json:"tickets,omitempty"`

	types.Timestamps
}

type Zone struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

const (
	ZONE_VIP     = "VIP"
	ZONE_PREMIUM = "Premium"
	ZONE_LITE    = "Lite"
)

// Zones presents the per-zone price columns as the generic tiers list the
// booking screen renders.
func (s *Spectacle) Zones() []Zone {
	return []Zone{
		{Name: ZONE_VIP, Price: s.PriceVIP},
		{Name: ZONE_PREMIUM, Price: s.PricePremium},
		{Name: ZONE_LITE, Price: s.PriceLite},
	}
}

// ZoneByName resolves a zone selection case-insensitively. Returns false
// when the name matches no tier.
func (s *Spectacle) ZoneByName(name string) (Zone, bool) {
	for _, z := range s.Zones() {
		if strings.EqualFold(z.Name, name) {
			return z, true
		}
	}
	return Zone{}, false
}
