package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	valueString, err := json.Marshal(m)
	return string(valueString), err
}
func (m *Metadata) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &m)
}

type Claims struct {
	Username string `json:"username"`
	UID      string `json:"uid"`
	jwt.RegisteredClaims
}

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

// Category partitions the catalog into the two home-screen rows.
type Category string

const (
	CATEGORY_CONCERT   Category = "concert"
	CATEGORY_SPECTACLE Category = "spectacle"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type RegisterUserRequestBody struct {
	Email     string  `json:"email" binding:"required,email"`
	FirstName string  `json:"first_name" binding:"required"`
	LastName  string  `json:"last_name" binding:"required"`
	PhotoURL  *string `json:"photoURL,omitempty" binding:"omitempty,url"`
}

type LoginRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type UpdateProfileRequestBody struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

type CreateSpectacleRequestBody struct {
	Name         string  `json:"nom_spectacle" binding:"required"`
	Venue        string  `json:"lieu" binding:"required"`
	Date         string  `json:"date" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	Heure        string  `json:"heure" binding:"required"`
	Category     string  `json:"categorie" binding:"required,oneof=concert spectacle"`
	CoverImage   string  `json:"photo_couverture,omitempty"`
	PosterImage  string  `json:"photo_poster,omitempty"`
	PriceVIP     float64 `json:"prix_vip" binding:"required,gt=0"`
	PricePremium float64 `json:"prix_premium" binding:"required,gt=0"`
	PriceLite    float64 `json:"prix_lite" binding:"required,gt=0"`
	Information1 string  `json:"information1,omitempty"`
	Information2 string  `json:"information2,omitempty"`
	Description  string  `json:"description,omitempty"`
}

// Qty travels as the raw text of the quantity input; the booking workflow
// owns its interpretation (empty, non-numeric, out of range).
type CreateBookingRequestBody struct {
	SpectacleID uint   `json:"spectacle" binding:"required"`
	Zone        string `json:"zone" binding:"required"`
	Qty         string `json:"nombre"`
}

type SpectaclesQueryFilters struct {
	Search string `form:"search,omitempty"`
}

type TicketStatus string

const (
	TICKET_ISSUED  TicketStatus = "issued"
	TICKET_EXPIRED TicketStatus = "expired"
)

// TicketSummary is the last-booked record pushed to the key-value cache so
// the confirmation screen can redisplay without a re-fetch.
type TicketSummary struct {
	TicketID    uint    `json:"ticket_id"`
	Zone        string  `json:"zone"`
	Qty         uint8   `json:"nombre"`
	Total       float64 `json:"prix"`
	PosterImage *string `json:"ticketImage"`
	CoverImage  *string `json:"ticketBgImage"`
}

// QRPayload is the identity record sealed into the ticket QR code.
type QRPayload struct {
	TicketID    uint      `json:"ticket_id"`
	BookingDate time.Time `json:"booking_date"`
	FirstName   string    `json:"prenom"`
	LastName    string    `json:"nom"`
	Email       string    `json:"email"`
}
