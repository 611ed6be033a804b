package common

import (
	"context"
	"errors"
	"log"
	"time"

	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"

	"gorm.io/gorm"
)

// UnknownSpectacleName stands in for the display name when the spectacle a
// ticket points at no longer exists.
const UnknownSpectacleName = "Spectacle inconnu"

var ErrTicketNotFound = errors.New("ticket not found")

// TicketDetail is the fully resolved view of one ticket: the ticket row
// joined with its spectacle and its holder. Fields resolved from a missing
// record stay nil rather than failing the whole read.
type TicketDetail struct {
	TicketID    uint       `json:"ticket_id"`
	Zone        string     `json:"type"`
	Qty         uint8      `json:"nombre"`
	Total       float64    `json:"prix"`
	BookingDate time.Time  `json:"booking_date"`
	Name        string     `json:"nom_spectacle"`
	Venue       *string    `json:"lieu,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Heure       *string    `json:"heure,omitempty"`
	CoverImage  *string    `json:"photo_couverture"`
	PosterImage *string    `json:"photo_poster"`
	FirstName   *string    `json:"prenom,omitempty"`
	LastName    *string    `json:"nom,omitempty"`
	Email       *string    `json:"email,omitempty"`
}

// DetailStore loads the three records a ticket detail is assembled from.
// Lookups for absent spectacles or users return nil without error.
type DetailStore interface {
	GetTicket(ctx context.Context, id uint) (*models.Ticket, error)
	GetSpectacle(ctx context.Context, id uint) (*models.Spectacle, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// ResolveTicketDetail assembles the detail view for one ticket. The ticket
// row is authoritative for zone, quantity and total; a stored total of zero
// falls back to unit price times quantity. A missing spectacle degrades to
// UnknownSpectacleName with nil images, a missing user leaves the holder
// fields nil. Resolution is read-only, so repeated calls return the same
// view.
func ResolveTicketDetail(ctx context.Context, store DetailStore, id uint) (*TicketDetail, error) {
	ticket, err := store.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}

	detail := TicketDetail{
		TicketID:    ticket.ID,
		Zone:        ticket.Zone,
		Qty:         ticket.Qty,
		Total:       ticket.Total,
		BookingDate: ticket.CreatedAt,
		Name:        UnknownSpectacleName,
	}
	if detail.Total == 0 && ticket.Qty > 0 {
		detail.Total = ticket.UnitPrice * float64(ticket.Qty)
	}

	spectacle, err := store.GetSpectacle(ctx, ticket.SpectacleID)
	if err != nil {
		log.Printf("Error resolving spectacle [%d] for ticket [%d]: %s\n", ticket.SpectacleID, id, err.Error())
	}
	if spectacle != nil {
		detail.Name = spectacle.Name
		detail.Venue = &spectacle.Venue
		detail.Date = &spectacle.Date
		detail.Heure = &spectacle.Heure
		detail.CoverImage = spectacle.CoverImage
		detail.PosterImage = spectacle.PosterImage
	}

	user, err := store.GetUser(ctx, ticket.UserID)
	if err != nil {
		log.Printf("Error resolving user [%d] for ticket [%d]: %s\n", ticket.UserID, id, err.Error())
	}
	if user != nil {
		detail.FirstName = &user.FirstName
		detail.LastName = &user.LastName
		detail.Email = &user.Email
	}

	return &detail, nil
}

// BuildQRPayload extracts the identity record sealed into the ticket's QR
// code. Holder fields left unresolved come through empty.
func BuildQRPayload(detail *TicketDetail) types.QRPayload {
	payload := types.QRPayload{
		TicketID:    detail.TicketID,
		BookingDate: detail.BookingDate,
	}
	if detail.FirstName != nil {
		payload.FirstName = *detail.FirstName
	}
	if detail.LastName != nil {
		payload.LastName = *detail.LastName
	}
	if detail.Email != nil {
		payload.Email = *detail.Email
	}
	return payload
}

// GormDetailStore reads ticket detail records straight from the database.
type GormDetailStore struct{}

func (s *GormDetailStore) GetTicket(ctx context.Context, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	db := db.GetDb()
	if err := db.WithContext(ctx).Where(&models.Ticket{ID: id}).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

func (s *GormDetailStore) GetSpectacle(ctx context.Context, id uint) (*models.Spectacle, error) {
	var spectacle models.Spectacle
	db := db.GetDb()
	if err := db.WithContext(ctx).Where(&models.Spectacle{ID: id}).First(&spectacle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &spectacle, nil
}

func (s *GormDetailStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	db := db.GetDb()
	if err := db.WithContext(ctx).Where(&models.User{ID: id}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
