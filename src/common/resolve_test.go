package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"sbs/src/models"
	"sbs/src/types"

	"github.com/stretchr/testify/assert"
)

type fakeDetailStore struct {
	ticket    *models.Ticket
	spectacle *models.Spectacle
	user      *models.User

	spectacleErr error
	userErr      error
	ticketReads  int
}

func (s *fakeDetailStore) GetTicket(ctx context.Context, id uint) (*models.Ticket, error) {
	s.ticketReads++
	if s.ticket != nil && s.ticket.ID == id {
		return s.ticket, nil
	}
	return nil, nil
}

func (s *fakeDetailStore) GetSpectacle(ctx context.Context, id uint) (*models.Spectacle, error) {
	return s.spectacle, s.spectacleErr
}

func (s *fakeDetailStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.user, s.userErr
}

func issuedTicket() *models.Ticket {
	t := &models.Ticket{
		ID:          42,
		SpectacleID: 3,
		UserID:      7,
		Zone:        models.ZONE_VIP,
		Qty:         3,
		UnitPrice:   10000,
		Total:       30000,
		Status:      types.TICKET_ISSUED,
	}
	t.CreatedAt = time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)
	return t
}

func TestResolveTicketDetailFullJoin(t *testing.T) {
	cover := "https://cdn.example.com/cover.jpg"
	store := &fakeDetailStore{
		ticket: issuedTicket(),
		spectacle: &models.Spectacle{
			ID:         3,
			Name:       "Le Lac des Cygnes",
			Venue:      "Palais des Congrès",
			Heure:      "20:30",
			CoverImage: &cover,
		},
		user: &models.User{ID: 7, FirstName: "Claire", LastName: "Durand", Email: "claire@example.com"},
	}
	detail, err := ResolveTicketDetail(context.Background(), store, 42)
	assert.NoError(t, err)
	assert.Equal(t, "Le Lac des Cygnes", detail.Name)
	assert.Equal(t, models.ZONE_VIP, detail.Zone)
	assert.Equal(t, float64(30000), detail.Total)
	if assert.NotNil(t, detail.CoverImage) {
		assert.Equal(t, cover, *detail.CoverImage)
	}
	if assert.NotNil(t, detail.Email) {
		assert.Equal(t, "claire@example.com", *detail.Email)
	}
}

func TestResolveTicketDetailMissingSpectacle(t *testing.T) {
	store := &fakeDetailStore{
		ticket: issuedTicket(),
		user:   &models.User{ID: 7, FirstName: "Claire", LastName: "Durand", Email: "claire@example.com"},
	}
	detail, err := ResolveTicketDetail(context.Background(), store, 42)
	assert.NoError(t, err)
	assert.Equal(t, UnknownSpectacleName, detail.Name)
	assert.Nil(t, detail.CoverImage)
	assert.Nil(t, detail.PosterImage)
	// ticket fields survive the degraded join untouched
	assert.Equal(t, uint8(3), detail.Qty)
	assert.Equal(t, float64(30000), detail.Total)
	if assert.NotNil(t, detail.FirstName) {
		assert.Equal(t, "Claire", *detail.FirstName)
	}
}

func TestResolveTicketDetailMissingUser(t *testing.T) {
	store := &fakeDetailStore{
		ticket:    issuedTicket(),
		spectacle: &models.Spectacle{ID: 3, Name: "Le Lac des Cygnes"},
		userErr:   errors.New("connection reset"),
	}
	detail, err := ResolveTicketDetail(context.Background(), store, 42)
	assert.NoError(t, err)
	assert.Equal(t, "Le Lac des Cygnes", detail.Name)
	assert.Nil(t, detail.FirstName)
	assert.Nil(t, detail.LastName)
	assert.Nil(t, detail.Email)
}

func TestResolveTicketDetailTotalFallback(t *testing.T) {
	ticket := issuedTicket()
	ticket.Total = 0
	store := &fakeDetailStore{ticket: ticket}
	detail, err := ResolveTicketDetail(context.Background(), store, 42)
	assert.NoError(t, err)
	assert.Equal(t, float64(30000), detail.Total)
}

func TestResolveTicketDetailIdempotent(t *testing.T) {
	store := &fakeDetailStore{
		ticket:    issuedTicket(),
		spectacle: &models.Spectacle{ID: 3, Name: "Le Lac des Cygnes"},
		user:      &models.User{ID: 7, FirstName: "Claire", LastName: "Durand", Email: "claire@example.com"},
	}
	first, err := ResolveTicketDetail(context.Background(), store, 42)
	assert.NoError(t, err)
	second, err := ResolveTicketDetail(context.Background(), store, 42)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, store.ticketReads)
}

func TestResolveTicketDetailNotFound(t *testing.T) {
	store := &fakeDetailStore{}
	detail, err := ResolveTicketDetail(context.Background(), store, 42)
	assert.ErrorIs(t, err, ErrTicketNotFound)
	assert.Nil(t, detail)
}

func TestBuildQRPayload(t *testing.T) {
	first, last, email := "Claire", "Durand", "claire@example.com"
	detail := &TicketDetail{
		TicketID:    42,
		BookingDate: time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC),
		FirstName:   &first,
		LastName:    &last,
		Email:       &email,
	}
	payload := BuildQRPayload(detail)
	assert.Equal(t, uint(42), payload.TicketID)
	assert.Equal(t, "Claire", payload.FirstName)
	assert.Equal(t, "Durand", payload.LastName)
	assert.Equal(t, "claire@example.com", payload.Email)
}
