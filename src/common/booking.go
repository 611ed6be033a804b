package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"sbs/src/config"
	"sbs/src/db"
	"sbs/src/lib"
	"sbs/src/models"
	"sbs/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NoticeMaxTickets  = "cannot exceed 8 tickets"
	NoticeNotLoggedIn = "not logged in"
)

var ErrSubmitInFlight = errors.New("a booking submission is already in progress")

// TicketStore persists issued tickets.
type TicketStore interface {
	IssueTicket(ctx context.Context, ticket *models.Ticket) error
}

// SummaryCache keeps the latest booked ticket per account for fast detail
// reads.
type SummaryCache interface {
	PutSummary(ctx context.Context, uid string, summary *types.TicketSummary) error
}

// Notifier publishes a ticket-issued event for downstream consumers.
type Notifier interface {
	TicketIssued(ctx context.Context, payload map[string]any) error
}

// BookingWorkflow drives one booking session for a single spectacle: pick a
// zone, pick a quantity, submit. Methods are safe for concurrent use.
type BookingWorkflow struct {
	mu         sync.Mutex
	spectacle  *models.Spectacle
	zone       *models.Zone
	qty        *uint8
	notice     string
	submitting bool
	confirmed  *models.Ticket

	store    TicketStore
	cache    SummaryCache
	notifier Notifier
}

// BookingOption overrides a workflow collaborator, mainly for tests.
type BookingOption func(*BookingWorkflow)

func WithTicketStore(s TicketStore) BookingOption {
	return func(w *BookingWorkflow) { w.store = s }
}

func WithSummaryCache(c SummaryCache) BookingOption {
	return func(w *BookingWorkflow) { w.cache = c }
}

func WithNotifier(n Notifier) BookingOption {
	return func(w *BookingWorkflow) { w.notifier = n }
}

func NewBookingWorkflow(spectacle *models.Spectacle, opts ...BookingOption) *BookingWorkflow {
	w := &BookingWorkflow{
		spectacle: spectacle,
		store:     &gormTicketStore{},
		cache:     &redisSummaryCache{},
		notifier:  &kafkaNotifier{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SelectZone picks a pricing zone by name. Unknown names clear the selection.
// The running total is recomputed from the zone's unit price.
func (w *BookingWorkflow) SelectZone(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	zone, ok := w.spectacle.ZoneByName(name)
	if !ok {
		w.zone = nil
		return
	}
	w.zone = &zone
	w.notice = ""
}

// EditQuantity applies a raw quantity input as typed. An empty string or a
// zero clears the quantity, non-numeric input leaves the state untouched,
// and anything above the per-booking limit is rejected with a notice and no
// state change.
func (w *BookingWorkflow) EditQuantity(raw string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if raw == "" {
		w.qty = nil
		w.notice = ""
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return
	}
	if n == 0 {
		w.qty = nil
		w.notice = ""
		return
	}
	if n > config.MAX_TICKETS_PER_BOOKING {
		w.notice = NoticeMaxTickets
		return
	}
	qty := uint8(n)
	w.qty = &qty
	w.notice = ""
}

// Total is the running price, unit price times quantity. It is zero until
// both a zone and a positive quantity are selected.
func (w *BookingWorkflow) Total() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.total()
}

func (w *BookingWorkflow) total() float64 {
	if w.zone == nil || w.qty == nil {
		return 0
	}
	return w.zone.Price * float64(*w.qty)
}

func (w *BookingWorkflow) Notice() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.notice
}

func (w *BookingWorkflow) Qty() *uint8 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.qty
}

// Submit issues exactly one ticket for the current selection. A second call
// while one is in flight returns ErrSubmitInFlight. The write order is
// ticket first, then cache, then notification; cache and notification
// failures are logged but do not undo the ticket.
func (w *BookingWorkflow) Submit(ctx context.Context, user *models.User) (*models.Ticket, error) {
	w.mu.Lock()
	if user == nil || user.ID < 1 {
		w.notice = NoticeNotLoggedIn
		w.mu.Unlock()
		return nil, errors.New(NoticeNotLoggedIn)
	}
	if w.zone == nil {
		w.mu.Unlock()
		return nil, errors.New("no zone selected")
	}
	if w.qty == nil || *w.qty < 1 {
		w.mu.Unlock()
		return nil, errors.New("no quantity selected")
	}
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	w.submitting = true
	requestId := uuid.NewString()
	ticket := models.Ticket{
		SpectacleID: w.spectacle.ID,
		UserID:      user.ID,
		Zone:        w.zone.Name,
		Qty:         *w.qty,
		UnitPrice:   w.zone.Price,
		Total:       w.total(),
		Status:      types.TICKET_ISSUED,
		Metadata:    &types.Metadata{"requestId": requestId},
	}
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	if err := w.store.IssueTicket(ctx, &ticket); err != nil {
		log.Printf("Error issuing ticket for user [%d]: %s\n", user.ID, err.Error())
		w.mu.Lock()
		w.notice = "booking failed"
		w.mu.Unlock()
		return nil, err
	}

	summary := types.TicketSummary{
		TicketID:    ticket.ID,
		Zone:        ticket.Zone,
		Qty:         ticket.Qty,
		Total:       ticket.Total,
		PosterImage: w.spectacle.PosterImage,
		CoverImage:  w.spectacle.CoverImage,
	}
	if err := w.cache.PutSummary(ctx, user.UID, &summary); err != nil {
		log.Printf("[redis] Error caching ticket summary: %s\n", err.Error())
	}
	if err := w.notifier.TicketIssued(ctx, map[string]any{
		"ticketId": ticket.ID,
		"email":    user.Email,
		"nom":      user.LastName,
		"prenom":   user.FirstName,
		"zone":     ticket.Zone,
		"nombre":   ticket.Qty,
		"prix":     ticket.Total,
	}); err != nil {
		log.Printf("[kafka] Error publishing issued ticket: %s\n", err.Error())
	}

	w.mu.Lock()
	w.confirmed = &ticket
	w.mu.Unlock()
	return &ticket, nil
}

type gormTicketStore struct{}

func (s *gormTicketStore) IssueTicket(ctx context.Context, ticket *models.Ticket) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		var spectacle models.Spectacle
		if err := tx.Where(&models.Spectacle{ID: ticket.SpectacleID}).First(&spectacle).Error; err != nil {
			return fmt.Errorf("spectacle %d does not exist", ticket.SpectacleID)
		}
		return tx.WithContext(ctx).Create(ticket).Error
	})
}

type redisSummaryCache struct{}

func (c *redisSummaryCache) PutSummary(ctx context.Context, uid string, summary *types.TicketSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	rd := lib.GetRedisClient()
	return rd.SetEx(ctx, fmt.Sprintf("ticket:%s", uid), body, 2*time.Hour).Err()
}

type kafkaNotifier struct{}

func (n *kafkaNotifier) TicketIssued(ctx context.Context, payload map[string]any) error {
	return lib.KafkaProduceMessage("BookingProducer", lib.TOPIC_TICKETS_ISSUED, payload)
}
