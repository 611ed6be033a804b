package common

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"sbs/src/db"
	"sbs/src/lib"
	"sbs/src/models"
	"sbs/src/types"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

// ListUserTickets returns the account's booked tickets, newest first, with
// the spectacle joined in for the list artwork.
func ListUserTickets(ctx context.Context, userId uint) ([]models.Ticket, error) {
	var tickets []models.Ticket
	db := db.GetDb()
	err := db.
		WithContext(ctx).
		Model(&models.Ticket{}).
		Where(&models.Ticket{UserID: userId}).
		Preload("Spectacle").
		Order("created_at desc").
		Find(&tickets).
		Error
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].Spectacle == nil {
			tickets[i].Spectacle = &models.Spectacle{Name: UnknownSpectacleName}
		}
	}
	return tickets, nil
}

// RetentionNotice accompanies every ticket list response.
const RetentionNotice = "Les billets sont supprimés après la date du spectacle"

// PurgeExpiredTickets removes tickets once their spectacle date has passed.
// Runs from the scheduler; tickets are never mutated, only issued and
// eventually purged.
func PurgeExpiredTickets() {
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Where("status = ?", types.TICKET_ISSUED).
			Where("spectacle_id IN (?)", tx.
				Model(&models.Spectacle{}).
				Select("id").
				Where("date < ?", time.Now())).
			Delete(&models.Ticket{}).
			Error
	})
	if err != nil {
		log.Printf("Error purging expired tickets: %s\n", err.Error())
		return
	}
	log.Println("PurgeExpiredTickets: done")
}

// KafkaTicketsIssuedConsumer turns a tickets-issued message into the booking
// confirmation email.
func KafkaTicketsIssuedConsumer(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("Received invalid json body. Aborting")
		return
	}
	email := gjson.Get(spayload, "email").String()
	if email == "" {
		log.Println("tickets-issued message without recipient. Aborting")
		return
	}
	ticketId := gjson.Get(spayload, "ticketId").Uint()
	prenom := gjson.Get(spayload, "prenom").String()
	zone := gjson.Get(spayload, "zone").String()
	nombre := gjson.Get(spayload, "nombre").Uint()
	prix := gjson.Get(spayload, "prix").Float()
	log.Printf("ticket [%d] issued to %s\n", ticketId, email)

	body := fmt.Sprintf(
		"Bonjour %s,\n\nVotre réservation est confirmée.\n\nBillet n°%d\nZone: %s\nPlaces: %d\nTotal: %.0f FCFA\n\nÀ très bientôt !",
		prenom, ticketId, zone, nombre, prix,
	)
	go func() {
		input := &lib.SendMailInput{
			From:     os.Getenv("SMTP_FROM"),
			FromName: "Billetterie",
			To:       []string{email},
			Subject:  fmt.Sprintf("Confirmation de réservation n°%d", ticketId),
			Body:     body,
		}
		if err := lib.SendMail(input); err != nil {
			log.Printf("[MAILER] error sending email: %s\n", err.Error())
		}
	}()
}
