package common

import (
	"context"
	"testing"
	"time"

	"sbs/src/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDb(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	db.NewDB(gormDB)
	return mock
}

func TestListUserTicketsJoinsSpectacle(t *testing.T) {
	mock := newMockDb(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM "tickets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "spectacle_id", "user_id", "zone", "qty", "unit_price", "total", "status", "created_at"}).
			AddRow(2, 9, 7, "Lite", 1, 5000.0, 5000.0, "issued", now).
			AddRow(1, 3, 7, "VIP", 2, 10000.0, 20000.0, "issued", now.Add(-time.Hour)))
	mock.ExpectQuery(`SELECT (.+) FROM "spectacles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "venue"}).
			AddRow(3, "Indochine", "Palais des Sports"))

	tickets, err := ListUserTickets(context.Background(), 7)
	assert.NoError(t, err)
	if assert.Len(t, tickets, 2) {
		// newest first; its spectacle row is gone, so the list shows the
		// placeholder name instead of dropping the ticket
		assert.Equal(t, uint(2), tickets[0].ID)
		if assert.NotNil(t, tickets[0].Spectacle) {
			assert.Equal(t, UnknownSpectacleName, tickets[0].Spectacle.Name)
		}
		if assert.NotNil(t, tickets[1].Spectacle) {
			assert.Equal(t, "Indochine", tickets[1].Spectacle.Name)
		}
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeExpiredTickets(t *testing.T) {
	mock := newMockDb(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tickets" SET "deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	PurgeExpiredTickets()
	assert.NoError(t, mock.ExpectationsWereMet())
}
