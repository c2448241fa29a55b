package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-violation-api/internal/models"
)

var cardRowColumns = []string{"id", "student_id", "card_code", "card_type", "issued_at", "expires_at", "is_active", "created_at", "updated_at"}

func TestStudentCardRepositoryFindActiveByCode(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentCardRepository(db)

	mock.ExpectQuery(`FROM student_cards WHERE card_code = \$1 AND is_active = TRUE`).
		WithArgs("RFID-001").
		WillReturnRows(sqlmock.NewRows(cardRowColumns).AddRow(3, 7, "RFID-001", "RFID", time.Now(), nil, true, time.Now(), time.Now()))

	card, err := repo.FindActiveByCode(context.Background(), "RFID-001")
	require.NoError(t, err)
	assert.Equal(t, int64(7), card.StudentID)
	assert.Equal(t, models.CardTypeRFID, card.CardType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCardRepositoryFindActiveByStudentMissing(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentCardRepository(db)

	mock.ExpectQuery(`FROM student_cards WHERE student_id = \$1 AND is_active = TRUE`).
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByStudent(context.Background(), 7)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCardRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentCardRepository(db)

	mock.ExpectQuery("INSERT INTO student_cards").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	card := &models.StudentCard{StudentID: 7, CardCode: "QR-7", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), card))
	assert.Equal(t, int64(11), card.ID)
	assert.Equal(t, models.CardTypeRFID, card.CardType)
	assert.NotNil(t, card.IssuedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCardRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentCardRepository(db)

	mock.ExpectExec(`UPDATE student_cards SET is_active = FALSE`).
		WithArgs(int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE student_cards SET is_active = FALSE`).
		WithArgs(int64(4), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Deactivate(context.Background(), 3))
	assert.ErrorIs(t, repo.Deactivate(context.Background(), 4), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCardRepositoryCountActive(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentCardRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM student_cards WHERE is_active = TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	total, err := repo.CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, total)
}
