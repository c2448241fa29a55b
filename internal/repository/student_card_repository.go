package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gate-violation-api/internal/models"
)

const cardColumns = `id, student_id, card_code, card_type, issued_at, expires_at, is_active, created_at, updated_at`

// StudentCardRepository manages gate credentials.
type StudentCardRepository struct {
	db *sqlx.DB
}

// NewStudentCardRepository constructs a StudentCardRepository.
func NewStudentCardRepository(db *sqlx.DB) *StudentCardRepository {
	return &StudentCardRepository{db: db}
}

// FindActiveByCode returns the active card with the given code.
func (r *StudentCardRepository) FindActiveByCode(ctx context.Context, code string) (*models.StudentCard, error) {
	query := fmt.Sprintf("SELECT %s FROM student_cards WHERE card_code = $1 AND is_active = TRUE LIMIT 1", cardColumns)
	var card models.StudentCard
	if err := r.db.GetContext(ctx, &card, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active card by code: %w", err)
	}
	return &card, nil
}

// FindActiveByStudent returns the most recently issued active card of a student.
func (r *StudentCardRepository) FindActiveByStudent(ctx context.Context, studentID int64) (*models.StudentCard, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_cards WHERE student_id = $1 AND is_active = TRUE
        ORDER BY issued_at DESC NULLS LAST, id DESC LIMIT 1`, cardColumns)
	var card models.StudentCard
	if err := r.db.GetContext(ctx, &card, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active card by student: %w", err)
	}
	return &card, nil
}

// FindByID fetches a card regardless of state.
func (r *StudentCardRepository) FindByID(ctx context.Context, id int64) (*models.StudentCard, error) {
	query := fmt.Sprintf("SELECT %s FROM student_cards WHERE id = $1", cardColumns)
	var card models.StudentCard
	if err := r.db.GetContext(ctx, &card, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find card by id: %w", err)
	}
	return &card, nil
}

// ListByStudent returns all cards of a student, active ones first.
func (r *StudentCardRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.StudentCard, error) {
	query := fmt.Sprintf("SELECT %s FROM student_cards WHERE student_id = $1 ORDER BY is_active DESC, id DESC", cardColumns)
	var cards []models.StudentCard
	if err := r.db.SelectContext(ctx, &cards, query, studentID); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// ExistsByCode reports whether any card, active or not, already uses code.
func (r *StudentCardRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM student_cards WHERE card_code = $1 LIMIT 1", code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check card code: %w", err)
	}
	return true, nil
}

// CountActive returns the number of active cards.
func (r *StudentCardRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM student_cards WHERE is_active = TRUE"); err != nil {
		return 0, fmt.Errorf("count active cards: %w", err)
	}
	return total, nil
}

// Create issues a card and fills the generated ID.
func (r *StudentCardRepository) Create(ctx context.Context, card *models.StudentCard) error {
	now := time.Now().UTC()
	card.CreatedAt = now
	card.UpdatedAt = now
	if card.CardType == "" {
		card.CardType = models.CardTypeRFID
	}
	if card.IssuedAt == nil {
		card.IssuedAt = &now
	}
	const query = `INSERT INTO student_cards (student_id, card_code, card_type, issued_at, expires_at, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		card.StudentID, card.CardCode, card.CardType, card.IssuedAt, card.ExpiresAt, card.IsActive, card.CreatedAt, card.UpdatedAt,
	).Scan(&card.ID)
	if err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

// Deactivate flips is_active off. Cards are never deleted.
func (r *StudentCardRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE student_cards SET is_active = FALSE, updated_at = $2 WHERE id = $1", id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate card: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
