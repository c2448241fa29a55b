package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/gate-violation-api/internal/models"
)

// Resolution strategy names, as they appear in logs.
const (
	StrategyStudentID   = "student_id"
	StrategyStudentCode = "student_code"
	StrategyActiveCard  = "active_card"
)

type studentLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	FindByCode(ctx context.Context, code string) (*models.Student, error)
}

type cardLookup interface {
	FindActiveByCode(ctx context.Context, code string) (*models.StudentCard, error)
	FindActiveByStudent(ctx context.Context, studentID int64) (*models.StudentCard, error)
}

// ResolveQuery identifies who presented at the gate.
type ResolveQuery struct {
	Code      string
	StudentID *int64
}

// Resolution is the outcome of identity resolution. Both fields may be nil.
type Resolution struct {
	Student  *models.Student
	Card     *models.StudentCard
	Strategy string
}

type resolveStrategy struct {
	name string
	run  func(ctx context.Context, q ResolveQuery) (*models.Student, *models.StudentCard, error)
}

// Resolver maps a scanned code or explicit student id to a student and card.
type Resolver struct {
	students studentLookup
	cards    cardLookup
	logger   *zap.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(students studentLookup, cards cardLookup, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{students: students, cards: cards, logger: logger}
}

// Resolve runs the strategy chain. An explicit student id is the only strategy consulted when present;
// otherwise student_code is tried before active_card. A miss is not an error.
func (r *Resolver) Resolve(ctx context.Context, q ResolveQuery) (Resolution, error) {
	for _, strategy := range r.chain(q) {
		student, card, err := strategy.run(ctx, q)
		if err != nil {
			return Resolution{}, fmt.Errorf("resolve by %s: %w", strategy.name, err)
		}
		if student != nil {
			r.logger.Debug("identity resolved", zap.String("strategy", strategy.name), zap.Int64("student_id", student.ID), zap.String("code", q.Code))
			return Resolution{Student: student, Card: card, Strategy: strategy.name}, nil
		}
	}
	r.logger.Debug("identity unresolved", zap.String("code", q.Code))
	return Resolution{}, nil
}

func (r *Resolver) chain(q ResolveQuery) []resolveStrategy {
	if q.StudentID != nil {
		return []resolveStrategy{{name: StrategyStudentID, run: r.byStudentID}}
	}
	return []resolveStrategy{
		{name: StrategyStudentCode, run: r.byStudentCode},
		{name: StrategyActiveCard, run: r.byActiveCard},
	}
}

func (r *Resolver) byStudentID(ctx context.Context, q ResolveQuery) (*models.Student, *models.StudentCard, error) {
	student, err := r.students.FindByID(ctx, *q.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return student, nil, nil
}

func (r *Resolver) byStudentCode(ctx context.Context, q ResolveQuery) (*models.Student, *models.StudentCard, error) {
	if q.Code == "" {
		return nil, nil, nil
	}
	student, err := r.students.FindByCode(ctx, q.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	card, err := r.cards.FindActiveByStudent(ctx, student.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student, nil, nil
		}
		return nil, nil, err
	}
	return student, card, nil
}

func (r *Resolver) byActiveCard(ctx context.Context, q ResolveQuery) (*models.Student, *models.StudentCard, error) {
	if q.Code == "" {
		return nil, nil, nil
	}
	card, err := r.cards.FindActiveByCode(ctx, q.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	student, err := r.students.FindByID(ctx, card.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return student, card, nil
}
