package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gate-violation-api/internal/models"
)

const studentColumns = `s.id, s.student_code, s.full_name, s.class_name, s.birth_date, s.gender, s.avatar_path, s.contact_phone,
        s.guardian_name, s.guardian_phone, s.notes, s.scenario_group, s.is_underage, s.enrolled_at, s.created_at, s.updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students with their access counters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentSummary, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ClassName != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_name = $%d", len(args)+1))
		args = append(args, filter.ClassName)
	}
	if filter.ScenarioGroup != "" {
		conditions = append(conditions, fmt.Sprintf("s.scenario_group = $%d", len(args)+1))
		args = append(args, filter.ScenarioGroup)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.student_code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"full_name":    "s.full_name",
		"student_code": "s.student_code",
		"class_name":   "s.class_name",
		"created_at":   "s.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, size := normalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s,
        (SELECT COUNT(*) FROM access_logs l WHERE l.student_id = s.id AND l.result = 'violation') AS violation_count,
        (SELECT COUNT(*) FROM access_logs l WHERE l.student_id = s.id AND l.result = 'valid') AS valid_count,
        (SELECT MAX(l.occurred_at) FROM access_logs l WHERE l.student_id = s.id) AS last_activity_at
        FROM students s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`, studentColumns, where, column, order, size, offset)

	var students []models.StudentSummary
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM students s WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by primary key.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// FindByCode fetches a student by exact student_code.
func (r *StudentRepository) FindByCode(ctx context.Context, code string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.student_code = $1 LIMIT 1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by code: %w", err)
	}
	return &student, nil
}

// ExistsByCode checks if a student_code is taken, optionally excluding an ID.
func (r *StudentRepository) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM students WHERE student_code = $1"
	args := []interface{}{code}
	if excludeID > 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student code: %w", err)
	}
	return true, nil
}

// Count returns the number of registered students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// Create inserts a new student and fills the generated ID.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if student.ScenarioGroup == "" {
		student.ScenarioGroup = models.ScenarioGroupA
	}
	const query = `INSERT INTO students (student_code, full_name, class_name, birth_date, gender, avatar_path, contact_phone,
        guardian_name, guardian_phone, notes, scenario_group, is_underage, enrolled_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		student.StudentCode, student.FullName, student.ClassName, student.BirthDate, student.Gender, student.AvatarPath,
		student.ContactPhone, student.GuardianName, student.GuardianPhone, student.Notes, student.ScenarioGroup,
		student.IsUnderage, student.EnrolledAt, student.CreatedAt, student.UpdatedAt,
	).Scan(&student.ID)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies mutable student fields. student_code and is_underage are never rewritten.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, class_name = :class_name, birth_date = :birth_date, gender = :gender,
        avatar_path = :avatar_path, contact_phone = :contact_phone, guardian_name = :guardian_name, guardian_phone = :guardian_phone,
        notes = :notes, scenario_group = :scenario_group, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	return page, size
}
