// Package seed imports a YAML dataset of students, cards, settings and staff users.
package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

// Dataset is the top-level YAML document.
type Dataset struct {
	Students []Student `yaml:"students"`
	Settings []Setting `yaml:"settings"`
	Users    []User    `yaml:"users"`
}

// Student is a seeded student with its cards.
type Student struct {
	StudentCode   string  `yaml:"student_code"`
	FullName      string  `yaml:"full_name"`
	ClassName     string  `yaml:"class_name"`
	BirthDate     string  `yaml:"birth_date"`
	Gender        string  `yaml:"gender"`
	ScenarioGroup string  `yaml:"scenario_group"`
	ContactPhone  *string `yaml:"contact_phone"`
	GuardianName  *string `yaml:"guardian_name"`
	GuardianPhone *string `yaml:"guardian_phone"`
	EnrolledAt    string  `yaml:"enrolled_at"`
	Cards         []Card  `yaml:"cards"`
}

// Card is a credential attached to a seeded student.
type Card struct {
	CardCode  string `yaml:"card_code"`
	CardType  string `yaml:"card_type"`
	ExpiresAt string `yaml:"expires_at"`
}

// Setting is a system setting; Value may be any YAML scalar, list or map.
type Setting struct {
	Key         string      `yaml:"key"`
	Label       string      `yaml:"label"`
	Description *string     `yaml:"description"`
	Value       interface{} `yaml:"value"`
}

// User is a staff account. Password is plain text in the dataset and hashed on import.
type User struct {
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
}

// Load decodes a dataset, rejecting unknown keys.
func Load(r io.Reader) (*Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return &ds, nil
		}
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &ds, nil
}

type studentWriter interface {
	Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error)
	IssueCard(ctx context.Context, studentID int64, req dto.IssueCardRequest) (*models.StudentCard, error)
}

type studentFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Student, error)
}

type settingWriter interface {
	Upsert(ctx context.Context, key string, req dto.UpsertSettingRequest) (*models.SystemSetting, error)
}

type userWriter interface {
	Upsert(ctx context.Context, user *models.User) error
}

// Report counts what an import changed.
type Report struct {
	StudentsCreated int
	StudentsSkipped int
	CardsIssued     int
	CardsSkipped    int
	Settings        int
	Users           int
}

// Seeder applies datasets. Re-running the same dataset is safe: existing
// students and cards are skipped, settings and users are upserted.
type Seeder struct {
	students   studentWriter
	lookup     studentFinder
	settings   settingWriter
	users      userWriter
	logger     *zap.Logger
	bcryptCost int
}

// NewSeeder constructs a Seeder.
func NewSeeder(students studentWriter, lookup studentFinder, settings settingWriter, users userWriter, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		students:   students,
		lookup:     lookup,
		settings:   settings,
		users:      users,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Run imports the dataset and stops at the first hard failure.
func (s *Seeder) Run(ctx context.Context, ds *Dataset) (Report, error) {
	var report Report
	for _, st := range ds.Students {
		if err := s.seedStudent(ctx, st, &report); err != nil {
			return report, err
		}
	}
	for _, setting := range ds.Settings {
		raw, err := json.Marshal(setting.Value)
		if err != nil {
			return report, fmt.Errorf("setting %s: encode value: %w", setting.Key, err)
		}
		req := dto.UpsertSettingRequest{Label: setting.Label, Description: setting.Description, Value: raw}
		if _, err := s.settings.Upsert(ctx, setting.Key, req); err != nil {
			return report, fmt.Errorf("setting %s: %w", setting.Key, err)
		}
		report.Settings++
	}
	for _, u := range ds.Users {
		if err := s.seedUser(ctx, u); err != nil {
			return report, err
		}
		report.Users++
	}
	s.logger.Info("seed completed",
		zap.Int("students_created", report.StudentsCreated),
		zap.Int("students_skipped", report.StudentsSkipped),
		zap.Int("cards_issued", report.CardsIssued),
		zap.Int("settings", report.Settings),
		zap.Int("users", report.Users),
	)
	return report, nil
}

func (s *Seeder) seedStudent(ctx context.Context, st Student, report *Report) error {
	created, err := s.students.Create(ctx, dto.CreateStudentRequest{
		StudentCode:   st.StudentCode,
		FullName:      st.FullName,
		ClassName:     st.ClassName,
		BirthDate:     st.BirthDate,
		Gender:        st.Gender,
		ContactPhone:  st.ContactPhone,
		GuardianName:  st.GuardianName,
		GuardianPhone: st.GuardianPhone,
		ScenarioGroup: st.ScenarioGroup,
		EnrolledAt:    st.EnrolledAt,
	})
	var studentID int64
	switch {
	case err == nil:
		studentID = created.ID
		report.StudentsCreated++
	case hasFieldError(err, "student_code"):
		existing, lookupErr := s.lookup.FindByCode(ctx, strings.TrimSpace(st.StudentCode))
		if lookupErr != nil {
			if errors.Is(lookupErr, sql.ErrNoRows) {
				return fmt.Errorf("student %s: reported as taken but not found", st.StudentCode)
			}
			return fmt.Errorf("student %s: %w", st.StudentCode, lookupErr)
		}
		studentID = existing.ID
		report.StudentsSkipped++
	default:
		return fmt.Errorf("student %s: %w", st.StudentCode, describe(err))
	}

	for _, card := range st.Cards {
		_, err := s.students.IssueCard(ctx, studentID, dto.IssueCardRequest{
			CardCode:  card.CardCode,
			CardType:  card.CardType,
			ExpiresAt: card.ExpiresAt,
		})
		switch {
		case err == nil:
			report.CardsIssued++
		case hasFieldError(err, "card_code"):
			report.CardsSkipped++
		default:
			return fmt.Errorf("card %s: %w", card.CardCode, describe(err))
		}
	}
	return nil
}

func (s *Seeder) seedUser(ctx context.Context, u User) error {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" || u.Password == "" {
		return fmt.Errorf("user %q: email and password are required", u.Email)
	}
	role := models.UserRole(strings.ToUpper(strings.TrimSpace(u.Role)))
	switch role {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff:
	case "":
		role = models.RoleStaff
	default:
		return fmt.Errorf("user %s: unknown role %q", email, u.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("user %s: hash password: %w", email, err)
	}
	return s.users.Upsert(ctx, &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     u.FullName,
		Role:         role,
		Active:       true,
	})
}

func hasFieldError(err error, field string) bool {
	var appErr *appErrors.Error
	if !errors.As(err, &appErr) {
		return false
	}
	_, ok := appErr.Fields[field]
	return ok
}

// describe flattens validation messages so CLI output shows which field failed.
func describe(err error) error {
	var appErr *appErrors.Error
	if !errors.As(err, &appErr) || len(appErr.Fields) == 0 {
		return err
	}
	parts := make([]string, 0, len(appErr.Fields))
	for field, msgs := range appErr.Fields {
		parts = append(parts, field+": "+strings.Join(msgs, "; "))
	}
	sort.Strings(parts)
	return fmt.Errorf("%s (%s)", appErr.Message, strings.Join(parts, ", "))
}
