package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/gate-violation-api/internal/models"
)

// CreateStudentRequest registers a student. Gender accepts Nam/Nữ/Khác as well as male/female/other.
type CreateStudentRequest struct {
	StudentCode   string  `json:"student_code" validate:"required,max=50"`
	FullName      string  `json:"full_name" validate:"required,max=255"`
	ClassName     string  `json:"class_name" validate:"omitempty,max=100"`
	BirthDate     string  `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Gender        string  `json:"gender" validate:"omitempty,oneof=Nam Nữ Khác male female other"`
	ContactPhone  *string `json:"contact_phone" validate:"omitempty,max=20"`
	GuardianName  *string `json:"guardian_name" validate:"omitempty,max=255"`
	GuardianPhone *string `json:"guardian_phone" validate:"omitempty,max=20"`
	Notes         *string `json:"notes" validate:"omitempty,max=1000"`
	ScenarioGroup string  `json:"scenario_group" validate:"omitempty,oneof=A B C"`
	EnrolledAt    string  `json:"enrolled_at" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateStudentRequest patches mutable student fields. Nil fields are left untouched.
type UpdateStudentRequest struct {
	FullName      *string `json:"full_name" validate:"omitempty,max=255"`
	ClassName     *string `json:"class_name" validate:"omitempty,max=100"`
	BirthDate     *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Gender        *string `json:"gender" validate:"omitempty,oneof=Nam Nữ Khác male female other"`
	ContactPhone  *string `json:"contact_phone" validate:"omitempty,max=20"`
	GuardianName  *string `json:"guardian_name" validate:"omitempty,max=255"`
	GuardianPhone *string `json:"guardian_phone" validate:"omitempty,max=20"`
	Notes         *string `json:"notes" validate:"omitempty,max=1000"`
	ScenarioGroup *string `json:"scenario_group" validate:"omitempty,oneof=A B C"`
}

// StudentListItem is a student row for the admin listing.
type StudentListItem struct {
	ID             int64      `json:"id"`
	StudentCode    string     `json:"student_code"`
	FullName       string     `json:"full_name"`
	ClassName      string     `json:"class_name"`
	Age            *int       `json:"age"`
	Gender         *string    `json:"gender"`
	ContactPhone   *string    `json:"contact_phone"`
	GuardianPhone  *string    `json:"guardian_phone"`
	Notes          *string    `json:"notes"`
	ScenarioGroup  string     `json:"scenario_group"`
	IsUnderage     bool       `json:"is_underage"`
	ViolationCount int        `json:"violations_count"`
	ValidCount     int        `json:"valid_count"`
	LastActivityAt *time.Time `json:"last_activity_at"`
}

// StudentListQuery holds listing filters.
type StudentListQuery struct {
	Search        string `form:"search" validate:"omitempty,max=100"`
	ClassName     string `form:"class_name" validate:"omitempty,max=100"`
	ScenarioGroup string `form:"scenario_group" validate:"omitempty,oneof=A B C"`
	Page          int    `form:"page" validate:"omitempty,min=1"`
	PageSize      int    `form:"page_size" validate:"omitempty,min=1,max=200"`
}

// IssueCardRequest assigns a new credential to a student.
type IssueCardRequest struct {
	CardCode  string `json:"card_code" validate:"required,max=255"`
	CardType  string `json:"card_type" validate:"omitempty,oneof=RFID QR"`
	ExpiresAt string `json:"expires_at" validate:"omitempty,datetime=2006-01-02"`
}

// UpsertSettingRequest writes a system setting.
type UpsertSettingRequest struct {
	Label       string          `json:"label" validate:"omitempty,max=255"`
	Description *string         `json:"description" validate:"omitempty,max=1000"`
	Value       json.RawMessage `json:"value" validate:"required"`
}

// StudentDetail is a single student with live age and credentials.
type StudentDetail struct {
	models.Student
	Age   *int                 `json:"age"`
	Cards []models.StudentCard `json:"cards"`
}
