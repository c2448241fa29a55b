package models

import "time"

// Gender is the normalised gender of a student.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ScenarioGroup tags a student for evaluation runs. Group B is expected to be flagged.
type ScenarioGroup string

const (
	ScenarioGroupA ScenarioGroup = "A"
	ScenarioGroupB ScenarioGroup = "B"
	ScenarioGroupC ScenarioGroup = "C"
)

// Student is a person enrolled at the school. Rows are never hard-deleted.
type Student struct {
	ID            int64         `db:"id" json:"id"`
	StudentCode   string        `db:"student_code" json:"student_code"`
	FullName      string        `db:"full_name" json:"full_name"`
	ClassName     string        `db:"class_name" json:"class_name"`
	BirthDate     *time.Time    `db:"birth_date" json:"birth_date"`
	Gender        *Gender       `db:"gender" json:"gender"`
	AvatarPath    *string       `db:"avatar_path" json:"avatar_path,omitempty"`
	ContactPhone  *string       `db:"contact_phone" json:"contact_phone,omitempty"`
	GuardianName  *string       `db:"guardian_name" json:"guardian_name,omitempty"`
	GuardianPhone *string       `db:"guardian_phone" json:"guardian_phone,omitempty"`
	Notes         *string       `db:"notes" json:"notes,omitempty"`
	ScenarioGroup ScenarioGroup `db:"scenario_group" json:"scenario_group"`
	// IsUnderage is a snapshot taken at creation and is never recomputed.
	IsUnderage bool       `db:"is_underage" json:"is_underage"`
	EnrolledAt *time.Time `db:"enrolled_at" json:"enrolled_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search        string
	ClassName     string
	ScenarioGroup ScenarioGroup
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// StudentSummary is a list row with access activity counters.
type StudentSummary struct {
	Student
	ViolationCount int        `db:"violation_count" json:"violation_count"`
	ValidCount     int        `db:"valid_count" json:"valid_count"`
	LastActivityAt *time.Time `db:"last_activity_at" json:"last_activity_at"`
}
