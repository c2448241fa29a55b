package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AccessResult is the outcome of a gate event.
type AccessResult string

const (
	AccessResultValid     AccessResult = "valid"
	AccessResultViolation AccessResult = "violation"
)

// Metadata keys written by ingestion.
const (
	MetaCardCode              = "card_code"
	MetaStudentName           = "student_name"
	MetaStudentClass          = "student_class"
	MetaScenarioGroup         = "scenario_group"
	MetaAgeSnapshot           = "age_snapshot"
	MetaDetectedAt            = "detected_at"
	MetaProcessingTimeSeconds = "processing_time_seconds"
	MetaNote                  = "note"
)

// Metadata is a JSON object column.
type Metadata map[string]interface{}

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
	out := Metadata{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	*m = out
	return nil
}

// String returns the string value stored under key, or "".
func (m Metadata) String(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// AccessLog is one gate event. Rows are immutable after insert.
type AccessLog struct {
	ID                 int64        `db:"id" json:"id"`
	StudentID          *int64       `db:"student_id" json:"student_id"`
	StudentCardID      *int64       `db:"student_card_id" json:"student_card_id"`
	OccurredAt         time.Time    `db:"occurred_at" json:"occurred_at"`
	Result             AccessResult `db:"result" json:"result"`
	HasLicensePlate    bool         `db:"has_license_plate" json:"has_license_plate"`
	LicensePlateNumber *string      `db:"license_plate_number" json:"license_plate_number"`
	CapturedImagePath  *string      `db:"captured_image_path" json:"captured_image_path"`
	ViolationReason    *string      `db:"violation_reason" json:"violation_reason"`
	StudentAge         *int         `db:"student_age" json:"student_age"`
	Metadata           Metadata     `db:"metadata" json:"metadata"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

// AccessLogFilter narrows access log listings. Zero values are ignored.
type AccessLogFilter struct {
	From     *time.Time
	To       *time.Time
	Result   AccessResult
	Search   string
	Page     int
	PageSize int
}

// AccessLogDetail joins the owning student and card for presentation.
type AccessLogDetail struct {
	AccessLog
	StudentCode      *string `db:"student_code" json:"student_code"`
	StudentName      *string `db:"student_name" json:"student_name"`
	StudentClassName *string    `db:"student_class_name" json:"student_class_name"`
	StudentBirthDate *time.Time `db:"student_birth_date" json:"student_birth_date"`
	CardCode         *string `db:"card_code" json:"card_code"`
}

// DisplayName prefers the joined student name, then the metadata snapshot.
func (d AccessLogDetail) DisplayName() string {
	if d.StudentName != nil && *d.StudentName != "" {
		return *d.StudentName
	}
	return d.Metadata.String(MetaStudentName)
}

// DisplayClass prefers the joined class, then the metadata snapshot.
func (d AccessLogDetail) DisplayClass() string {
	if d.StudentClassName != nil && *d.StudentClassName != "" {
		return *d.StudentClassName
	}
	return d.Metadata.String(MetaStudentClass)
}

// DisplayCardCode prefers the joined card, then the metadata snapshot.
func (d AccessLogDetail) DisplayCardCode() string {
	if d.CardCode != nil && *d.CardCode != "" {
		return *d.CardCode
	}
	return d.Metadata.String(MetaCardCode)
}
