package dto

import (
	"io"
	"time"
)

// ViolationRequest is the raw ingestion payload from the vision pipeline.
// Every field arrives as text so multipart, urlencoded and JSON bodies validate alike.
type ViolationRequest struct {
	CardCode              string `form:"card_code" json:"card_code" validate:"required,max=255"`
	Timestamp             string `form:"timestamp" json:"timestamp"`
	HasPlate              string `form:"has_plate" json:"has_plate" validate:"required"`
	IsViolation           string `form:"is_violation" json:"is_violation" validate:"required"`
	StudentID             string `form:"student_id" json:"student_id" validate:"omitempty,number"`
	StudentName           string `form:"student_name" json:"student_name" validate:"omitempty,max=255"`
	StudentClass          string `form:"student_class" json:"student_class" validate:"omitempty,max=100"`
	StudentAge            string `form:"student_age" json:"student_age" validate:"omitempty,decimal"`
	LicensePlateNumber    string `form:"license_plate_number" json:"license_plate_number" validate:"omitempty,max=32"`
	ProcessingTimeSeconds string `form:"processing_time_seconds" json:"processing_time_seconds" validate:"omitempty,decimal"`
	Note                  string `form:"note" json:"note" validate:"omitempty,max=1000"`
}

// ViolationRequestFromValues builds a request from flattened form or JSON values.
func ViolationRequestFromValues(values map[string]string) ViolationRequest {
	return ViolationRequest{
		CardCode:              values["card_code"],
		Timestamp:             values["timestamp"],
		HasPlate:              values["has_plate"],
		IsViolation:           values["is_violation"],
		StudentID:             values["student_id"],
		StudentName:           values["student_name"],
		StudentClass:          values["student_class"],
		StudentAge:            values["student_age"],
		LicensePlateNumber:    values["license_plate_number"],
		ProcessingTimeSeconds: values["processing_time_seconds"],
		Note:                  values["note"],
	}
}

// EvidenceFile is an uploaded evidence image.
type EvidenceFile struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// StudentBrief is the student block of an ingestion response.
type StudentBrief struct {
	ID        int64  `json:"id"`
	FullName  string `json:"full_name"`
	ClassName string `json:"class_name"`
	Age       *int   `json:"age"`
}

// ViolationResult is returned after a successful ingestion.
type ViolationResult struct {
	AccessLogID int64         `json:"access_log_id"`
	Result      string        `json:"result"`
	Student     *StudentBrief `json:"student"`
	OccurredAt  time.Time     `json:"-"`
	ImagePath   *string       `json:"-"`
}
