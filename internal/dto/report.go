package dto

import "time"

// ViolationListItem is one row of the paginated access log listing.
type ViolationListItem struct {
	ID                 int64                  `json:"id"`
	OccurredAt         time.Time              `json:"occurred_at"`
	Result             string                 `json:"result"`
	HasLicensePlate    bool                   `json:"has_license_plate"`
	LicensePlateNumber *string                `json:"license_plate_number"`
	ViolationReason    *string                `json:"violation_reason"`
	ImageURL           *string                `json:"image_url"`
	Student            *ViolationStudent      `json:"student"`
	Metadata           map[string]interface{} `json:"metadata"`
}

// ViolationStudent is the student summary embedded in listings.
type ViolationStudent struct {
	ID          int64  `json:"id"`
	StudentCode string `json:"student_code"`
	FullName    string `json:"full_name"`
	ClassName   string `json:"class_name"`
	Age         *int   `json:"age"`
}

// ViolationListQuery holds listing filters from the query string.
type ViolationListQuery struct {
	Result    string `form:"result" validate:"omitempty,oneof=valid violation"`
	Search    string `form:"search" validate:"omitempty,max=100"`
	StartDate string `form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"page_size" validate:"omitempty,min=1,max=200"`
}

// ExportQuery selects the export date range.
type ExportQuery struct {
	StartDate string `form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// ExportSummary aggregates the exported rows.
type ExportSummary struct {
	Total          int          `json:"total"`
	UniqueStudents int          `json:"unique_students"`
	ByClass        []ClassCount `json:"by_class"`
}

// ClassCount is a per-class violation tally, sorted descending.
type ClassCount struct {
	ClassName string `json:"class_name"`
	Count     int    `json:"count"`
}

// ExportFile is a rendered export ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
	Summary     ExportSummary
}
