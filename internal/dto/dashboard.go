package dto

import "time"

// DashboardResponse is the staff landing page payload.
type DashboardResponse struct {
	Stats            DashboardStats    `json:"stats"`
	RecentViolations []RecentViolation `json:"recent_violations"`
	ExportDefaults   DateRange         `json:"export_defaults"`
	Timezone         string            `json:"timezone"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// DashboardStats are the headline counters.
type DashboardStats struct {
	TotalStudents         int      `json:"total_students"`
	ActiveCards           int      `json:"active_cards"`
	WeeklyViolations      int      `json:"weekly_violations"`
	AverageProcessingTime *float64 `json:"average_processing_time"`
	LastSyncAt            *string  `json:"last_sync_at"`
}

// RecentViolation is one row of the dashboard feed, rendered in the display timezone.
type RecentViolation struct {
	ID                 int64   `json:"id"`
	StudentCode        *string `json:"student_code"`
	FullName           *string `json:"full_name"`
	ClassName          *string `json:"class_name"`
	Age                *int    `json:"age"`
	OccurredAt         string  `json:"occurred_at"`
	OccurredAtDisplay  string  `json:"occurred_at_display"`
	LicensePlateNumber *string `json:"license_plate_number"`
	HasLicensePlate    bool    `json:"has_license_plate"`
	ViolationReason    *string `json:"violation_reason"`
	ImageURL           *string `json:"image_url"`
}

// DateRange is an inclusive calendar date span formatted as YYYY-MM-DD.
type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}
