package dto

// CheckRequest asks whether a scanned code belongs to a known student.
type CheckRequest struct {
	CardCode string `form:"card_code" json:"card_code" validate:"required,max=255"`
}

// CheckStudent is the student block returned by POST /api/check.
// Several keys duplicate each other for compatibility with camera firmware.
type CheckStudent struct {
	ID          int64   `json:"id"`
	CardCode    string  `json:"card_code"`
	FullName    string  `json:"full_name"`
	DateOfBirth *string `json:"date_of_birth"`
	DOB         *string `json:"dob"`
	ClassName   string  `json:"class_name"`
	Class       string  `json:"class"`
	StudentCode string  `json:"student_code"`
	Gender      *string `json:"gender"`
	Age         *int    `json:"age"`
	AgeYears    *int    `json:"age_years"`
	IsUnder16   *bool   `json:"is_under_16"`
}

// StudentLookup is the body of GET /api/students/{card_code}.
type StudentLookup struct {
	ID          int64   `json:"id"`
	CardCode    string  `json:"card_code"`
	FullName    string  `json:"full_name"`
	DateOfBirth *string `json:"date_of_birth"`
	DOB         *string `json:"dob"`
	ClassName   string  `json:"class_name"`
	Class       string  `json:"class"`
	Lop         string  `json:"lop"`
	StudentCode string  `json:"student_code"`
	Gender      *string `json:"gender"`
	Age         *int    `json:"age"`
}
