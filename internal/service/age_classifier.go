package service

import (
	"time"

	"github.com/noah-isme/gate-violation-api/internal/models"
)

// UnderageThreshold is the minimum age for riding a plated vehicle.
const UnderageThreshold = 16

// AgeVerdict is the outcome of age classification. Both fields are nil when the birth date is unknown.
type AgeVerdict struct {
	Age       *int
	IsUnder16 *bool
}

// Classify computes whole years between birth and ref plus the under-16 flag.
func Classify(birth *time.Time, ref time.Time) AgeVerdict {
	if birth == nil || birth.IsZero() {
		return AgeVerdict{}
	}
	age := AgeOn(*birth, ref)
	under := age < UnderageThreshold
	return AgeVerdict{Age: &age, IsUnder16: &under}
}

// AgeOn returns completed years at ref. A Feb 29 birthday falls on Mar 1 in
// non-leap years, which is how time.Date normalises the date. Birth dates after
// ref yield 0.
func AgeOn(birth, ref time.Time) int {
	age := ref.Year() - birth.Year()
	birthday := time.Date(ref.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	if today.Before(birthday) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// CurrentAge is the live age of a student. The stored is_underage flag is a creation snapshot and is not consulted.
func CurrentAge(student *models.Student, now time.Time) *int {
	if student == nil {
		return nil
	}
	return Classify(student.BirthDate, now).Age
}
