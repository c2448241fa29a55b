package models

import "time"

// CardType enumerates supported gate credentials.
type CardType string

const (
	CardTypeRFID CardType = "RFID"
	CardTypeQR   CardType = "QR"
)

// StudentCard is a physical or virtual credential. Cards are deactivated, never deleted.
type StudentCard struct {
	ID        int64      `db:"id" json:"id"`
	StudentID int64      `db:"student_id" json:"student_id"`
	CardCode  string     `db:"card_code" json:"card_code"`
	CardType  CardType   `db:"card_type" json:"card_type"`
	IssuedAt  *time.Time `db:"issued_at" json:"issued_at,omitempty"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
