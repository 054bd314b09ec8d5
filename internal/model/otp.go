package model

import "time"

// OTP purposes
const (
	PurposeEmailConfirmation = "email_confirmation"
	PurposePasswordReset     = "password_reset"
)

// OTP is a hashed one-time code bound to an email and a purpose.
// Only the hash is ever stored.
type OTP struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;index:idx_otp_lookup,priority:1"`
	CodeHash  string    `json:"-" gorm:"type:varchar(64);not null"`
	Purpose   string    `json:"purpose" gorm:"type:varchar(32);not null;index:idx_otp_lookup,priority:2"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Used      bool      `json:"used" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_otp_lookup,priority:3"`
}

// ValidPurpose reports whether p is a known OTP purpose
func ValidPurpose(p string) bool {
	return p == PurposeEmailConfirmation || p == PurposePasswordReset
}

// Usable reports whether the record can still be consumed at now.
func (o *OTP) Usable(now time.Time) bool {
	return !o.Used && o.ExpiresAt.After(now)
}
