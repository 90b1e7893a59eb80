package accounts

import (
	"time"

	"github.com/google/uuid"
)

type TwoFactorMethod string

const (
	TwoFactorEmail TwoFactorMethod = "email"
	TwoFactorSMS   TwoFactorMethod = "sms"
)

type Account struct {
	ID               uuid.UUID
	Username         string
	Email            string
	Phone            string
	PasswordHash     string
	TwoFactorEnabled bool
	TwoFactorMethod  TwoFactorMethod
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
