package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken as persisted in the store. A row exists only while the token
// is still redeemable: redemption and logout delete it.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager on register, login
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
