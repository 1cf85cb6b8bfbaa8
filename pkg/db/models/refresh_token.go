package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken stores the SHA-256 hash of an issued refresh token. The raw
// token never touches the database. Rotation revokes the presented row and
// inserts a fresh one.
type RefreshToken struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	TokenHash string    `gorm:"column:token_hash;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	Revoked   bool      `gorm:"column:revoked;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
