package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is the login identity. Role is denormalized from the employee record so
// the token can be minted without a join.
type User struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EmployeeID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Name       string     `gorm:"type:varchar(255);not null"`
	Email      string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	Password   string     `gorm:"type:varchar(255);not null"`
	Role       string     `gorm:"type:varchar(20);not null"`
	IsActive   bool       `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
