package leavetype

import (
	"github.com/google/uuid"
)

// LeaveType is immutable reference data seeded at startup.
type LeaveType struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name string    `gorm:"type:varchar(50);uniqueIndex;not null"`
}

// DefaultNames are the leave types seeded when the table is empty.
var DefaultNames = []string{"Sick", "Casual", "Earned"}
