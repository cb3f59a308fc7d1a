package employee

import (
	"time"

	"github.com/google/uuid"
)

// Employee carries the leave allotment ledger. UsedLeaves only ever grows, and
// only through Repository.CommitUsage; pending requests never touch it.
type Employee struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FullName    string    `gorm:"type:varchar(255);not null"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Role        string    `gorm:"type:varchar(30);not null;default:'EMPLOYEE'"`
	TotalLeaves int       `gorm:"type:int;not null;default:0"`
	UsedLeaves  int       `gorm:"type:int;not null;default:0;check:used_leaves >= 0 AND used_leaves <= total_leaves"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Remaining is the balance available for new approvals.
func (e Employee) Remaining() int {
	return e.TotalLeaves - e.UsedLeaves
}
