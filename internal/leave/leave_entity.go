package leave

import (
	"time"

	"go-elms/internal/employee"
	"go-elms/internal/leavetype"

	"github.com/google/uuid"
)

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

// LeaveRequest is the audit record of one leave application. Requests are never
// deleted; a resolved request keeps its resolver and timestamp forever.
// ResolvedBy and ResolvedOn are set exactly when Status is terminal.
type LeaveRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null"`

	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`
	NoOfDays  int       `gorm:"type:int;not null;check:no_of_days >= 1"`
	Remarks   string    `gorm:"type:text"`

	Status    string    `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_requests_status"`
	AppliedOn time.Time `gorm:"not null;index:idx_leave_requests_applied_on"`

	ResolvedBy      *uuid.UUID `gorm:"type:uuid"`
	ResolvedOn      *time.Time
	ResolverRemarks *string `gorm:"type:text"`

	// Associations exist for the migration's foreign keys; reads go through the
	// repository's joined projections instead.
	Employee  *employee.Employee   `gorm:"foreignKey:EmployeeID" json:"-"`
	LeaveType *leavetype.LeaveType `gorm:"foreignKey:LeaveTypeID" json:"-"`
}

// IsTerminal reports whether the status admits no further transition.
func IsTerminal(status string) bool {
	switch status {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}
