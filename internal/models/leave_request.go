package models

import (
	"time"

	"gorm.io/gorm"
)

type LeaveRequest struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	StudentID        uint       `gorm:"not null;index" json:"student_id"`
	AttendancePlanID uint       `gorm:"not null;index" json:"attendance_plan_id"`
	Type             string     `gorm:"type:varchar(20);not null" json:"type"` // sick, personal, other
	Reason           string     `gorm:"type:text" json:"reason"`
	StartTime        time.Time  `gorm:"not null" json:"start_time"`
	EndTime          time.Time  `gorm:"not null" json:"end_time"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ApproverID       *uint      `json:"approver_id"`
	DecidedAt        *time.Time `json:"decided_at"`
	RejectReason     string     `gorm:"type:text" json:"reject_reason"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// BeforeSave хранит моменты времени в UTC
func (lr *LeaveRequest) BeforeSave(tx *gorm.DB) error {
	lr.StartTime = lr.StartTime.UTC()
	lr.EndTime = lr.EndTime.UTC()
	lr.DecidedAt = utcPtr(lr.DecidedAt)
	lr.CreatedAt = lr.CreatedAt.UTC()
	lr.UpdatedAt = lr.UpdatedAt.UTC()
	return nil
}

const (
	LeaveStatusPending  = "pending"
	LeaveStatusApproved = "approved"
	LeaveStatusRejected = "rejected"
)

const (
	LeaveTypeSick     = "sick"
	LeaveTypePersonal = "personal"
	LeaveTypeOther    = "other"
)

// IsDecided проверяет, принято ли решение по заявке
func (lr *LeaveRequest) IsDecided() bool {
	return lr.Status == LeaveStatusApproved || lr.Status == LeaveStatusRejected
}
