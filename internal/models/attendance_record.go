package models

import (
	"time"

	"gorm.io/gorm"
)

// Статусы записи посещаемости
const (
	RecordStatusPending = "pending" // Ожидает отметки
	RecordStatusPresent = "present" // Пришел вовремя
	RecordStatusLate    = "late"    // Опоздал
	RecordStatusAbsent  = "absent"  // Отсутствовал
	RecordStatusLeave   = "leave"   // Отпросился
)

type AttendanceRecord struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	PlanID     uint       `gorm:"not null;uniqueIndex:idx_record_plan_student" json:"plan_id"`
	StudentID  uint       `gorm:"not null;uniqueIndex:idx_record_plan_student;index" json:"student_id"`
	Status     string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SignInTime *time.Time `json:"sign_in_time"`
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	Remark     string     `json:"remark"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// BeforeSave хранит моменты времени в UTC
func (r *AttendanceRecord) BeforeSave(tx *gorm.DB) error {
	r.SignInTime = utcPtr(r.SignInTime)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return nil
}

// recordTransitions таблица допустимых переходов статусов
var recordTransitions = map[string][]string{
	RecordStatusPending: {RecordStatusPresent, RecordStatusLate, RecordStatusAbsent, RecordStatusLeave},
	RecordStatusAbsent:  {RecordStatusLeave},
}

// CanTransition проверяет, разрешен ли переход from -> to
func CanTransition(from, to string) bool {
	for _, allowed := range recordTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsValidRecordStatus проверяет статус записи
func IsValidRecordStatus(status string) bool {
	switch status {
	case RecordStatusPending, RecordStatusPresent, RecordStatusLate, RecordStatusAbsent, RecordStatusLeave:
		return true
	}
	return false
}

// AcceptsCheckIn проверяет, можно ли пытаться отметиться по этой записи
func (r *AttendanceRecord) AcceptsCheckIn() bool {
	return r.Status == RecordStatusPending || r.Status == RecordStatusAbsent
}

// IsValid проверяет валидность данных
func (r *AttendanceRecord) IsValid() bool {
	if r.PlanID == 0 || r.StudentID == 0 {
		return false
	}
	return IsValidRecordStatus(r.Status)
}
