package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Типы планов посещаемости
const (
	PlanTypeCourse   = "course"
	PlanTypeActivity = "activity"
	PlanTypeDuty     = "duty"
)

// Статусы плана
const (
	PlanStatusActive   = "active"
	PlanStatusInactive = "inactive"
)

// DefaultPlanRadius радиус геозоны по умолчанию (метры)
const DefaultPlanRadius = 100

type AttendancePlan struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Type      string    `gorm:"type:varchar(20);not null;index" json:"type"`
	Name      string    `gorm:"not null" json:"name"`
	StartTime time.Time `gorm:"not null;index" json:"start_time"`
	EndTime   time.Time `gorm:"not null;index" json:"end_time"`

	// Геозона
	Latitude  float64 `gorm:"not null;default:0" json:"latitude"`
	Longitude float64 `gorm:"not null;default:0" json:"longitude"`
	Radius    int     `gorm:"not null;default:100" json:"radius"`

	// Привязка к курсу или к слоту дежурства
	CourseID   *uint `gorm:"index" json:"course_id"`
	ScheduleID *uint `gorm:"uniqueIndex" json:"schedule_id"`

	Status         string     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Processed      bool       `gorm:"not null;default:false;index" json:"processed"`
	ReminderSentAt *time.Time `json:"reminder_sent_at"`

	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AttendancePlan) TableName() string {
	return "attendance_plans"
}

// IsActive проверяет, открыт ли план для отметок
func (p *AttendancePlan) IsActive() bool {
	return p.Status == PlanStatusActive
}

// Duration возвращает продолжительность окна плана
func (p *AttendancePlan) Duration() time.Duration {
	return p.EndTime.Sub(p.StartTime)
}

// InWindow проверяет, попадает ли момент в окно [start, end]
func (p *AttendancePlan) InWindow(t time.Time) bool {
	return !t.Before(p.StartTime) && !t.After(p.EndTime)
}

// CloseBoundary возвращает момент, после которого незакрытые записи считаются пропуском.
// Для дежурств окно короткое, поэтому граница считается от начала слота.
func (p *AttendancePlan) CloseBoundary(dutyCloseAfter time.Duration) time.Time {
	if p.Type == PlanTypeDuty {
		return p.StartTime.Add(dutyCloseAfter)
	}
	return p.EndTime
}

// BeforeSave хранит моменты времени в UTC, чтобы сравнения в запросах шли по одной шкале
func (p *AttendancePlan) BeforeSave(tx *gorm.DB) error {
	p.StartTime = p.StartTime.UTC()
	p.EndTime = p.EndTime.UTC()
	p.ReminderSentAt = utcPtr(p.ReminderSentAt)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return nil
}

// StatDate возвращает дату (в часовом поясе студии), к которой относится статистика плана
func (p *AttendancePlan) StatDate(loc *time.Location) time.Time {
	return DateOf(p.StartTime.In(loc))
}

// IsValidPlanType проверяет тип плана
func IsValidPlanType(planType string) bool {
	switch planType {
	case PlanTypeCourse, PlanTypeActivity, PlanTypeDuty:
		return true
	}
	return false
}

// IsValid проверяет валидность данных
func (p *AttendancePlan) IsValid() bool {
	if !IsValidPlanType(p.Type) {
		return false
	}
	if p.Name == "" {
		return false
	}
	if p.StartTime.IsZero() || p.EndTime.IsZero() || !p.StartTime.Before(p.EndTime) {
		return false
	}
	if p.Radius <= 0 {
		return false
	}
	if p.Status != PlanStatusActive && p.Status != PlanStatusInactive {
		return false
	}
	switch p.Type {
	case PlanTypeCourse:
		return p.CourseID != nil && p.ScheduleID == nil
	case PlanTypeDuty:
		return p.ScheduleID != nil && p.CourseID == nil
	default:
		return p.CourseID == nil && p.ScheduleID == nil
	}
}

// DateOf обрезает время до начала суток в той же зоне
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CalendarDate переводит календарный день t в значение колонки даты.
// Хранится полночь UTC с тем же годом, месяцем и днем.
func CalendarDate(t time.Time) datatypes.Date {
	return datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}

// DateIn восстанавливает календарный день колонки как полночь в зоне loc.
// Драйверы возвращают дату в разных зонах, поэтому берутся только год, месяц и день.
func DateIn(d datatypes.Date, loc *time.Location) time.Time {
	y, m, day := time.Time(d).Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
