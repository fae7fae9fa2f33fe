package models

import "time"

// Course минимальная проекция курса для проверки записи на курс
type Course struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

type CourseStudent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_course_student" json:"course_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_course_student;index" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (CourseStudent) TableName() string {
	return "course_students"
}

// Статусы брони на мероприятие
const (
	ReservationReserved  = "reserved"
	ReservationCancelled = "cancelled"
	ReservationCheckedIn = "checked_in"
)

type ActivityReservation struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	PlanID    uint      `gorm:"not null;uniqueIndex:idx_reservation_plan_student" json:"plan_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_reservation_plan_student" json:"student_id"`
	Status    string    `gorm:"type:varchar(20);not null;default:'reserved'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ActivityReservation) TableName() string {
	return "activity_reservations"
}
