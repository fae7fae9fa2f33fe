package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// DutySlotCount количество слотов дежурства в сутках
const DutySlotCount = 5

// DutySlot фиксированный временной слот дежурства
type DutySlot struct {
	Number      int
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
}

// DutySlots пять ежедневных слотов дежурства
var DutySlots = [DutySlotCount]DutySlot{
	{Number: 1, StartHour: 8, StartMinute: 30, EndHour: 10, EndMinute: 0},
	{Number: 2, StartHour: 10, StartMinute: 20, EndHour: 11, EndMinute: 50},
	{Number: 3, StartHour: 14, StartMinute: 0, EndHour: 15, EndMinute: 30},
	{Number: 4, StartHour: 15, StartMinute: 50, EndHour: 17, EndMinute: 20},
	{Number: 5, StartHour: 19, StartMinute: 0, EndHour: 20, EndMinute: 30},
}

// SlotByNumber возвращает слот по номеру (1..5)
func SlotByNumber(number int) (DutySlot, bool) {
	if number < 1 || number > DutySlotCount {
		return DutySlot{}, false
	}
	return DutySlots[number-1], true
}

// Window возвращает окно слота в указанный день
func (s DutySlot) Window(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), s.StartHour, s.StartMinute, 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), s.EndHour, s.EndMinute, 0, 0, day.Location())
	return start, end
}

// Label форматирует слот для отображения
func (s DutySlot) Label() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", s.StartHour, s.StartMinute, s.EndHour, s.EndMinute)
}

type DutySchedule struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	ScheduleDate datatypes.Date `gorm:"not null;index" json:"schedule_date"`
	Slot         int            `gorm:"not null;check:slot >= 1 AND slot <= 5" json:"slot"`
	Location     string         `json:"location"`
	Latitude     float64        `gorm:"not null;default:0" json:"latitude"`
	Longitude    float64        `gorm:"not null;default:0" json:"longitude"`
	Radius       int            `gorm:"not null;default:100" json:"radius"`
	CreatedBy    uint           `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Students []DutyScheduleStudent `gorm:"foreignKey:ScheduleID" json:"students"`
}

func (DutySchedule) TableName() string {
	return "duty_schedules"
}

// Date возвращает дату дежурства (полночь UTC того же календарного дня)
func (ds *DutySchedule) Date() time.Time {
	return DateIn(ds.ScheduleDate, time.UTC)
}

// DateIn возвращает дату дежурства как полночь в часовом поясе студии
func (ds *DutySchedule) DateIn(loc *time.Location) time.Time {
	return DateIn(ds.ScheduleDate, loc)
}

// Window возвращает окно дежурства по слоту в часовом поясе студии
func (ds *DutySchedule) Window(loc *time.Location) (time.Time, time.Time) {
	slot, ok := SlotByNumber(ds.Slot)
	if !ok {
		return time.Time{}, time.Time{}
	}
	return slot.Window(ds.DateIn(loc))
}

// StudentIDs возвращает список назначенных участников
func (ds *DutySchedule) StudentIDs() []uint {
	ids := make([]uint, 0, len(ds.Students))
	for _, s := range ds.Students {
		ids = append(ids, s.StudentID)
	}
	return ids
}

// IsValid проверяет валидность данных
func (ds *DutySchedule) IsValid() bool {
	if ds.Date().IsZero() {
		return false
	}
	if _, ok := SlotByNumber(ds.Slot); !ok {
		return false
	}
	return ds.Radius > 0
}

type DutyScheduleStudent struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	ScheduleID uint      `gorm:"not null;uniqueIndex:idx_schedule_student" json:"schedule_id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_schedule_student;index" json:"student_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (DutyScheduleStudent) TableName() string {
	return "duty_schedule_students"
}

// WeekStart возвращает понедельник недели, содержащей дату
func WeekStart(t time.Time) time.Time {
	day := DateOf(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
