package models

import (
	"time"

	"gorm.io/datatypes"
)

// ClosedDay день, в который студия не работает (праздник или перенесенный выходной)
type ClosedDay struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Date      datatypes.Date `gorm:"uniqueIndex;not null" json:"date"`
	Year      int            `gorm:"index" json:"year"`
	Month     int            `gorm:"index" json:"month"`
	Day       int            `json:"day"`
	CreatedAt time.Time      `json:"created_at"`
}

func (ClosedDay) TableName() string {
	return "closed_days"
}

func (d *ClosedDay) IsValid() bool {
	t := time.Time(d.Date)
	return !t.IsZero() && d.Year == t.Year() && d.Month == int(t.Month()) && d.Day == t.Day()
}

// NewClosedDay строит запись по календарной дате
func NewClosedDay(date time.Time) ClosedDay {
	return ClosedDay{
		Date:  CalendarDate(date),
		Year:  date.Year(),
		Month: int(date.Month()),
		Day:   date.Day(),
	}
}
