package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttendanceStatistics struct {
	ID       uint           `gorm:"primarykey" json:"id"`
	Type     string         `gorm:"type:varchar(20);not null;uniqueIndex:idx_stat_type_date" json:"type"`
	StatDate datatypes.Date `gorm:"not null;uniqueIndex:idx_stat_type_date" json:"stat_date"`

	Total   int `gorm:"not null;default:0" json:"total"`
	Present int `gorm:"not null;default:0" json:"present"`
	Late    int `gorm:"not null;default:0" json:"late"`
	Absent  int `gorm:"not null;default:0" json:"absent"`
	Leave   int `gorm:"not null;default:0" json:"leave"`
	Pending int `gorm:"not null;default:0" json:"pending"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AttendanceStatistics) TableName() string {
	return "attendance_statistics"
}

// StatusCount количество записей в одном статусе
type StatusCount struct {
	Status string
	Count  int
}

// ApplyCounts пересчитывает показатели из количеств по статусам
func (s *AttendanceStatistics) ApplyCounts(counts []StatusCount) {
	s.Total, s.Present, s.Late, s.Absent, s.Leave, s.Pending = 0, 0, 0, 0, 0, 0
	for _, c := range counts {
		s.Total += c.Count
		switch c.Status {
		case RecordStatusPresent:
			s.Present = c.Count
		case RecordStatusLate:
			s.Late = c.Count
		case RecordStatusAbsent:
			s.Absent = c.Count
		case RecordStatusLeave:
			s.Leave = c.Count
		case RecordStatusPending:
			s.Pending = c.Count
		}
	}
}

// AttendanceRate доля пришедших (вовремя или с опозданием)
func (s *AttendanceStatistics) AttendanceRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Present+s.Late) / float64(s.Total)
}
