// Package weekends разбирает производственный календарь в формате xmlcalendar.ru (JSON).
package weekends

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

type calendarJSON struct {
	Year   int         `json:"year"`
	Months []monthJSON `json:"months"`
}

type monthJSON struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

// Calendar нерабочие дни одного года
type Calendar struct {
	Year int
	Days []time.Time
}

// Load читает календарь из файла
func Load(path string, loc *time.Location) (*Calendar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar file: %w", err)
	}
	defer file.Close()

	return Parse(file, loc)
}

// Parse разбирает календарь. Дни с "*" (сокращенные рабочие) пропускаются,
// "+" (перенесенный выходной) считается нерабочим.
func Parse(r io.Reader, loc *time.Location) (*Calendar, error) {
	var raw calendarJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calendar: %w", err)
	}
	if raw.Year <= 0 {
		return nil, fmt.Errorf("calendar year is missing")
	}
	if loc == nil {
		loc = time.Local
	}

	cal := &Calendar{Year: raw.Year}
	for _, month := range raw.Months {
		if month.Month < 1 || month.Month > 12 {
			return nil, fmt.Errorf("invalid month %d", month.Month)
		}
		for _, token := range strings.Split(month.Days, ",") {
			token = strings.TrimSpace(token)
			if token == "" || strings.HasSuffix(token, "*") {
				continue
			}
			token = strings.TrimSuffix(token, "+")

			day, err := strconv.Atoi(token)
			if err != nil {
				return nil, fmt.Errorf("failed to parse day %q in month %d: %w", token, month.Month, err)
			}
			date := time.Date(raw.Year, time.Month(month.Month), day, 0, 0, 0, 0, loc)
			if date.Day() != day {
				return nil, fmt.Errorf("day %d does not exist in month %d", day, month.Month)
			}
			cal.Days = append(cal.Days, date)
		}
	}
	return cal, nil
}

// Contains проверяет, является ли дата нерабочей
func (c *Calendar) Contains(date time.Time) bool {
	for _, day := range c.Days {
		if day.Year() == date.Year() && day.Month() == date.Month() && day.Day() == date.Day() {
			return true
		}
	}
	return false
}
