package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	DatabaseDriver string `toml:"database_driver"`
	DatabaseURL    string `toml:"database_url"`

	TelegramToken string `toml:"telegram_token"`
	NotifyChatID  int64  `toml:"notify_chat_id"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	Timezone  string `toml:"timezone"`
	LockFile  string `toml:"lock_file"`

	Attendance AttendanceConfig `toml:"attendance"`
	Scheduler  SchedulerConfig  `toml:"scheduler"`

	location *time.Location
}

// AttendanceConfig правила отметок
type AttendanceConfig struct {
	CourseGraceMinutes   int `toml:"course_grace_minutes"`
	ActivityGraceMinutes int `toml:"activity_grace_minutes"`
	DutyGraceMinutes     int `toml:"duty_grace_minutes"`
	DutyCloseMinutes     int `toml:"duty_close_minutes"`
	DefaultRadius        int `toml:"default_radius"`
}

// SchedulerConfig расписания фоновых задач (cron-выражения)
type SchedulerConfig struct {
	ExpirySweepSpec          string `toml:"expiry_sweep_spec"`
	DutySweepSpec            string `toml:"duty_sweep_spec"`
	ReminderSpec             string `toml:"reminder_spec"`
	ActivationSpec           string `toml:"activation_spec"`
	RolloverSpec             string `toml:"rollover_spec"`
	ReminderLookaheadMinutes int    `toml:"reminder_lookahead_minutes"`
	ActivationLookaheadHours int    `toml:"activation_lookahead_hours"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() Config {
	return Config{
		DatabaseDriver: "sqlite",
		DatabaseURL:    "attendance.db",
		LogLevel:       "info",
		LogFormat:      "auto",
		Timezone:       "Local",
		LockFile:       "attendance.lock",
		Attendance: AttendanceConfig{
			CourseGraceMinutes:   15,
			ActivityGraceMinutes: 20,
			DutyGraceMinutes:     20,
			DutyCloseMinutes:     20,
			DefaultRadius:        100,
		},
		Scheduler: SchedulerConfig{
			ExpirySweepSpec:          "@every 1m",
			DutySweepSpec:            "*/5 * * * *",
			ReminderSpec:             "*/5 * * * *",
			ActivationSpec:           "0 * * * *",
			RolloverSpec:             "0 20 * * 0",
			ReminderLookaheadMinutes: 30,
			ActivationLookaheadHours: 24,
		},
		location: time.Local,
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем переменные окружения,
// затем TOML-файл из CONFIG_FILE (если задан)
func Load() (*Config, error) {
	cfg := Default()
	cfg.applyEnv()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.DatabaseDriver = getEnv("DB_DRIVER", c.DatabaseDriver)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramToken)
	c.NotifyChatID = getEnvAsInt("NOTIFY_CHAT_ID", c.NotifyChatID)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.Timezone = getEnv("TIMEZONE", c.Timezone)
	c.LockFile = getEnv("LOCK_FILE", c.LockFile)

	a := &c.Attendance
	a.CourseGraceMinutes = int(getEnvAsInt("COURSE_GRACE_MINUTES", int64(a.CourseGraceMinutes)))
	a.ActivityGraceMinutes = int(getEnvAsInt("ACTIVITY_GRACE_MINUTES", int64(a.ActivityGraceMinutes)))
	a.DutyGraceMinutes = int(getEnvAsInt("DUTY_GRACE_MINUTES", int64(a.DutyGraceMinutes)))
	a.DutyCloseMinutes = int(getEnvAsInt("DUTY_CLOSE_MINUTES", int64(a.DutyCloseMinutes)))
	a.DefaultRadius = int(getEnvAsInt("DEFAULT_RADIUS", int64(a.DefaultRadius)))

	s := &c.Scheduler
	s.ExpirySweepSpec = getEnv("EXPIRY_SWEEP_SPEC", s.ExpirySweepSpec)
	s.DutySweepSpec = getEnv("DUTY_SWEEP_SPEC", s.DutySweepSpec)
	s.ReminderSpec = getEnv("REMINDER_SPEC", s.ReminderSpec)
	s.ActivationSpec = getEnv("ACTIVATION_SPEC", s.ActivationSpec)
	s.RolloverSpec = getEnv("ROLLOVER_SPEC", s.RolloverSpec)
	s.ReminderLookaheadMinutes = int(getEnvAsInt("REMINDER_LOOKAHEAD_MINUTES", int64(s.ReminderLookaheadMinutes)))
	s.ActivationLookaheadHours = int(getEnvAsInt("ACTIVATION_LOOKAHEAD_HOURS", int64(s.ActivationLookaheadHours)))
}

func (c *Config) applyFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate проверяет значения и вычисляет часовой пояс
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("could not get db url")
	}

	a := c.Attendance
	if a.CourseGraceMinutes <= 0 || a.ActivityGraceMinutes <= 0 || a.DutyGraceMinutes <= 0 {
		return fmt.Errorf("grace minutes must be positive")
	}
	if a.DutyCloseMinutes <= 0 {
		return fmt.Errorf("duty close minutes must be positive")
	}
	if a.DefaultRadius <= 0 {
		return fmt.Errorf("default radius must be positive")
	}
	if c.Scheduler.ReminderLookaheadMinutes <= 0 || c.Scheduler.ActivationLookaheadHours <= 0 {
		return fmt.Errorf("scheduler lookahead must be positive")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	c.location = loc
	return nil
}

// Location возвращает часовой пояс студии
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Grace возвращает допустимое опоздание для типа плана
func (c *Config) Grace(planType string) time.Duration {
	switch planType {
	case "course":
		return time.Duration(c.Attendance.CourseGraceMinutes) * time.Minute
	case "activity":
		return time.Duration(c.Attendance.ActivityGraceMinutes) * time.Minute
	default:
		return time.Duration(c.Attendance.DutyGraceMinutes) * time.Minute
	}
}

// DutyCloseAfter через сколько после начала слота дежурство закрывается
func (c *Config) DutyCloseAfter() time.Duration {
	return time.Duration(c.Attendance.DutyCloseMinutes) * time.Minute
}

// ReminderLookahead окно напоминаний о ближайших планах
func (c *Config) ReminderLookahead() time.Duration {
	return time.Duration(c.Scheduler.ReminderLookaheadMinutes) * time.Minute
}

// ActivationLookahead за сколько до начала дежурный план становится активным
func (c *Config) ActivationLookahead() time.Duration {
	return time.Duration(c.Scheduler.ActivationLookaheadHours) * time.Hour
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}
