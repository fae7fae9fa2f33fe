package database_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"studio-attendance/internal/database"
	"studio-attendance/internal/testsupport"
)

type sampleRow struct {
	ID   uint
	Name string
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	std := logrus.StandardLogger()
	prevOut, prevLevel := std.Out, std.GetLevel()
	std.SetOutput(&buf)
	std.SetLevel(logrus.InfoLevel)
	t.Cleanup(func() {
		std.SetOutput(prevOut)
		std.SetLevel(prevLevel)
	})
	return &buf
}

func TestOpenDoesNotLogRecordNotFound(t *testing.T) {
	buf := captureLogs(t)
	db := testsupport.MustOpenDB(t, testsupport.NewConfig(t))
	if err := db.AutoMigrate(&sampleRow{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	var row sampleRow
	err := db.First(&row, 42).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("First err = %v, want ErrRecordNotFound", err)
	}
	if strings.Contains(buf.String(), "record not found") {
		t.Fatalf("record not found was logged: %s", buf.String())
	}

	if err := db.Table("missing_table").Find(&[]sampleRow{}).Error; err == nil {
		t.Fatal("query against a missing table succeeded")
	}
	if !strings.Contains(buf.String(), "missing_table") {
		t.Fatalf("failed query was not logged: %q", buf.String())
	}
}

func TestNewGormConfigUsesUTCClock(t *testing.T) {
	cfg := database.NewGormConfig()
	if cfg.NowFunc == nil {
		t.Fatal("NowFunc is not set")
	}
	if loc := cfg.NowFunc().Location(); loc != time.UTC {
		t.Fatalf("NowFunc location = %s, want UTC", loc)
	}
	if !cfg.TranslateError {
		t.Fatal("TranslateError is disabled")
	}
}
