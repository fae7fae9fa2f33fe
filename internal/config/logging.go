package config

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// SetupLogging настраивает стандартный логгер logrus по конфигурации.
// Сервисы копируют уровень и форматтер стандартного логгера при создании.
func SetupLogging(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(formatterFor(cfg.LogFormat, isatty.IsTerminal(os.Stdout.Fd())))
}

func formatterFor(format string, terminal bool) logrus.Formatter {
	switch format {
	case "json":
		return &logrus.JSONFormatter{}
	case "text":
		return textFormatter()
	}
	if terminal {
		return textFormatter()
	}
	return &logrus.JSONFormatter{}
}

func textFormatter() *logrus.TextFormatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
}
