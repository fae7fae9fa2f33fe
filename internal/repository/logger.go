package repository

import "github.com/sirupsen/logrus"

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(logrus.StandardLogger().Formatter)
	logger.SetLevel(logrus.GetLevel())
	return logger
}
