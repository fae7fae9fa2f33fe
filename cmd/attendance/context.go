package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"studio-attendance/internal/app"
	"studio-attendance/internal/config"
	"studio-attendance/internal/database"
	"studio-attendance/internal/service"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Debugf("no .env file loaded: %s", err.Error())
		}
		if c.configFlag != nil && *c.configFlag != "" {
			if err := os.Setenv("CONFIG_FILE", *c.configFlag); err != nil {
				c.configErr = fmt.Errorf("set config path: %w", err)
				return
			}
		}

		cfg, err := config.Load()
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		config.SetupLogging(cfg)
		c.config = cfg
	})
	return c.config, c.configErr
}

// openApp подключается к БД и собирает сервисы. Возвращаемая функция закрывает соединение.
func (c *commandContext) openApp(notifier service.Notifier) (*app.App, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := database.Close(db); err != nil {
			logrus.WithError(err).Warn("Error closing database")
		}
	}

	a, err := app.New(cfg, db, notifier)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return a, closeDB, nil
}

// openAppWithNotifier то же, что openApp, но уведомления уходят в настроенный канал
func (c *commandContext) openAppWithNotifier() (*app.App, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	notifier, err := app.NewNotifier(cfg)
	if err != nil {
		return nil, nil, err
	}
	return c.openApp(notifier)
}
