// Package providers contains dependency injection providers for the todosync server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/todosync/todosync-server/internal/config"
	"github.com/todosync/todosync-server/internal/logger"
)

// Args are the command-line arguments handed to the config loader.
type Args []string

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	args, err := do.Invoke[Args](i)
	if err != nil {
		args = nil
	}
	return config.LoadConfig(args)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting todosync server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"db_driver", cfg.Database.Driver,
		"data_dir", cfg.Database.DataDir,
	)

	return log, nil
}
