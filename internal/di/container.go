package di

import (
	"go.uber.org/dig"

	"github.com/mikey/sms-spam-explainer/internal/config"
	"github.com/mikey/sms-spam-explainer/internal/logging"
)

// BuildContainer creates and configures a dependency injection container
// for the long running daemon
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	return container, nil
}
