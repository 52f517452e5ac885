package factory

import (
	"fmt"

	"github.com/deva-ai/deva/internal/config"
	"github.com/deva-ai/deva/internal/store"
	"github.com/deva-ai/deva/internal/store/postgres"
	"github.com/deva-ai/deva/internal/store/sqlite"
)

// NewStore selects the storage driver based on cfg.DBDriver.
func NewStore(cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	case "postgres":
		return postgres.New(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
