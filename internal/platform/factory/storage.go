package factory

import (
	"fmt"

	"github.com/mcndt/noteshare.space/internal/config"
	"github.com/mcndt/noteshare.space/internal/store"
	"github.com/mcndt/noteshare.space/internal/store/postgres"
	"github.com/mcndt/noteshare.space/internal/store/sqlite"
)

// NewStore returns the store adapter selected by cfg.DBDriver.
func NewStore(cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	case "postgres":
		return postgres.New(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}
