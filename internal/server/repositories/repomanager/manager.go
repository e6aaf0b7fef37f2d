package repomanager

import (
	"context"
	"database/sql"

	"github.com/memevault/memevault/internal/server/repositories/assets"
	"github.com/memevault/memevault/internal/server/repositories/assettags"
	"github.com/memevault/memevault/internal/server/repositories/devices"
	"github.com/memevault/memevault/internal/server/repositories/serverconfig"
	"github.com/memevault/memevault/internal/server/repositories/settings"
	"github.com/memevault/memevault/internal/server/repositories/shares"
	"github.com/memevault/memevault/internal/server/repositories/tags"
)

// RepositoryManager aggregates every repository over one connection pool.
type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Assets() assets.Repository
	Tags() tags.Repository
	AssetTags() assettags.Repository
	Settings() settings.Repository
	Shares() shares.Repository
	Devices() devices.Repository
	ServerConfig() serverconfig.Repository
}
