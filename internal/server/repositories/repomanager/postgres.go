// Package repomanager wires the PostgreSQL repositories to one *sql.DB and
// runs the embedded migrations on startup.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/memevault/memevault/internal/server/migrations"
	"github.com/memevault/memevault/internal/server/repositories/assets"
	"github.com/memevault/memevault/internal/server/repositories/assettags"
	"github.com/memevault/memevault/internal/server/repositories/devices"
	"github.com/memevault/memevault/internal/server/repositories/serverconfig"
	"github.com/memevault/memevault/internal/server/repositories/settings"
	"github.com/memevault/memevault/internal/server/repositories/shares"
	"github.com/memevault/memevault/internal/server/repositories/tags"
)

type PostgresRepositoryManager struct {
	db           *sql.DB
	assets       assets.Repository
	tags         tags.Repository
	assetTags    assettags.Repository
	settings     settings.Repository
	shares       shares.Repository
	devices      devices.Repository
	serverConfig serverconfig.Repository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Assets() assets.Repository {
	return m.assets
}

func (m *PostgresRepositoryManager) Tags() tags.Repository {
	return m.tags
}

func (m *PostgresRepositoryManager) AssetTags() assettags.Repository {
	return m.assetTags
}

func (m *PostgresRepositoryManager) Settings() settings.Repository {
	return m.settings
}

func (m *PostgresRepositoryManager) Shares() shares.Repository {
	return m.shares
}

func (m *PostgresRepositoryManager) Devices() devices.Repository {
	return m.devices
}

func (m *PostgresRepositoryManager) ServerConfig() serverconfig.Repository {
	return m.serverConfig
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func NewPostgresRepositoryManager(dsn string) (RepositoryManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:           db,
		assets:       assets.NewPostgresRepository(db),
		tags:         tags.NewPostgresRepository(db),
		assetTags:    assettags.NewPostgresRepository(db),
		settings:     settings.NewPostgresRepository(db),
		shares:       shares.NewPostgresRepository(db),
		devices:      devices.NewPostgresRepository(db),
		serverConfig: serverconfig.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
