// Package clubcalendar wires the club and event directory services over a
// Postgres database. Host applications embed App and drive the services
// directly; there is no network surface.
package clubcalendar

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"clubcalendar/config"
	"clubcalendar/internal/adapters/auth"
	"clubcalendar/internal/database"
	"clubcalendar/internal/domain"
	"clubcalendar/internal/repository/postgres"
	"clubcalendar/internal/services"
)

const serviceTimeout = 5 * time.Second

// App bundles the wired services and the database handle they share.
type App struct {
	Users      domain.UserService
	Governance domain.GovernanceService
	Directory  domain.DirectoryService

	db *sql.DB
}

// New loads configuration, opens the database, applies pending migrations and
// wires the services. The caller owns the returned App and must Close it.
func New(logger *slog.Logger) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := database.RunMigrations(cfg.DBUrl); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	app := NewWithDB(db, logger)
	return app, nil
}

// NewWithDB wires the services over an already open database handle. It skips
// config loading and migrations; tests use it with a mock handle.
func NewWithDB(db *sql.DB, logger *slog.Logger) *App {
	userRepo := postgres.NewUserRepository(db)
	clubRepo := postgres.NewClubRepository(db)
	membershipRepo := postgres.NewMembershipRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)

	return &App{
		Users:      services.NewUserService(userRepo, hasher, logger, serviceTimeout),
		Governance: services.NewGovernanceService(clubRepo, membershipRepo, logger, serviceTimeout),
		Directory:  services.NewDirectoryService(eventRepo, membershipRepo, logger, serviceTimeout),
		db:         db,
	}
}

// Close releases the database handle.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
