package bootstrap

import (
	"fmt"

	"github.com/JonahHouse/ElPaseoAuto/internal/config"
	"github.com/JonahHouse/ElPaseoAuto/internal/database"
	"github.com/JonahHouse/ElPaseoAuto/internal/database/migrations"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/jmoiron/sqlx"
)

// SetupDatabase connects to Postgres and, when database.auto_migrate is
// set, applies pending migrations.
func SetupDatabase(cfg *config.Config, log logger.Logger) (*sqlx.DB, error) {
	db, err := database.NewPostgresConnection(database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxConnections:  cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnectionMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}

	log.Info("Connected to database",
		logger.String("host", cfg.Database.Host),
		logger.String("database", cfg.Database.Database),
	)

	if cfg.Database.AutoMigrate {
		if _, migrateErr := Migrate(db, log); migrateErr != nil {
			_ = db.Close()
			return nil, migrateErr
		}
	}

	return db, nil
}

// Migrate applies pending schema migrations.
func Migrate(db *sqlx.DB, log logger.Logger) (uint, error) {
	version, err := migrations.Up(db.DB)
	if err != nil {
		return 0, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("Database schema up to date", logger.Int64("version", int64(version)))
	return version, nil
}
