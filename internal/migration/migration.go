// Package migration prepares the schema at startup so a fresh checkout
// is usable without manual database setup.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	categorydomain "github.com/invosync/invosync/internal/category/domain"
	customerdomain "github.com/invosync/invosync/internal/customer/domain"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	vendordomain "github.com/invosync/invosync/internal/vendors/domain"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// RunMigrations applies the embedded SQL migrations against postgres.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema through gorm for the sqlite mode, where
// the postgres migration driver does not apply.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&vendordomain.Vendor{},
		&customerdomain.Customer{},
		&categorydomain.Category{},
		&invoicedomain.Invoice{},
		&invoicedomain.LineItem{},
		&invoicedomain.Payment{},
	)
}
