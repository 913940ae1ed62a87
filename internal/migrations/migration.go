package migrations

import (
	"context"

	"distributor/internal/database"
	"distributor/internal/models"
	"distributor/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RunMigrations drops and recreates every table, then seeds the default catalog.
func RunMigrations(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	log.Info("Running database migrations")

	log.Info("Dropping existing tables")
	tables := database.Models()
	for i, j := 0, len(tables)-1; i < j; i, j = i+1, j-1 {
		tables[i], tables[j] = tables[j], tables[i]
	}
	if err := db.Migrator().DropTable(tables...); err != nil {
		log.Warn("Error dropping tables", zap.Error(err))
	}

	log.Info("Creating tables")
	if err := db.AutoMigrate(database.Models()...); err != nil {
		return err
	}

	if err := SeedDefaults(ctx, repository.NewProductRepository(db), log); err != nil {
		return err
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// SeedDefaults upserts the default catalog. Existing products keep their stock.
func SeedDefaults(ctx context.Context, products repository.ProductRepository, log *zap.Logger) error {
	for _, p := range models.DefaultProducts() {
		p := p
		if err := products.Upsert(ctx, &p); err != nil {
			return err
		}
	}
	log.Info("Default catalog seeded", zap.Int("products", len(models.DefaultProducts())))
	return nil
}
