package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"equipment-lifecycle/config"
	"equipment-lifecycle/internal/model"
	"equipment-lifecycle/internal/store"
)

// Init opens the durable store, applies the schema and, when enabled, seeds an
// empty database with the default data set.
func Init(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	logMode := logger.Silent
	if cfg.LogSQL {
		logMode = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Info("running database migrations", zap.String("driver", cfg.Driver))
	if err := Migrate(db); err != nil {
		sqlDB.Close()
		return nil, err
	}

	if cfg.Driver == "postgres" {
		if err := applyPostgresDDL(db); err != nil {
			log.Warn("failed to apply some postgres constraints, continuing without them", zap.Error(err))
		}
	}

	if cfg.Seed {
		seeded, err := Seed(context.Background(), db, time.Now())
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		if seeded {
			log.Info("seeded empty database with default data set")
		}
	}

	log.Info("database initialization complete")
	return db, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}
	switch cfg.Driver {
	case "sqlite", "":
		return sqlite.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or updates the four tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Department{},
		&model.Equipment{},
		&model.Maintenance{},
		&model.User{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

func applyPostgresDDL(db *gorm.DB) error {
	ddls := []string{
		"ALTER TABLE equipment DROP CONSTRAINT IF EXISTS equipment_status_valid;",
		"ALTER TABLE equipment ADD CONSTRAINT equipment_status_valid " +
			"CHECK (status IN ('in_service', 'under_maintenance', 'retired'));",
		"ALTER TABLE maintenance DROP CONSTRAINT IF EXISTS maintenance_status_valid;",
		"ALTER TABLE maintenance ADD CONSTRAINT maintenance_status_valid " +
			"CHECK (status IN ('planned', 'in_progress', 'completed'));",
		"CREATE INDEX IF NOT EXISTS idx_maintenance_open_planned ON maintenance (planned_date) " +
			"WHERE status <> 'completed';",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}

// Seed inserts the default data set when the database holds no users,
// equipment or departments. Rows are inserted without their fixed IDs so the
// database sequences stay consistent; references are remapped accordingly.
// It reports whether anything was inserted.
func Seed(ctx context.Context, db *gorm.DB, now time.Time) (bool, error) {
	var users, equipment, departments int64
	if err := db.WithContext(ctx).Model(&model.User{}).Count(&users).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if err := db.WithContext(ctx).Model(&model.Equipment{}).Count(&equipment).Error; err != nil {
		return false, fmt.Errorf("count equipment: %w", err)
	}
	if err := db.WithContext(ctx).Model(&model.Department{}).Count(&departments).Error; err != nil {
		return false, fmt.Errorf("count departments: %w", err)
	}
	if users+equipment+departments > 0 {
		return false, nil
	}

	data := store.DefaultDataset(now)
	err := store.NewGormStore(db).WithinTx(ctx, func(tx store.Store) error {
		deptIDs := make(map[int64]int64, len(data.Departments))
		for _, d := range data.Departments {
			old := d.ID
			d.ID = 0
			if err := tx.UpsertDepartment(ctx, &d); err != nil {
				return err
			}
			deptIDs[old] = d.ID
		}

		equipIDs := make(map[int64]int64, len(data.Equipment))
		for _, e := range data.Equipment {
			old := e.ID
			e.ID = 0
			if e.DepartmentID != nil {
				id := deptIDs[*e.DepartmentID]
				e.DepartmentID = &id
			}
			if err := tx.UpsertEquipment(ctx, &e); err != nil {
				return err
			}
			equipIDs[old] = e.ID
		}

		for _, m := range data.Maintenance {
			m.ID = 0
			m.EquipmentID = equipIDs[m.EquipmentID]
			if err := tx.UpsertMaintenance(ctx, &m); err != nil {
				return err
			}
		}

		for _, u := range data.Users {
			u.ID = 0
			if err := tx.UpsertUser(ctx, &u); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seed database: %w", err)
	}
	return true, nil
}
