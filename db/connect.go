package db

import (
	"fmt"
	"strings"

	"farmbot-server/confs"
	"farmbot-server/entities"

	log "github.com/go-pkgz/lgr"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the configured database, tunes the pool and migrates the schema.
func Connect(opts *confs.Options) (Database, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if opts.Dbg {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	if opts.DB.Driver == "sqlite" {
		log.Printf("[INFO] opening sqlite database %s", opts.DB.SQLitePath)
		return OpenSQLite(opts.DB.SQLitePath, gormCfg)
	}

	dsn, err := postgresDSN(opts)
	if err != nil {
		return nil, err
	}

	gormCfg.PrepareStmt = true
	gdb, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(0)
	log.Printf("[INFO] database connection established")

	database := &GormDatabase{DB: gdb}
	if err := Migrate(database); err != nil {
		return nil, err
	}
	return database, nil
}

// OpenSQLite opens (or creates) a sqlite database file and migrates it.
func OpenSQLite(path string, cfg *gorm.Config) (Database, error) {
	if cfg == nil {
		cfg = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	}
	gdb, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	// sqlite allows one writer at a time
	sqlDB.SetMaxOpenConns(1)

	database := &GormDatabase{DB: gdb}
	if err := Migrate(database); err != nil {
		return nil, err
	}
	return database, nil
}

// Migrate creates or updates tables for every entity.
func Migrate(d Database) error {
	log.Printf("[DEBUG] running database migrations")
	models := append([]any{&entities.Device{}, &entities.User{}, &entities.Command{}}, entities.ResourceModels()...)
	if err := d.GetDB().AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func postgresDSN(opts *confs.Options) (string, error) {
	if opts.DB.URL != "" {
		dsn := opts.DB.URL
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		log.Printf("[INFO] connecting to database using DB_URL")
		return dsn, nil
	}

	o := opts.DB
	if o.Host == "" || o.Port == "" || o.User == "" || o.Password == "" || o.Name == "" {
		return "", fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	sslMode := "require"
	if o.Host == "localhost" || o.Host == "127.0.0.1" {
		sslMode = "disable"
	}
	log.Printf("[INFO] connecting to database %s:%s (sslmode=%s)", o.Host, o.Port, sslMode)
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		o.Host, o.User, o.Password, o.Name, o.Port, sslMode), nil
}
