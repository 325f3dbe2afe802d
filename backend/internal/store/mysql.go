package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type MySQLOptions struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// OpenMySQL 打开 gorm 连接，同时返回底层 *sql.DB 给 ContentStore 使用
func OpenMySQL(ctx context.Context, opt MySQLOptions) (*gorm.DB, *sql.DB, error) {
	db, err := gorm.Open(mysql.Open(opt.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open mysql: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if opt.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opt.MaxOpenConns)
	}
	if opt.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opt.MaxIdleConns)
	}
	if opt.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opt.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, nil, fmt.Errorf("ping mysql: %w", err)
	}

	if opt.AutoMigrate {
		if err := Migrate(ctx, db, sqlDB); err != nil {
			return nil, nil, err
		}
	}
	return db, sqlDB, nil
}

func Migrate(ctx context.Context, db *gorm.DB, sqlDB *sql.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&Page{}, &Revision{}, &Slot{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := NewContentStore(sqlDB).EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure content schema: %w", err)
	}
	return nil
}
