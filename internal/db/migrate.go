package db

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/Leganyst/studio-booking/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate создаёт таблицы через AutoMigrate и затем применяет SQL-миграции
// с ограничениями, которые gorm не выражает.
func Migrate(gdb *gorm.DB) error {
	if err := model.AutoMigrate(gdb); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("db.DB(): %w", err)
	}

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
