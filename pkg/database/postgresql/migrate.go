package postgresql

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"equipment-system/migrations"
)

// RunMigrations применяет встроенные goose-миграции при старте процесса.
func RunMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("не удалось открыть соединение для миграций: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose: неверный диалект: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("goose: ошибка применения миграций: %w", err)
	}

	return nil
}
