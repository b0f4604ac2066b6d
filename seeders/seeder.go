package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedDictionaries наполняет справочники групп и помещений. Повторный запуск
// безопасен: конфликтующие строки пропускаются.
func SeedDictionaries(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения справочников...")

	if err := seedGroups(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения групп оборудования: %v", err)
	}
	if err := seedRooms(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения помещений: %v", err)
	}

	log.Println("✅ Наполнение справочников завершено!")
}

// SeedUnits создаёт стартовый парк оборудования на первом складе.
func SeedUnits(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения парка оборудования...")

	var roomID int64
	err := db.QueryRow(ctx,
		`SELECT id FROM rooms WHERE is_active = TRUE ORDER BY id LIMIT 1`).Scan(&roomID)
	if err != nil {
		log.Fatalf("❌ Нет активного помещения для размещения единиц: %v", err)
	}

	for groupCode, count := range unitsPerGroup {
		for i := 0; i < count; i++ {
			serial := fmt.Sprintf("%s-%s", groupCode, uuid.NewString()[:8])
			_, err := db.Exec(ctx, `
				INSERT INTO equipment_units (serial, group_code, status, room_id)
				VALUES ($1, $2, 'available', $3)
				ON CONFLICT (serial) DO NOTHING`,
				serial, groupCode, roomID)
			if err != nil {
				log.Fatalf("❌ Ошибка создания единицы %s: %v", serial, err)
			}
		}
		log.Printf("   группа %s: %d единиц", groupCode, count)
	}

	log.Println("✅ Наполнение парка оборудования завершено!")
}

func seedGroups(ctx context.Context, db *pgxpool.Pool) error {
	for _, g := range equipmentGroups {
		_, err := db.Exec(ctx, `
			INSERT INTO equipment_groups (code, name)
			VALUES ($1, $2)
			ON CONFLICT (code) DO NOTHING`,
			g.Code, g.Name)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedRooms(ctx context.Context, db *pgxpool.Pool) error {
	for _, r := range rooms {
		_, err := db.Exec(ctx, `
			INSERT INTO rooms (name, is_active)
			SELECT $1, $2
			WHERE NOT EXISTS (SELECT 1 FROM rooms WHERE name = $1)`,
			r.Name, r.IsActive)
		if err != nil {
			return err
		}
	}
	return nil
}
