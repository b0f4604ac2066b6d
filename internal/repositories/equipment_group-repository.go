package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"equipment-system/internal/entities"
	apperrors "equipment-system/pkg/errors"
)

// Справочники — внешние данные для движка: здесь только чтение.
type EquipmentGroupRepositoryInterface interface {
	FindByCode(ctx context.Context, code string) (*entities.EquipmentGroup, error)
	GetGroups(ctx context.Context) ([]entities.EquipmentGroup, error)
	FindRoom(ctx context.Context, id int64) (*entities.Room, error)
}

type EquipmentGroupRepository struct {
	storage *pgxpool.Pool
}

func NewEquipmentGroupRepository(storage *pgxpool.Pool) EquipmentGroupRepositoryInterface {
	return &EquipmentGroupRepository{
		storage: storage,
	}
}

func (r *EquipmentGroupRepository) FindByCode(ctx context.Context, code string) (*entities.EquipmentGroup, error) {
	var group entities.EquipmentGroup
	err := r.storage.QueryRow(ctx, `
		SELECT id, code, name, created_at, updated_at FROM equipment_groups WHERE code = $1
	`, code).Scan(&group.ID, &group.Code, &group.Name, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("группа оборудования %s не найдена", code)
		}
		return nil, err
	}
	return &group, nil
}

func (r *EquipmentGroupRepository) GetGroups(ctx context.Context) ([]entities.EquipmentGroup, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT id, code, name, created_at, updated_at FROM equipment_groups ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []entities.EquipmentGroup
	for rows.Next() {
		var group entities.EquipmentGroup
		if err := rows.Scan(&group.ID, &group.Code, &group.Name, &group.CreatedAt, &group.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *EquipmentGroupRepository) FindRoom(ctx context.Context, id int64) (*entities.Room, error) {
	var room entities.Room
	err := r.storage.QueryRow(ctx, `
		SELECT id, name, is_active FROM rooms WHERE id = $1
	`, id).Scan(&room.ID, &room.Name, &room.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("помещение %d не найдено", id)
		}
		return nil, err
	}
	return &room, nil
}
