package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"equipment-system/internal/entities"
	apperrors "equipment-system/pkg/errors"
)

const equipmentUnitFields = "id, serial, group_code, status, room_id, first_used_at, created_at, updated_at"

type EquipmentUnitRepositoryInterface interface {
	GetUnits(ctx context.Context, groupCode, status string, limit, offset uint64) ([]entities.EquipmentUnit, uint64, error)
	FindBySerial(ctx context.Context, serial string) (*entities.EquipmentUnit, error)
	FindBySerialInTx(ctx context.Context, tx pgx.Tx, serial string) (*entities.EquipmentUnit, error)
	TransitionStatusInTx(ctx context.Context, tx pgx.Tx, serial, from, to string) error
	MarkAllocatedInUseInTx(ctx context.Context, tx pgx.Tx, receiptID int64) (int64, error)
	ReleaseAllocatedInTx(ctx context.Context, tx pgx.Tx, receiptID int64, from string) (int64, error)
	MoveAllocatedToRoomInTx(ctx context.Context, tx pgx.Tx, receiptID, roomID int64) (int64, error)
	CountAvailableInGroup(ctx context.Context, groupCode string) (int, error)
	CountAvailableInGroupInTx(ctx context.Context, tx pgx.Tx, groupCode string) (int, error)
	CountAvailableInGroupLockedInTx(ctx context.Context, tx pgx.Tx, groupCode string) (int, error)
	CreateUnitsInTx(ctx context.Context, tx pgx.Tx, units []entities.EquipmentUnit) error
}

type EquipmentUnitRepository struct {
	storage *pgxpool.Pool
}

func NewEquipmentUnitRepository(storage *pgxpool.Pool) EquipmentUnitRepositoryInterface {
	return &EquipmentUnitRepository{
		storage: storage,
	}
}

func scanUnit(row pgx.Row) (*entities.EquipmentUnit, error) {
	var unit entities.EquipmentUnit
	err := row.Scan(
		&unit.ID,
		&unit.Serial,
		&unit.GroupCode,
		&unit.Status,
		&unit.RoomID,
		&unit.FirstUsedAt,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("единица оборудования не найдена")
		}
		return nil, err
	}
	return &unit, nil
}

func (r *EquipmentUnitRepository) GetUnits(ctx context.Context, groupCode, status string, limit, offset uint64) ([]entities.EquipmentUnit, uint64, error) {
	builder := sq.Select(equipmentUnitFields).
		From("equipment_units").
		OrderBy("id").
		PlaceholderFormat(sq.Dollar)
	countBuilder := sq.Select("COUNT(*)").From("equipment_units").PlaceholderFormat(sq.Dollar)

	if groupCode != "" {
		builder = builder.Where(sq.Eq{"group_code": groupCode})
		countBuilder = countBuilder.Where(sq.Eq{"group_code": groupCode})
	}
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
		countBuilder = countBuilder.Where(sq.Eq{"status": status})
	}
	if limit > 0 {
		builder = builder.Limit(limit).Offset(offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ToSql для списка единиц: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var units []entities.EquipmentUnit
	for rows.Next() {
		var unit entities.EquipmentUnit
		if err := rows.Scan(
			&unit.ID,
			&unit.Serial,
			&unit.GroupCode,
			&unit.Status,
			&unit.RoomID,
			&unit.FirstUsedAt,
			&unit.CreatedAt,
			&unit.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ToSql для count: %w", err)
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return units, total, nil
}

func (r *EquipmentUnitRepository) FindBySerial(ctx context.Context, serial string) (*entities.EquipmentUnit, error) {
	return r.findBySerial(ctx, r.storage, serial)
}

func (r *EquipmentUnitRepository) FindBySerialInTx(ctx context.Context, tx pgx.Tx, serial string) (*entities.EquipmentUnit, error) {
	return r.findBySerial(ctx, tx, serial)
}

func (r *EquipmentUnitRepository) findBySerial(ctx context.Context, q querier, serial string) (*entities.EquipmentUnit, error) {
	query := fmt.Sprintf("SELECT %s FROM equipment_units WHERE serial = $1", equipmentUnitFields)
	return scanUnit(q.QueryRow(ctx, query, serial))
}

// TransitionStatusInTx — compare-and-swap по статусу единицы. Переход
// выполняется только если текущий статус равен from; иначе гонка проиграна
// и вызывающий получает ConflictError. Это примитив, исключающий двойное
// резервирование одного серийного номера.
func (r *EquipmentUnitRepository) TransitionStatusInTx(ctx context.Context, tx pgx.Tx, serial, from, to string) error {
	result, err := tx.Exec(ctx, `
		UPDATE equipment_units
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE serial = $2 AND status = $3
	`, to, serial, from)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		var current string
		err := tx.QueryRow(ctx, "SELECT status FROM equipment_units WHERE serial = $1", serial).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("единица с серийным номером %s не найдена", serial)
		}
		if err != nil {
			return err
		}
		return apperrors.NewConflictError(
			"единица %s в статусе %s, ожидался %s", serial, current, from)
	}

	return nil
}

// MarkAllocatedInUseInTx переводит все привязанные к накладной единицы
// reserved -> in_use и единожды проставляет отметку первого использования.
func (r *EquipmentUnitRepository) MarkAllocatedInUseInTx(ctx context.Context, tx pgx.Tx, receiptID int64) (int64, error) {
	result, err := tx.Exec(ctx, `
		UPDATE equipment_units u
		SET status = $1,
		    first_used_at = COALESCE(u.first_used_at, CURRENT_TIMESTAMP),
		    updated_at = CURRENT_TIMESTAMP
		FROM equipment_allocations a
		WHERE a.serial = u.serial AND a.receipt_id = $2 AND u.status = $3
	`, "in_use", receiptID, "reserved")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// ReleaseAllocatedInTx возвращает все привязанные единицы из статуса from
// в available (возврат, отклонение).
func (r *EquipmentUnitRepository) ReleaseAllocatedInTx(ctx context.Context, tx pgx.Tx, receiptID int64, from string) (int64, error) {
	result, err := tx.Exec(ctx, `
		UPDATE equipment_units u
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		FROM equipment_allocations a
		WHERE a.serial = u.serial AND a.receipt_id = $2 AND u.status = $3
	`, "available", receiptID, from)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// MoveAllocatedToRoomInTx — финализация перемещения: единицы становятся
// available уже в целевом помещении.
func (r *EquipmentUnitRepository) MoveAllocatedToRoomInTx(ctx context.Context, tx pgx.Tx, receiptID, roomID int64) (int64, error) {
	result, err := tx.Exec(ctx, `
		UPDATE equipment_units u
		SET status = $1, room_id = $2, updated_at = CURRENT_TIMESTAMP
		FROM equipment_allocations a
		WHERE a.serial = u.serial AND a.receipt_id = $3 AND u.status = $4
	`, "available", roomID, receiptID, "pending_transfer")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *EquipmentUnitRepository) CountAvailableInGroup(ctx context.Context, groupCode string) (int, error) {
	return r.countAvailableInGroup(ctx, r.storage, groupCode)
}

func (r *EquipmentUnitRepository) CountAvailableInGroupInTx(ctx context.Context, tx pgx.Tx, groupCode string) (int, error) {
	return r.countAvailableInGroup(ctx, tx, groupCode)
}

func (r *EquipmentUnitRepository) countAvailableInGroup(ctx context.Context, q querier, groupCode string) (int, error) {
	var count int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM equipment_units WHERE group_code = $1 AND status = 'available'
	`, groupCode).Scan(&count)
	return count, err
}

// CountAvailableInGroupLockedInTx считает доступные единицы группы, блокируя
// подсчитанные строки до конца транзакции. Два конкурентных утверждения по
// одной группе сериализуются на этом множестве строк: второе ждёт коммита
// первого и пересчитывает остаток уже с учётом его резервов.
func (r *EquipmentUnitRepository) CountAvailableInGroupLockedInTx(ctx context.Context, tx pgx.Tx, groupCode string) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM (
			SELECT id FROM equipment_units
			WHERE group_code = $1 AND status = 'available'
			FOR UPDATE
		) AS locked
	`, groupCode).Scan(&count)
	return count, err
}

// CreateUnitsInTx создаёт новые единицы при оприходовании импортной накладной.
func (r *EquipmentUnitRepository) CreateUnitsInTx(ctx context.Context, tx pgx.Tx, units []entities.EquipmentUnit) error {
	for _, unit := range units {
		_, err := tx.Exec(ctx, `
			INSERT INTO equipment_units (serial, group_code, status, room_id)
			VALUES ($1, $2, $3, $4)
		`, unit.Serial, unit.GroupCode, unit.Status, unit.RoomID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return apperrors.NewConflictError("серийный номер %s уже существует", unit.Serial)
			}
			return err
		}
	}
	return nil
}
