package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"equipment-system/internal/entities"
	apperrors "equipment-system/pkg/errors"
)

type AllocationRepositoryInterface interface {
	InsertInTx(ctx context.Context, tx pgx.Tx, receiptID int64, serial string) (*entities.AllocationRecord, error)
	DeleteInTx(ctx context.Context, tx pgx.Tx, receiptID int64, serial string) error
	DeleteAllByReceiptInTx(ctx context.Context, tx pgx.Tx, receiptID int64) ([]string, error)
	CountByReceiptInTx(ctx context.Context, tx pgx.Tx, receiptID int64) (int, error)
	CountByReceiptGroupInTx(ctx context.Context, tx pgx.Tx, receiptID int64, groupCode string) (int, error)
	ListByReceipt(ctx context.Context, receiptID int64) ([]entities.AllocationRecord, error)
	FindActiveBySerial(ctx context.Context, serial string) (*entities.AllocationRecord, error)
}

type AllocationRepository struct {
	storage *pgxpool.Pool
}

func NewAllocationRepository(storage *pgxpool.Pool) AllocationRepositoryInterface {
	return &AllocationRepository{
		storage: storage,
	}
}

// InsertInTx создаёт активную привязку единицы к накладной. Уникальный индекс
// по serial превращает повторную привязку (любой накладной) в ConflictError —
// повторный scanIn без промежуточного scanOut никогда не проходит молча.
func (r *AllocationRepository) InsertInTx(ctx context.Context, tx pgx.Tx, receiptID int64, serial string) (*entities.AllocationRecord, error) {
	var record entities.AllocationRecord
	err := tx.QueryRow(ctx, `
		INSERT INTO equipment_allocations (receipt_id, serial)
		VALUES ($1, $2)
		RETURNING id, receipt_id, serial, created_at
	`, receiptID, serial).Scan(&record.ID, &record.ReceiptID, &record.Serial, &record.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.NewConflictError("единица %s уже привязана к накладной", serial)
		}
		return nil, err
	}
	return &record, nil
}

func (r *AllocationRepository) DeleteInTx(ctx context.Context, tx pgx.Tx, receiptID int64, serial string) error {
	result, err := tx.Exec(ctx, `
		DELETE FROM equipment_allocations WHERE receipt_id = $1 AND serial = $2
	`, receiptID, serial)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("активная привязка (%d, %s) не найдена", receiptID, serial)
	}
	return nil
}

// DeleteAllByReceiptInTx снимает все активные привязки накладной и возвращает
// освобождённые серийные номера.
func (r *AllocationRepository) DeleteAllByReceiptInTx(ctx context.Context, tx pgx.Tx, receiptID int64) ([]string, error) {
	rows, err := tx.Query(ctx, `
		DELETE FROM equipment_allocations WHERE receipt_id = $1 RETURNING serial
	`, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var serials []string
	for rows.Next() {
		var serial string
		if err := rows.Scan(&serial); err != nil {
			return nil, err
		}
		serials = append(serials, serial)
	}
	return serials, rows.Err()
}

func (r *AllocationRepository) CountByReceiptInTx(ctx context.Context, tx pgx.Tx, receiptID int64) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM equipment_allocations WHERE receipt_id = $1
	`, receiptID).Scan(&count)
	return count, err
}

// CountByReceiptGroupInTx — сколько единиц данной группы уже привязано к
// накладной; используется для проверки частичного/полного исполнения.
func (r *AllocationRepository) CountByReceiptGroupInTx(ctx context.Context, tx pgx.Tx, receiptID int64, groupCode string) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM equipment_allocations a
		JOIN equipment_units u ON u.serial = a.serial
		WHERE a.receipt_id = $1 AND u.group_code = $2
	`, receiptID, groupCode).Scan(&count)
	return count, err
}

func (r *AllocationRepository) ListByReceipt(ctx context.Context, receiptID int64) ([]entities.AllocationRecord, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT id, receipt_id, serial, created_at
		FROM equipment_allocations
		WHERE receipt_id = $1
		ORDER BY id
	`, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []entities.AllocationRecord
	for rows.Next() {
		var record entities.AllocationRecord
		if err := rows.Scan(&record.ID, &record.ReceiptID, &record.Serial, &record.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *AllocationRepository) FindActiveBySerial(ctx context.Context, serial string) (*entities.AllocationRecord, error) {
	var record entities.AllocationRecord
	err := r.storage.QueryRow(ctx, `
		SELECT id, receipt_id, serial, created_at
		FROM equipment_allocations
		WHERE serial = $1
	`, serial).Scan(&record.ID, &record.ReceiptID, &record.Serial, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("активная привязка для %s не найдена", serial)
		}
		return nil, err
	}
	return &record, nil
}
