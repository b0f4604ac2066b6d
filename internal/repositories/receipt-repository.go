package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"equipment-system/internal/entities"
	apperrors "equipment-system/pkg/errors"
)

const receiptFields = "id, type, status, requester_code, approver_code, room_id, note, reject_reason, approved_at, finalized_at, created_at, updated_at"

type ReceiptRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, receipt entities.Receipt, lines []entities.ReceiptLine) (int64, error)
	FindByID(ctx context.Context, id int64) (*entities.Receipt, error)
	FindForUpdateInTx(ctx context.Context, tx pgx.Tx, id int64) (*entities.Receipt, error)
	GetLinesInTx(ctx context.Context, tx pgx.Tx, receiptID int64) ([]entities.ReceiptLine, error)
	SetApprovedInTx(ctx context.Context, tx pgx.Tx, id int64, approverCode string) error
	SetRejectedInTx(ctx context.Context, tx pgx.Tx, id int64, approverCode, reason string) error
	SetStatusInTx(ctx context.Context, tx pgx.Tx, id int64, status string) error
	SetFinalizedInTx(ctx context.Context, tx pgx.Tx, id int64, status string) error
	GetReceipts(ctx context.Context, receiptType, status string, limit, offset uint64) ([]entities.Receipt, uint64, error)
	SumOutstandingForGroupInTx(ctx context.Context, tx pgx.Tx, groupCode string, excludeReceiptID int64) (int, error)
}

type ReceiptRepository struct {
	storage *pgxpool.Pool
}

func NewReceiptRepository(storage *pgxpool.Pool) ReceiptRepositoryInterface {
	return &ReceiptRepository{
		storage: storage,
	}
}

func scanReceipt(row pgx.Row) (*entities.Receipt, error) {
	var receipt entities.Receipt
	err := row.Scan(
		&receipt.ID,
		&receipt.Type,
		&receipt.Status,
		&receipt.RequesterCode,
		&receipt.ApproverCode,
		&receipt.RoomID,
		&receipt.Note,
		&receipt.RejectReason,
		&receipt.ApprovedAt,
		&receipt.FinalizedAt,
		&receipt.CreatedAt,
		&receipt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("накладная не найдена")
		}
		return nil, err
	}
	return &receipt, nil
}

func (r *ReceiptRepository) CreateInTx(ctx context.Context, tx pgx.Tx, receipt entities.Receipt, lines []entities.ReceiptLine) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO receipts (type, status, requester_code, room_id, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, receipt.Type, receipt.Status, receipt.RequesterCode, receipt.RoomID, receipt.Note).Scan(&id)
	if err != nil {
		return 0, err
	}

	for _, line := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO receipt_lines (receipt_id, group_code, quantity, serial)
			VALUES ($1, $2, $3, $4)
		`, id, line.GroupCode, line.Quantity, line.Serial)
		if err != nil {
			return 0, err
		}
	}

	return id, nil
}

func (r *ReceiptRepository) FindByID(ctx context.Context, id int64) (*entities.Receipt, error) {
	query := fmt.Sprintf("SELECT %s FROM receipts WHERE id = $1", receiptFields)
	receipt, err := scanReceipt(r.storage.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	lines, err := r.getLines(ctx, r.storage, id)
	if err != nil {
		return nil, err
	}
	receipt.Lines = lines

	return receipt, nil
}

// FindForUpdateInTx блокирует строку накладной до конца транзакции. Каждая
// мутирующая операция начинается с этого вызова, поэтому конкурентные мутации
// одной накладной сериализуются.
func (r *ReceiptRepository) FindForUpdateInTx(ctx context.Context, tx pgx.Tx, id int64) (*entities.Receipt, error) {
	query := fmt.Sprintf("SELECT %s FROM receipts WHERE id = $1 FOR UPDATE", receiptFields)
	receipt, err := scanReceipt(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	lines, err := r.getLines(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	receipt.Lines = lines

	return receipt, nil
}

func (r *ReceiptRepository) GetLinesInTx(ctx context.Context, tx pgx.Tx, receiptID int64) ([]entities.ReceiptLine, error) {
	return r.getLines(ctx, tx, receiptID)
}

func (r *ReceiptRepository) getLines(ctx context.Context, q querier, receiptID int64) ([]entities.ReceiptLine, error) {
	rows, err := q.Query(ctx, `
		SELECT id, receipt_id, group_code, quantity, serial
		FROM receipt_lines
		WHERE receipt_id = $1
		ORDER BY id
	`, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []entities.ReceiptLine
	for rows.Next() {
		var line entities.ReceiptLine
		if err := rows.Scan(&line.ID, &line.ReceiptID, &line.GroupCode, &line.Quantity, &line.Serial); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *ReceiptRepository) SetApprovedInTx(ctx context.Context, tx pgx.Tx, id int64, approverCode string) error {
	result, err := tx.Exec(ctx, `
		UPDATE receipts
		SET status = 'approved', approver_code = $1, approved_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`, approverCode, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("накладная %d не найдена", id)
	}
	return nil
}

func (r *ReceiptRepository) SetRejectedInTx(ctx context.Context, tx pgx.Tx, id int64, approverCode, reason string) error {
	result, err := tx.Exec(ctx, `
		UPDATE receipts
		SET status = 'rejected', approver_code = $1, reject_reason = $2, finalized_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`, approverCode, reason, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("накладная %d не найдена", id)
	}
	return nil
}

func (r *ReceiptRepository) SetStatusInTx(ctx context.Context, tx pgx.Tx, id int64, status string) error {
	result, err := tx.Exec(ctx, `
		UPDATE receipts SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("накладная %d не найдена", id)
	}
	return nil
}

func (r *ReceiptRepository) SetFinalizedInTx(ctx context.Context, tx pgx.Tx, id int64, status string) error {
	result, err := tx.Exec(ctx, `
		UPDATE receipts
		SET status = $1, finalized_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("накладная %d не найдена", id)
	}
	return nil
}

func (r *ReceiptRepository) GetReceipts(ctx context.Context, receiptType, status string, limit, offset uint64) ([]entities.Receipt, uint64, error) {
	builder := sq.Select(receiptFields).
		From("receipts").
		OrderBy("id DESC").
		PlaceholderFormat(sq.Dollar)
	countBuilder := sq.Select("COUNT(*)").From("receipts").PlaceholderFormat(sq.Dollar)

	if receiptType != "" {
		builder = builder.Where(sq.Eq{"type": receiptType})
		countBuilder = countBuilder.Where(sq.Eq{"type": receiptType})
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
		return nil, 0, fmt.Errorf("ToSql для списка накладных: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var receipts []entities.Receipt
	for rows.Next() {
		var receipt entities.Receipt
		if err := rows.Scan(
			&receipt.ID,
			&receipt.Type,
			&receipt.Status,
			&receipt.RequesterCode,
			&receipt.ApproverCode,
			&receipt.RoomID,
			&receipt.Note,
			&receipt.RejectReason,
			&receipt.ApprovedAt,
			&receipt.FinalizedAt,
			&receipt.CreatedAt,
			&receipt.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		receipts = append(receipts, receipt)
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

	return receipts, total, nil
}

// SumOutstandingForGroupInTx — сумма ещё не исполненных обещаний по группе:
// по каждой утверждённой (или частично отсканированной) borrow-накладной
// берётся заказанное количество минус уже привязанные единицы. Накладные в
// processing учитываются тоже: их неисполненный остаток всё ещё обещан.
func (r *ReceiptRepository) SumOutstandingForGroupInTx(ctx context.Context, tx pgx.Tx, groupCode string, excludeReceiptID int64) (int, error) {
	var outstanding int
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(rl.quantity - (
			SELECT COUNT(*)
			FROM equipment_allocations a
			JOIN equipment_units u ON u.serial = a.serial
			WHERE a.receipt_id = r.id AND u.group_code = rl.group_code
		)), 0)
		FROM receipts r
		JOIN receipt_lines rl ON rl.receipt_id = r.id
		WHERE r.type = 'borrow'
		  AND r.status IN ('approved', 'processing')
		  AND rl.group_code = $1
		  AND r.id <> $2
	`, groupCode, excludeReceiptID).Scan(&outstanding)
	return outstanding, err
}
