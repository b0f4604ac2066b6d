package services

import (
	"context"
	"fmt"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/entities"
	"equipment-system/internal/events"
	"equipment-system/internal/repositories"
	"equipment-system/pkg/constants"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/eventbus"
	"equipment-system/pkg/utils"
)

// BorrowService — жизненный цикл накладной выдачи: создание по групповым
// позициям, инкрементальная привязка единиц сканированием (частичное
// исполнение), выдача и возврат.
type BorrowServiceInterface interface {
	CreateBorrowReceipt(ctx context.Context, payload dto.CreateBorrowReceiptDTO) (*entities.Receipt, error)
	ScanIn(ctx context.Context, receiptID int64, serial string) (*entities.Receipt, error)
	ScanOut(ctx context.Context, receiptID int64, serial string) (*entities.Receipt, error)
	MarkReturned(ctx context.Context, receiptID int64) (*entities.Receipt, error)
}

type BorrowService struct {
	pool         *pgxpool.Pool
	receiptRepo  repositories.ReceiptRepositoryInterface
	unitRepo     repositories.EquipmentUnitRepositoryInterface
	allocRepo    repositories.AllocationRepositoryInterface
	groupService GroupServiceInterface
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewBorrowService(
	pool *pgxpool.Pool,
	receiptRepo repositories.ReceiptRepositoryInterface,
	unitRepo repositories.EquipmentUnitRepositoryInterface,
	allocRepo repositories.AllocationRepositoryInterface,
	groupService GroupServiceInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) BorrowServiceInterface {
	return &BorrowService{
		pool:         pool,
		receiptRepo:  receiptRepo,
		unitRepo:     unitRepo,
		allocRepo:    allocRepo,
		groupService: groupService,
		bus:          bus,
		logger:       logger,
	}
}

func (s *BorrowService) CreateBorrowReceipt(ctx context.Context, payload dto.CreateBorrowReceiptDTO) (*entities.Receipt, error) {
	requesterCode, err := utils.GetUserCodeFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	if len(payload.Lines) == 0 {
		return nil, apperrors.NewValidationError("накладная без позиций")
	}

	// Справочники проверяются до входа в транзакцию движка.
	if err := s.groupService.EnsureRoomActive(ctx, payload.RoomID); err != nil {
		return nil, err
	}
	// Одна позиция на группу: сканирование и подсчёт остатка считают
	// квоту по группе, дубль позиции сделал бы накладную неисполнимой.
	seenGroups := make(map[string]bool, len(payload.Lines))
	for _, line := range payload.Lines {
		if line.Quantity <= 0 {
			return nil, apperrors.NewValidationError("неположительное количество для группы %s", line.GroupCode)
		}
		if seenGroups[line.GroupCode] {
			return nil, apperrors.NewValidationError("группа %s встречается в позициях более одного раза", line.GroupCode)
		}
		seenGroups[line.GroupCode] = true
		if _, err := s.groupService.FindGroup(ctx, line.GroupCode); err != nil {
			return nil, err
		}
	}

	receipt := entities.Receipt{
		Type:          constants.ReceiptTypeBorrow,
		Status:        constants.ReceiptStatusRequested,
		RequesterCode: requesterCode,
		RoomID:        null.Int64From(payload.RoomID),
		Note:          payload.Note,
	}

	lines := make([]entities.ReceiptLine, 0, len(payload.Lines))
	for _, line := range payload.Lines {
		lines = append(lines, entities.ReceiptLine{
			GroupCode: null.StringFrom(line.GroupCode),
			Quantity:  null.IntFrom(line.Quantity),
		})
	}

	var receiptID int64
	err = repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		receiptID, err = s.receiptRepo.CreateInTx(ctx, tx, receipt, lines)
		return err
	})
	if err != nil {
		s.logger.Error("Ошибка при создании накладной выдачи", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Накладная выдачи создана",
		zap.Int64("receiptId", receiptID), zap.String("requester", requesterCode))

	return s.receiptRepo.FindByID(ctx, receiptID)
}

// ScanIn привязывает конкретную единицу к накладной. Последний скан
// автоматически переводит накладную в borrowed и все привязанные единицы
// в in_use.
func (s *BorrowService) ScanIn(ctx context.Context, receiptID int64, serial string) (*entities.Receipt, error) {
	var oldStatus, newStatus string

	err := repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		receipt, err := s.receiptRepo.FindForUpdateInTx(ctx, tx, receiptID)
		if err != nil {
			return err
		}
		oldStatus = receipt.Status
		newStatus = receipt.Status

		if receipt.Type != constants.ReceiptTypeBorrow {
			return apperrors.NewValidationError("сканирование доступно только для накладных выдачи")
		}
		if receipt.Status != constants.ReceiptStatusApproved && receipt.Status != constants.ReceiptStatusProcessing {
			return apperrors.NewStateError(
				"сканирование недоступно для накладной %d в статусе %s", receiptID, receipt.Status)
		}

		unit, err := s.unitRepo.FindBySerialInTx(ctx, tx, serial)
		if err != nil {
			return err
		}

		var line *entities.ReceiptLine
		for i := range receipt.Lines {
			if receipt.Lines[i].IsGroupLine() && receipt.Lines[i].GroupCode.String == unit.GroupCode {
				line = &receipt.Lines[i]
				break
			}
		}
		if line == nil {
			return apperrors.NewValidationError(
				"группа %s не входит в позиции накладной %d", unit.GroupCode, receiptID)
		}

		allocatedInGroup, err := s.allocRepo.CountByReceiptGroupInTx(ctx, tx, receiptID, unit.GroupCode)
		if err != nil {
			return err
		}
		if allocatedInGroup >= line.Quantity.Int {
			return apperrors.NewConflictError(
				"по группе %s уже привязано %d из %d", unit.GroupCode, allocatedInGroup, line.Quantity.Int)
		}

		if _, err := s.allocRepo.InsertInTx(ctx, tx, receiptID, serial); err != nil {
			return err
		}
		if err := s.unitRepo.TransitionStatusInTx(ctx, tx, serial,
			constants.UnitStatusAvailable, constants.UnitStatusReserved); err != nil {
			return err
		}

		requestedTotal := 0
		for _, l := range receipt.Lines {
			if l.IsGroupLine() {
				requestedTotal += l.Quantity.Int
			}
		}
		allocatedTotal, err := s.allocRepo.CountByReceiptInTx(ctx, tx, receiptID)
		if err != nil {
			return err
		}

		if allocatedTotal == requestedTotal {
			// Последняя единица: накладная выдана, всё привязанное — в работе.
			marked, err := s.unitRepo.MarkAllocatedInUseInTx(ctx, tx, receiptID)
			if err != nil {
				return err
			}
			if marked != int64(allocatedTotal) {
				return fmt.Errorf("рассинхронизация статусов накладной %d: %d привязок, %d единиц переведено",
					receiptID, allocatedTotal, marked)
			}
			newStatus = constants.ReceiptStatusBorrowed
			return s.receiptRepo.SetStatusInTx(ctx, tx, receiptID, newStatus)
		}

		if receipt.Status == constants.ReceiptStatusApproved {
			newStatus = constants.ReceiptStatusProcessing
			return s.receiptRepo.SetStatusInTx(ctx, tx, receiptID, newStatus)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if newStatus != oldStatus {
		s.bus.Publish(ctx, events.ReceiptStatusChangedEvent{
			ReceiptID:   receiptID,
			ReceiptType: constants.ReceiptTypeBorrow,
			OldStatus:   oldStatus,
			NewStatus:   newStatus,
		})
	}

	return s.receiptRepo.FindByID(ctx, receiptID)
}

// ScanOut снимает привязку единицы и возвращает её в available. Накладная
// остаётся в processing независимо от количества оставшихся привязок —
// каноничная трактовка частичного исполнения (см. DESIGN.md).
func (s *BorrowService) ScanOut(ctx context.Context, receiptID int64, serial string) (*entities.Receipt, error) {
	err := repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		receipt, err := s.receiptRepo.FindForUpdateInTx(ctx, tx, receiptID)
		if err != nil {
			return err
		}

		if receipt.Type != constants.ReceiptTypeBorrow {
			return apperrors.NewValidationError("сканирование доступно только для накладных выдачи")
		}
		if receipt.Status != constants.ReceiptStatusProcessing {
			return apperrors.NewStateError(
				"снятие привязки недоступно для накладной %d в статусе %s", receiptID, receipt.Status)
		}

		if err := s.allocRepo.DeleteInTx(ctx, tx, receiptID, serial); err != nil {
			return err
		}

		return s.unitRepo.TransitionStatusInTx(ctx, tx, serial,
			constants.UnitStatusReserved, constants.UnitStatusAvailable)
	})
	if err != nil {
		return nil, err
	}

	return s.receiptRepo.FindByID(ctx, receiptID)
}

// MarkReturned завершает выдачу: все единицы возвращаются in_use -> available,
// привязки снимаются, накладная закрывается.
func (s *BorrowService) MarkReturned(ctx context.Context, receiptID int64) (*entities.Receipt, error) {
	var oldStatus string

	err := repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		receipt, err := s.receiptRepo.FindForUpdateInTx(ctx, tx, receiptID)
		if err != nil {
			return err
		}
		oldStatus = receipt.Status

		if receipt.Type != constants.ReceiptTypeBorrow {
			return apperrors.NewValidationError("возврат доступен только для накладных выдачи")
		}
		if !constants.CanTransition(receipt.Type, receipt.Status, constants.ReceiptStatusReturned) {
			return apperrors.NewStateError(
				"возврат недоступен для накладной %d в статусе %s", receiptID, receipt.Status)
		}

		released, err := s.unitRepo.ReleaseAllocatedInTx(ctx, tx, receiptID, constants.UnitStatusInUse)
		if err != nil {
			return err
		}
		serials, err := s.allocRepo.DeleteAllByReceiptInTx(ctx, tx, receiptID)
		if err != nil {
			return err
		}
		if released != int64(len(serials)) {
			return fmt.Errorf("рассинхронизация привязок накладной %d: освобождено %d единиц, снято %d привязок",
				receiptID, released, len(serials))
		}

		return s.receiptRepo.SetFinalizedInTx(ctx, tx, receiptID, constants.ReceiptStatusReturned)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.ReceiptStatusChangedEvent{
		ReceiptID:   receiptID,
		ReceiptType: constants.ReceiptTypeBorrow,
		OldStatus:   oldStatus,
		NewStatus:   constants.ReceiptStatusReturned,
	})

	return s.receiptRepo.FindByID(ctx, receiptID)
}
