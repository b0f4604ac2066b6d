package services

import (
	"context"
	"fmt"

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

// TransferService — перемещение конкретных единиц в другое помещение.
// Серийные номера фиксируются при создании, этап processing отсутствует.
type TransferServiceInterface interface {
	CreateTransferReceipt(ctx context.Context, payload dto.CreateUnitReceiptDTO) (*entities.Receipt, error)
	MarkTransferred(ctx context.Context, receiptID int64) (*entities.Receipt, error)
}

type TransferService struct {
	pool         *pgxpool.Pool
	receiptRepo  repositories.ReceiptRepositoryInterface
	unitRepo     repositories.EquipmentUnitRepositoryInterface
	allocRepo    repositories.AllocationRepositoryInterface
	groupService GroupServiceInterface
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewTransferService(
	pool *pgxpool.Pool,
	receiptRepo repositories.ReceiptRepositoryInterface,
	unitRepo repositories.EquipmentUnitRepositoryInterface,
	allocRepo repositories.AllocationRepositoryInterface,
	groupService GroupServiceInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) TransferServiceInterface {
	return &TransferService{
		pool:         pool,
		receiptRepo:  receiptRepo,
		unitRepo:     unitRepo,
		allocRepo:    allocRepo,
		groupService: groupService,
		bus:          bus,
		logger:       logger,
	}
}

func (s *TransferService) CreateTransferReceipt(ctx context.Context, payload dto.CreateUnitReceiptDTO) (*entities.Receipt, error) {
	requesterCode, err := utils.GetUserCodeFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	if len(payload.Serials) == 0 {
		return nil, apperrors.NewValidationError("накладная без серийных номеров")
	}
	if payload.RoomID <= 0 {
		return nil, apperrors.NewValidationError("для перемещения требуется целевое помещение")
	}
	if err := s.groupService.EnsureRoomActive(ctx, payload.RoomID); err != nil {
		return nil, err
	}

	var receiptID int64
	err = repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		receiptID, err = createUnitReceiptInTx(ctx, tx,
			s.receiptRepo, s.unitRepo, s.allocRepo,
			constants.ReceiptTypeTransfer, requesterCode, payload)
		return err
	})
	if err != nil {
		s.logger.Warn("Ошибка при создании накладной перемещения", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Накладная перемещения создана",
		zap.Int64("receiptId", receiptID), zap.Int("units", len(payload.Serials)))

	return s.receiptRepo.FindByID(ctx, receiptID)
}

// MarkTransferred финализирует перемещение: единицы становятся available в
// целевом помещении, привязки снимаются.
func (s *TransferService) MarkTransferred(ctx context.Context, receiptID int64) (*entities.Receipt, error) {
	var oldStatus string

	err := repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		receipt, err := s.receiptRepo.FindForUpdateInTx(ctx, tx, receiptID)
		if err != nil {
			return err
		}
		oldStatus = receipt.Status

		if receipt.Type != constants.ReceiptTypeTransfer {
			return apperrors.NewValidationError("накладная %d не является накладной перемещения", receiptID)
		}
		if !constants.CanTransition(receipt.Type, receipt.Status, constants.ReceiptStatusTransferred) {
			return apperrors.NewStateError(
				"перемещение недоступно для накладной %d в статусе %s", receiptID, receipt.Status)
		}

		moved, err := s.unitRepo.MoveAllocatedToRoomInTx(ctx, tx, receiptID, receipt.RoomID.Int64)
		if err != nil {
			return err
		}
		serials, err := s.allocRepo.DeleteAllByReceiptInTx(ctx, tx, receiptID)
		if err != nil {
			return err
		}
		if moved != int64(len(serials)) {
			return fmt.Errorf("рассинхронизация привязок накладной %d: перемещено %d единиц, снято %d привязок",
				receiptID, moved, len(serials))
		}

		return s.receiptRepo.SetFinalizedInTx(ctx, tx, receiptID, constants.ReceiptStatusTransferred)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.ReceiptStatusChangedEvent{
		ReceiptID:   receiptID,
		ReceiptType: constants.ReceiptTypeTransfer,
		OldStatus:   oldStatus,
		NewStatus:   constants.ReceiptStatusTransferred,
	})

	return s.receiptRepo.FindByID(ctx, receiptID)
}
