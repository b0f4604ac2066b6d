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

// ReceiptService — общая часть машины состояний: утверждение и отклонение
// одинаковы по форме для всех типов накладных, различается только guard
// (для borrow — проверка виртуального остатка) и освобождение единиц.
type ReceiptServiceInterface interface {
	Approve(ctx context.Context, receiptID int64) (*entities.Receipt, error)
	Reject(ctx context.Context, receiptID int64, payload dto.RejectReceiptDTO) (*entities.Receipt, error)
	GetReceipts(ctx context.Context, filter dto.ReceiptFilterDTO) ([]entities.Receipt, uint64, error)
	FindReceipt(ctx context.Context, receiptID int64) (*entities.Receipt, error)
}

type ReceiptService struct {
	pool        *pgxpool.Pool
	receiptRepo repositories.ReceiptRepositoryInterface
	unitRepo    repositories.EquipmentUnitRepositoryInterface
	allocRepo   repositories.AllocationRepositoryInterface
	reservation ReservationServiceInterface
	bus         *eventbus.Bus
	logger      *zap.Logger
}

func NewReceiptService(
	pool *pgxpool.Pool,
	receiptRepo repositories.ReceiptRepositoryInterface,
	unitRepo repositories.EquipmentUnitRepositoryInterface,
	allocRepo repositories.AllocationRepositoryInterface,
	reservation ReservationServiceInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) ReceiptServiceInterface {
	return &ReceiptService{
		pool:        pool,
		receiptRepo: receiptRepo,
		unitRepo:    unitRepo,
		allocRepo:   allocRepo,
		reservation: reservation,
		bus:         bus,
		logger:      logger,
	}
}

// Approve утверждает накладную. Для borrow утверждение проходит только если
// по каждой групповой позиции виртуальный остаток покрывает заказ — всё или
// ничего: отказ по любой позиции откатывает транзакцию без следов.
func (s *ReceiptService) Approve(ctx context.Context, receiptID int64) (*entities.Receipt, error) {
	approverCode, err := utils.GetUserCodeFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	var oldStatus, receiptType string

	err = repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		receipt, err := s.receiptRepo.FindForUpdateInTx(ctx, tx, receiptID)
		if err != nil {
			return err
		}
		oldStatus = receipt.Status
		receiptType = receipt.Type

		if !constants.CanTransition(receipt.Type, receipt.Status, constants.ReceiptStatusApproved) {
			return apperrors.NewStateError(
				"накладную %d (%s) нельзя утвердить из статуса %s", receiptID, receipt.Type, receipt.Status)
		}

		if receipt.Type == constants.ReceiptTypeBorrow {
			for _, line := range receipt.Lines {
				if !line.IsGroupLine() {
					continue
				}
				available, err := s.reservation.VirtualAvailableInTx(ctx, tx, line.GroupCode.String, receipt.ID)
				if err != nil {
					return err
				}
				if available < line.Quantity.Int {
					return apperrors.NewConflictError(
						"недостаточно оборудования группы %s: виртуальный остаток %d, запрошено %d",
						line.GroupCode.String, available, line.Quantity.Int)
				}
			}
		}

		return s.receiptRepo.SetApprovedInTx(ctx, tx, receiptID, approverCode)
	})
	if err != nil {
		s.logger.Warn("Утверждение накладной не прошло",
			zap.Int64("receiptId", receiptID), zap.Error(err))
		return nil, err
	}

	s.bus.Publish(ctx, events.ReceiptStatusChangedEvent{
		ReceiptID:   receiptID,
		ReceiptType: receiptType,
		OldStatus:   oldStatus,
		NewStatus:   constants.ReceiptStatusApproved,
	})

	return s.receiptRepo.FindByID(ctx, receiptID)
}

// Reject переводит накладную в rejected из начального статуса. Для серийных
// накладных (transfer/liquidation) снимаются все привязки и единицы
// возвращаются в available.
func (s *ReceiptService) Reject(ctx context.Context, receiptID int64, payload dto.RejectReceiptDTO) (*entities.Receipt, error) {
	approverCode, err := utils.GetUserCodeFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	var oldStatus, receiptType string

	err = repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		receipt, err := s.receiptRepo.FindForUpdateInTx(ctx, tx, receiptID)
		if err != nil {
			return err
		}
		oldStatus = receipt.Status
		receiptType = receipt.Type

		if !constants.CanTransition(receipt.Type, receipt.Status, constants.ReceiptStatusRejected) {
			return apperrors.NewStateError(
				"накладную %d (%s) нельзя отклонить из статуса %s", receiptID, receipt.Type, receipt.Status)
		}

		if receipt.Type == constants.ReceiptTypeTransfer || receipt.Type == constants.ReceiptTypeLiquidation {
			released, err := s.unitRepo.ReleaseAllocatedInTx(ctx, tx, receiptID, constants.UnitHoldStatusFor(receipt.Type))
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
		}

		return s.receiptRepo.SetRejectedInTx(ctx, tx, receiptID, approverCode, payload.Reason)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.ReceiptStatusChangedEvent{
		ReceiptID:   receiptID,
		ReceiptType: receiptType,
		OldStatus:   oldStatus,
		NewStatus:   constants.ReceiptStatusRejected,
	})

	return s.receiptRepo.FindByID(ctx, receiptID)
}

func (s *ReceiptService) GetReceipts(ctx context.Context, filter dto.ReceiptFilterDTO) ([]entities.Receipt, uint64, error) {
	if filter.Type != "" && !constants.IsValidReceiptType(filter.Type) {
		return nil, 0, apperrors.NewValidationError("неизвестный тип накладной: %s", filter.Type)
	}

	limit := uint64(20)
	if filter.Limit > 0 {
		limit = uint64(filter.Limit)
	}
	var offset uint64
	if filter.Page > 1 {
		offset = uint64(filter.Page-1) * limit
	}

	return s.receiptRepo.GetReceipts(ctx, filter.Type, filter.Status, limit, offset)
}

func (s *ReceiptService) FindReceipt(ctx context.Context, receiptID int64) (*entities.Receipt, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	allocations, err := s.allocRepo.ListByReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	receipt.Allocations = allocations

	return receipt, nil
}
