package services

import (
	"context"

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

// LiquidationService — списание конкретных единиц. Статус liquidation для
// единицы терминален; после финализации привязка к накладной остаётся
// активной как след списания.
type LiquidationServiceInterface interface {
	CreateLiquidationReceipt(ctx context.Context, payload dto.CreateUnitReceiptDTO) (*entities.Receipt, error)
	MarkLiquidated(ctx context.Context, receiptID int64) (*entities.Receipt, error)
}

type LiquidationService struct {
	pool        *pgxpool.Pool
	receiptRepo repositories.ReceiptRepositoryInterface
	unitRepo    repositories.EquipmentUnitRepositoryInterface
	allocRepo   repositories.AllocationRepositoryInterface
	bus         *eventbus.Bus
	logger      *zap.Logger
}

func NewLiquidationService(
	pool *pgxpool.Pool,
	receiptRepo repositories.ReceiptRepositoryInterface,
	unitRepo repositories.EquipmentUnitRepositoryInterface,
	allocRepo repositories.AllocationRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) LiquidationServiceInterface {
	return &LiquidationService{
		pool:        pool,
		receiptRepo: receiptRepo,
		unitRepo:    unitRepo,
		allocRepo:   allocRepo,
		bus:         bus,
		logger:      logger,
	}
}

func (s *LiquidationService) CreateLiquidationReceipt(ctx context.Context, payload dto.CreateUnitReceiptDTO) (*entities.Receipt, error) {
	requesterCode, err := utils.GetUserCodeFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	if len(payload.Serials) == 0 {
		return nil, apperrors.NewValidationError("накладная без серийных номеров")
	}

	var receiptID int64
	err = repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		receiptID, err = createUnitReceiptInTx(ctx, tx,
			s.receiptRepo, s.unitRepo, s.allocRepo,
			constants.ReceiptTypeLiquidation, requesterCode, payload)
		return err
	})
	if err != nil {
		s.logger.Warn("Ошибка при создании накладной списания", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Накладная списания создана",
		zap.Int64("receiptId", receiptID), zap.Int("units", len(payload.Serials)))

	return s.receiptRepo.FindByID(ctx, receiptID)
}

func (s *LiquidationService) MarkLiquidated(ctx context.Context, receiptID int64) (*entities.Receipt, error) {
	var oldStatus string

	err := repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		receipt, err := s.receiptRepo.FindForUpdateInTx(ctx, tx, receiptID)
		if err != nil {
			return err
		}
		oldStatus = receipt.Status

		if receipt.Type != constants.ReceiptTypeLiquidation {
			return apperrors.NewValidationError("накладная %d не является накладной списания", receiptID)
		}
		if !constants.CanTransition(receipt.Type, receipt.Status, constants.ReceiptStatusLiquidated) {
			return apperrors.NewStateError(
				"списание недоступно для накладной %d в статусе %s", receiptID, receipt.Status)
		}

		// Единицы уже в терминальном статусе liquidation; привязки не снимаем.
		return s.receiptRepo.SetFinalizedInTx(ctx, tx, receiptID, constants.ReceiptStatusLiquidated)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.ReceiptStatusChangedEvent{
		ReceiptID:   receiptID,
		ReceiptType: constants.ReceiptTypeLiquidation,
		OldStatus:   oldStatus,
		NewStatus:   constants.ReceiptStatusLiquidated,
	})

	return s.receiptRepo.FindByID(ctx, receiptID)
}
