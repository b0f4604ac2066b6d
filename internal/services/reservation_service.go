package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/repositories"
)

// ReservationService решает на этапе утверждения, сможет ли групповая заявка
// когда-нибудь быть исполнена, не блокируя конкретные единицы (привязка
// происходит позже, при сканировании).
type ReservationServiceInterface interface {
	VirtualAvailableInTx(ctx context.Context, tx pgx.Tx, groupCode string, excludeReceiptID int64) (int, error)
	GroupAvailability(ctx context.Context, groupCode string) (*dto.GroupAvailabilityDTO, error)
}

type ReservationService struct {
	txManager   repositories.TxManagerInterface
	unitRepo    repositories.EquipmentUnitRepositoryInterface
	receiptRepo repositories.ReceiptRepositoryInterface
	logger      *zap.Logger
}

func NewReservationService(
	txManager repositories.TxManagerInterface,
	unitRepo repositories.EquipmentUnitRepositoryInterface,
	receiptRepo repositories.ReceiptRepositoryInterface,
	logger *zap.Logger,
) ReservationServiceInterface {
	return &ReservationService{
		txManager:   txManager,
		unitRepo:    unitRepo,
		receiptRepo: receiptRepo,
		logger:      logger,
	}
}

// VirtualAvailableInTx = физически доступные единицы группы минус остаток
// обещаний других утверждённых, но не исполненных накладных. Подсчёт физических
// единиц блокирует их строки (FOR UPDATE), поэтому два конкурентных утверждения
// по одной группе не могут оба увидеть достаточный остаток: второе ждёт коммита
// первого.
func (s *ReservationService) VirtualAvailableInTx(ctx context.Context, tx pgx.Tx, groupCode string, excludeReceiptID int64) (int, error) {
	physical, err := s.unitRepo.CountAvailableInGroupLockedInTx(ctx, tx, groupCode)
	if err != nil {
		return 0, err
	}

	outstanding, err := s.receiptRepo.SumOutstandingForGroupInTx(ctx, tx, groupCode, excludeReceiptID)
	if err != nil {
		return 0, err
	}

	return physical - outstanding, nil
}

// GroupAvailability — справочное чтение остатка для внешнего слоя.
// В отличие от утверждения, строки единиц здесь не блокируются.
func (s *ReservationService) GroupAvailability(ctx context.Context, groupCode string) (*dto.GroupAvailabilityDTO, error) {
	var result dto.GroupAvailabilityDTO
	result.GroupCode = groupCode

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		physical, err := s.unitRepo.CountAvailableInGroupInTx(ctx, tx, groupCode)
		if err != nil {
			return err
		}
		outstanding, err := s.receiptRepo.SumOutstandingForGroupInTx(ctx, tx, groupCode, 0)
		if err != nil {
			return err
		}
		result.PhysicalAvailable = physical
		result.Outstanding = outstanding
		result.VirtualAvailable = physical - outstanding
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
