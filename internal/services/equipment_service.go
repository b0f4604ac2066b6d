package services

import (
	"context"

	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/entities"
	"equipment-system/internal/repositories"
	"equipment-system/pkg/constants"
	apperrors "equipment-system/pkg/errors"
)

// EquipmentService — чтение реестра единиц. Карточка единицы дополняется
// активной привязкой, если единица сейчас закреплена за накладной.
type EquipmentServiceInterface interface {
	GetUnits(ctx context.Context, filter dto.UnitFilterDTO) ([]entities.EquipmentUnit, uint64, error)
	FindUnit(ctx context.Context, serial string) (*entities.EquipmentUnit, error)
}

type EquipmentService struct {
	unitRepo  repositories.EquipmentUnitRepositoryInterface
	allocRepo repositories.AllocationRepositoryInterface
	logger    *zap.Logger
}

func NewEquipmentService(
	unitRepo repositories.EquipmentUnitRepositoryInterface,
	allocRepo repositories.AllocationRepositoryInterface,
	logger *zap.Logger,
) EquipmentServiceInterface {
	return &EquipmentService{
		unitRepo:  unitRepo,
		allocRepo: allocRepo,
		logger:    logger,
	}
}

func (s *EquipmentService) GetUnits(ctx context.Context, filter dto.UnitFilterDTO) ([]entities.EquipmentUnit, uint64, error) {
	if filter.Status != "" && !constants.IsValidUnitStatus(filter.Status) {
		return nil, 0, apperrors.NewValidationError("неизвестный статус единицы: %s", filter.Status)
	}

	limit := uint64(20)
	if filter.Limit > 0 {
		limit = uint64(filter.Limit)
	}
	var offset uint64
	if filter.Page > 1 {
		offset = uint64(filter.Page-1) * limit
	}

	return s.unitRepo.GetUnits(ctx, filter.GroupCode, filter.Status, limit, offset)
}

func (s *EquipmentService) FindUnit(ctx context.Context, serial string) (*entities.EquipmentUnit, error) {
	unit, err := s.unitRepo.FindBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}

	allocation, err := s.allocRepo.FindActiveBySerial(ctx, serial)
	if err == nil {
		unit.Allocation = allocation
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	return unit, nil
}
