package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"equipment-system/internal/entities"
	"equipment-system/internal/repositories"
	apperrors "equipment-system/pkg/errors"
)

// GroupService — read-only доступ к справочникам (группы, помещения) с
// кешированием в Redis. Движок считает эти данные уже проверенными; здесь
// только быстрые lookups перед операциями.
type GroupServiceInterface interface {
	FindGroup(ctx context.Context, code string) (*entities.EquipmentGroup, error)
	GetGroups(ctx context.Context) ([]entities.EquipmentGroup, error)
	EnsureRoomActive(ctx context.Context, roomID int64) error
}

type GroupService struct {
	groupRepo repositories.EquipmentGroupRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewGroupService(
	groupRepo repositories.EquipmentGroupRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	cacheTTL time.Duration,
	logger *zap.Logger,
) GroupServiceInterface {
	return &GroupService{
		groupRepo: groupRepo,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

func groupCacheKey(code string) string {
	return fmt.Sprintf("equipment_group:%s", code)
}

func (s *GroupService) FindGroup(ctx context.Context, code string) (*entities.EquipmentGroup, error) {
	if cached, err := s.cacheRepo.Get(ctx, groupCacheKey(code)); err == nil && cached != "" {
		var group entities.EquipmentGroup
		if err := json.Unmarshal([]byte(cached), &group); err == nil {
			return &group, nil
		}
		// Битое значение в кеше не должно ломать запрос
		_ = s.cacheRepo.Del(ctx, groupCacheKey(code))
	}

	group, err := s.groupRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(group); err == nil {
		if err := s.cacheRepo.Set(ctx, groupCacheKey(code), string(payload), s.cacheTTL); err != nil {
			s.logger.Warn("Не удалось записать группу в кеш", zap.String("code", code), zap.Error(err))
		}
	}

	return group, nil
}

func (s *GroupService) GetGroups(ctx context.Context) ([]entities.EquipmentGroup, error) {
	return s.groupRepo.GetGroups(ctx)
}

func (s *GroupService) EnsureRoomActive(ctx context.Context, roomID int64) error {
	room, err := s.groupRepo.FindRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.IsActive {
		return apperrors.NewValidationError("помещение %d неактивно", roomID)
	}
	return nil
}
