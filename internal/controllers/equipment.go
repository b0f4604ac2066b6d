package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/services"
	"equipment-system/pkg/api"
	apperrors "equipment-system/pkg/errors"
)

// EquipmentController — чтение реестра: единицы, справочник групп и
// виртуальный остаток по группе.
type EquipmentController struct {
	equipmentService   services.EquipmentServiceInterface
	groupService       services.GroupServiceInterface
	reservationService services.ReservationServiceInterface
	logger             *zap.Logger
}

func NewEquipmentController(
	equipmentService services.EquipmentServiceInterface,
	groupService services.GroupServiceInterface,
	reservationService services.ReservationServiceInterface,
	logger *zap.Logger,
) *EquipmentController {
	return &EquipmentController{
		equipmentService:   equipmentService,
		groupService:       groupService,
		reservationService: reservationService,
		logger:             logger,
	}
}

func (c *EquipmentController) GetUnits(ctx echo.Context) error {
	var filter dto.UnitFilterDTO
	if err := ctx.Bind(&filter); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewValidationError("неверные параметры запроса"))
	}

	units, total, err := c.equipmentService.GetUnits(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("GetUnits: ошибка при получении списка единиц", zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	return api.SuccessList(ctx, "Список единиц успешно получен", units, total, page, limit)
}

func (c *EquipmentController) FindUnit(ctx echo.Context) error {
	serial := ctx.Param("serial")
	if serial == "" {
		return api.ErrorResponse(ctx, apperrors.NewValidationError("серийный номер не указан"))
	}

	unit, err := c.equipmentService.FindUnit(ctx.Request().Context(), serial)
	if err != nil {
		c.logger.Error("FindUnit: ошибка при поиске единицы", zap.String("serial", serial), zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Единица успешно найдена", unit)
}

func (c *EquipmentController) GetGroups(ctx echo.Context) error {
	groups, err := c.groupService.GetGroups(ctx.Request().Context())
	if err != nil {
		c.logger.Error("GetGroups: ошибка при получении справочника групп", zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Справочник групп успешно получен", groups)
}

func (c *EquipmentController) GetGroupAvailability(ctx echo.Context) error {
	code := ctx.Param("code")
	if code == "" {
		return api.ErrorResponse(ctx, apperrors.NewValidationError("код группы не указан"))
	}

	availability, err := c.reservationService.GroupAvailability(ctx.Request().Context(), code)
	if err != nil {
		c.logger.Error("GetGroupAvailability: ошибка при расчёте остатка",
			zap.String("code", code), zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Остаток по группе рассчитан", availability)
}
