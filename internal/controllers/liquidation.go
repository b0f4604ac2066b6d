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

type LiquidationController struct {
	liquidationService services.LiquidationServiceInterface
	logger             *zap.Logger
}

func NewLiquidationController(
	liquidationService services.LiquidationServiceInterface,
	logger *zap.Logger,
) *LiquidationController {
	return &LiquidationController{
		liquidationService: liquidationService,
		logger:             logger,
	}
}

func (c *LiquidationController) CreateLiquidationReceipt(ctx echo.Context) error {
	var payload dto.CreateUnitReceiptDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewValidationError("неверный формат данных в теле запроса"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	receipt, err := c.liquidationService.CreateLiquidationReceipt(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Error("CreateLiquidationReceipt: ошибка при создании накладной", zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusCreated, "Накладная списания создана", receipt)
}

func (c *LiquidationController) MarkLiquidated(ctx echo.Context) error {
	id, err := parseReceiptID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	receipt, err := c.liquidationService.MarkLiquidated(ctx.Request().Context(), id)
	if err != nil {
		c.logger.Warn("MarkLiquidated: списание не прошло", zap.Int64("id", id), zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Оборудование списано", receipt)
}
