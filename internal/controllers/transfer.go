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

type TransferController struct {
	transferService services.TransferServiceInterface
	logger          *zap.Logger
}

func NewTransferController(
	transferService services.TransferServiceInterface,
	logger *zap.Logger,
) *TransferController {
	return &TransferController{
		transferService: transferService,
		logger:          logger,
	}
}

func (c *TransferController) CreateTransferReceipt(ctx echo.Context) error {
	var payload dto.CreateUnitReceiptDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewValidationError("неверный формат данных в теле запроса"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	receipt, err := c.transferService.CreateTransferReceipt(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Error("CreateTransferReceipt: ошибка при создании накладной", zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusCreated, "Накладная перемещения создана", receipt)
}

func (c *TransferController) MarkTransferred(ctx echo.Context) error {
	id, err := parseReceiptID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	receipt, err := c.transferService.MarkTransferred(ctx.Request().Context(), id)
	if err != nil {
		c.logger.Warn("MarkTransferred: перемещение не прошло", zap.Int64("id", id), zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Оборудование перемещено", receipt)
}
