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

type BorrowController struct {
	borrowService services.BorrowServiceInterface
	logger        *zap.Logger
}

func NewBorrowController(
	borrowService services.BorrowServiceInterface,
	logger *zap.Logger,
) *BorrowController {
	return &BorrowController{
		borrowService: borrowService,
		logger:        logger,
	}
}

func (c *BorrowController) CreateBorrowReceipt(ctx echo.Context) error {
	var payload dto.CreateBorrowReceiptDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewValidationError("неверный формат данных в теле запроса"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	receipt, err := c.borrowService.CreateBorrowReceipt(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Error("CreateBorrowReceipt: ошибка при создании накладной", zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusCreated, "Накладная выдачи создана", receipt)
}

func (c *BorrowController) ScanIn(ctx echo.Context) error {
	id, err := parseReceiptID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	var payload dto.ScanDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewValidationError("неверный формат данных в теле запроса"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	receipt, err := c.borrowService.ScanIn(ctx.Request().Context(), id, payload.Serial)
	if err != nil {
		c.logger.Warn("ScanIn: привязка единицы не прошла",
			zap.Int64("id", id), zap.String("serial", payload.Serial), zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Единица привязана к накладной", receipt)
}

func (c *BorrowController) ScanOut(ctx echo.Context) error {
	id, err := parseReceiptID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	var payload dto.ScanDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewValidationError("неверный формат данных в теле запроса"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	receipt, err := c.borrowService.ScanOut(ctx.Request().Context(), id, payload.Serial)
	if err != nil {
		c.logger.Warn("ScanOut: снятие привязки не прошло",
			zap.Int64("id", id), zap.String("serial", payload.Serial), zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Привязка единицы снята", receipt)
}

func (c *BorrowController) MarkReturned(ctx echo.Context) error {
	id, err := parseReceiptID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	receipt, err := c.borrowService.MarkReturned(ctx.Request().Context(), id)
	if err != nil {
		c.logger.Warn("MarkReturned: возврат не прошёл", zap.Int64("id", id), zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Оборудование возвращено", receipt)
}
