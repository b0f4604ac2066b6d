package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/services"
	"equipment-system/pkg/api"
	apperrors "equipment-system/pkg/errors"
)

// ReceiptController — общие операции над накладными любого типа: список,
// карточка, утверждение, отклонение.
type ReceiptController struct {
	receiptService services.ReceiptServiceInterface
	logger         *zap.Logger
}

func NewReceiptController(
	receiptService services.ReceiptServiceInterface,
	logger *zap.Logger,
) *ReceiptController {
	return &ReceiptController{
		receiptService: receiptService,
		logger:         logger,
	}
}

func parseReceiptID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("неверный формат ID накладной: %s", ctx.Param("id"))
	}
	return id, nil
}

func (c *ReceiptController) GetReceipts(ctx echo.Context) error {
	var filter dto.ReceiptFilterDTO
	if err := ctx.Bind(&filter); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewValidationError("неверные параметры запроса"))
	}

	receipts, total, err := c.receiptService.GetReceipts(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("GetReceipts: ошибка при получении списка накладных", zap.Error(err))
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

	return api.SuccessList(ctx, "Список накладных успешно получен", receipts, total, page, limit)
}

func (c *ReceiptController) FindReceipt(ctx echo.Context) error {
	id, err := parseReceiptID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	receipt, err := c.receiptService.FindReceipt(ctx.Request().Context(), id)
	if err != nil {
		c.logger.Error("FindReceipt: ошибка при поиске накладной", zap.Int64("id", id), zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Накладная успешно найдена", receipt)
}

func (c *ReceiptController) Approve(ctx echo.Context) error {
	id, err := parseReceiptID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	receipt, err := c.receiptService.Approve(ctx.Request().Context(), id)
	if err != nil {
		c.logger.Warn("Approve: утверждение не прошло", zap.Int64("id", id), zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Накладная утверждена", receipt)
}

func (c *ReceiptController) Reject(ctx echo.Context) error {
	id, err := parseReceiptID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	var payload dto.RejectReceiptDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewValidationError("неверный формат данных в теле запроса"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	receipt, err := c.receiptService.Reject(ctx.Request().Context(), id, payload)
	if err != nil {
		c.logger.Warn("Reject: отклонение не прошло", zap.Int64("id", id), zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Накладная отклонена", receipt)
}
