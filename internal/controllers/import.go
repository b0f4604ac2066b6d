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

type ImportController struct {
	importService services.ImportServiceInterface
	logger        *zap.Logger
}

func NewImportController(
	importService services.ImportServiceInterface,
	logger *zap.Logger,
) *ImportController {
	return &ImportController{
		importService: importService,
		logger:        logger,
	}
}

func (c *ImportController) CreateImportReceipt(ctx echo.Context) error {
	var payload dto.CreateImportReceiptDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewValidationError("неверный формат данных в теле запроса"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	receipt, err := c.importService.CreateImportReceipt(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Error("CreateImportReceipt: ошибка при создании накладной", zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusCreated, "Приходная накладная создана", receipt)
}

func (c *ImportController) Receive(ctx echo.Context) error {
	id, err := parseReceiptID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}

	receipt, err := c.importService.Receive(ctx.Request().Context(), id)
	if err != nil {
		c.logger.Warn("Receive: оприходование не прошло", zap.Int64("id", id), zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Оборудование оприходовано", receipt)
}

// ParseFile принимает xlsx и возвращает распознанные позиции. Сама накладная
// создаётся отдельным запросом после проверки позиций оператором.
func (c *ImportController) ParseFile(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return api.ErrorResponse(ctx, apperrors.NewValidationError("файл не передан в поле 'file'"))
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.logger.Error("ParseFile: не удалось открыть загруженный файл", zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}
	defer src.Close()

	lines, err := c.importService.ParseLinesFromExcel(src)
	if err != nil {
		c.logger.Warn("ParseFile: разбор файла не прошёл",
			zap.String("filename", fileHeader.Filename), zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Файл успешно разобран", lines)
}
