package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xuri/excelize/v2"
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

// ImportService — приходные накладные: единственный производитель новых
// единиц оборудования. Оприходование (receive) создаёт N единиц в статусе
// available по каждой групповой позиции и тем самым пополняет пул, которым
// оперируют резервирование и сканирование.
type ImportServiceInterface interface {
	CreateImportReceipt(ctx context.Context, payload dto.CreateImportReceiptDTO) (*entities.Receipt, error)
	Receive(ctx context.Context, receiptID int64) (*entities.Receipt, error)
	ParseLinesFromExcel(reader io.Reader) ([]dto.ImportLineDTO, error)
}

type ImportService struct {
	pool         *pgxpool.Pool
	receiptRepo  repositories.ReceiptRepositoryInterface
	unitRepo     repositories.EquipmentUnitRepositoryInterface
	groupService GroupServiceInterface
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewImportService(
	pool *pgxpool.Pool,
	receiptRepo repositories.ReceiptRepositoryInterface,
	unitRepo repositories.EquipmentUnitRepositoryInterface,
	groupService GroupServiceInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) ImportServiceInterface {
	return &ImportService{
		pool:         pool,
		receiptRepo:  receiptRepo,
		unitRepo:     unitRepo,
		groupService: groupService,
		bus:          bus,
		logger:       logger,
	}
}

func (s *ImportService) CreateImportReceipt(ctx context.Context, payload dto.CreateImportReceiptDTO) (*entities.Receipt, error) {
	requesterCode, err := utils.GetUserCodeFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	if len(payload.Lines) == 0 {
		return nil, apperrors.NewValidationError("накладная без позиций")
	}
	if err := s.groupService.EnsureRoomActive(ctx, payload.RoomID); err != nil {
		return nil, err
	}

	lines := make([]entities.ReceiptLine, 0, len(payload.Lines))
	for _, line := range payload.Lines {
		if line.Quantity <= 0 {
			return nil, apperrors.NewValidationError("неположительное количество для группы %s", line.GroupCode)
		}
		if len(line.Serials) > line.Quantity {
			return nil, apperrors.NewValidationError(
				"для группы %s указано %d серийных номеров при количестве %d",
				line.GroupCode, len(line.Serials), line.Quantity)
		}
		if _, err := s.groupService.FindGroup(ctx, line.GroupCode); err != nil {
			return nil, err
		}

		lines = append(lines, entities.ReceiptLine{
			GroupCode: null.StringFrom(line.GroupCode),
			Quantity:  null.IntFrom(line.Quantity),
		})
		// Явно заданные серийные номера храним отдельными серийными позициями.
		for _, serial := range line.Serials {
			lines = append(lines, entities.ReceiptLine{
				GroupCode: null.StringFrom(line.GroupCode),
				Serial:    null.StringFrom(serial),
			})
		}
	}

	receipt := entities.Receipt{
		Type:          constants.ReceiptTypeImport,
		Status:        constants.ReceiptStatusRequested,
		RequesterCode: requesterCode,
		RoomID:        null.Int64From(payload.RoomID),
		Note:          payload.Note,
	}

	var receiptID int64
	err = repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		receiptID, err = s.receiptRepo.CreateInTx(ctx, tx, receipt, lines)
		return err
	})
	if err != nil {
		s.logger.Error("Ошибка при создании приходной накладной", zap.Error(err))
		return nil, err
	}

	return s.receiptRepo.FindByID(ctx, receiptID)
}

// Receive — терминальный переход приходной накладной: создаются новые
// единицы. Недостающие серийные номера генерируются от кода группы.
func (s *ImportService) Receive(ctx context.Context, receiptID int64) (*entities.Receipt, error) {
	var oldStatus string

	err := repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		receipt, err := s.receiptRepo.FindForUpdateInTx(ctx, tx, receiptID)
		if err != nil {
			return err
		}
		oldStatus = receipt.Status

		if receipt.Type != constants.ReceiptTypeImport {
			return apperrors.NewValidationError("накладная %d не является приходной", receiptID)
		}
		if !constants.CanTransition(receipt.Type, receipt.Status, constants.ReceiptStatusReceived) {
			return apperrors.NewStateError(
				"оприходование недоступно для накладной %d в статусе %s", receiptID, receipt.Status)
		}

		serialsByGroup := make(map[string][]string)
		for _, line := range receipt.Lines {
			if line.Serial.Valid && line.GroupCode.Valid {
				serialsByGroup[line.GroupCode.String] = append(serialsByGroup[line.GroupCode.String], line.Serial.String)
			}
		}

		var units []entities.EquipmentUnit
		for _, line := range receipt.Lines {
			if !line.IsGroupLine() {
				continue
			}
			groupCode := line.GroupCode.String
			provided := serialsByGroup[groupCode]
			for i := 0; i < line.Quantity.Int; i++ {
				serial := ""
				if i < len(provided) {
					serial = provided[i]
				} else {
					serial = fmt.Sprintf("%s-%s", groupCode, uuid.NewString()[:8])
				}
				units = append(units, entities.EquipmentUnit{
					Serial:    serial,
					GroupCode: groupCode,
					Status:    constants.UnitStatusAvailable,
					RoomID:    receipt.RoomID,
				})
			}
		}

		if err := s.unitRepo.CreateUnitsInTx(ctx, tx, units); err != nil {
			return err
		}

		return s.receiptRepo.SetFinalizedInTx(ctx, tx, receiptID, constants.ReceiptStatusReceived)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.ReceiptStatusChangedEvent{
		ReceiptID:   receiptID,
		ReceiptType: constants.ReceiptTypeImport,
		OldStatus:   oldStatus,
		NewStatus:   constants.ReceiptStatusReceived,
	})

	return s.receiptRepo.FindByID(ctx, receiptID)
}

// ParseLinesFromExcel разбирает xlsx с колонками "группа", "количество" и
// необязательной "серийный номер". Шапка ищется по содержимому, а не по
// фиксированной строке: файлы приходят в разном виде.
func (s *ImportService) ParseLinesFromExcel(reader io.Reader) ([]dto.ImportLineDTO, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, apperrors.NewValidationError("не удалось открыть xlsx: %v", err)
	}
	defer f.Close()

	var (
		gIdx, qIdx, sIdx = -1, -1, -1
		headerRow        = -1
		dataRows         [][]string
	)

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for rIdx, row := range rows {
			rowStr := strings.ToLower(strings.Join(row, "|"))
			if strings.Contains(rowStr, "групп") && strings.Contains(rowStr, "кол") {
				for cIdx, colName := range row {
					cLower := strings.ToLower(strings.TrimSpace(colName))
					if strings.Contains(cLower, "групп") {
						gIdx = cIdx
					}
					if strings.Contains(cLower, "кол") {
						qIdx = cIdx
					}
					if strings.Contains(cLower, "серийн") || strings.Contains(cLower, "serial") {
						sIdx = cIdx
					}
				}
				if gIdx != -1 && qIdx != -1 {
					headerRow = rIdx
					dataRows = rows
					break
				}
			}
		}
		if headerRow != -1 {
			break
		}
	}

	if headerRow == -1 {
		return nil, apperrors.NewValidationError("не найдена шапка таблицы: нужны колонки 'группа' и 'количество'")
	}

	byGroup := make(map[string]*dto.ImportLineDTO)
	var order []string

	for i := headerRow + 1; i < len(dataRows); i++ {
		row := dataRows[i]
		if gIdx >= len(row) {
			continue
		}
		groupCode := strings.TrimSpace(row[gIdx])
		if groupCode == "" {
			continue
		}

		quantity := 0
		if qIdx < len(row) {
			quantity, _ = strconv.Atoi(strings.TrimSpace(row[qIdx]))
		}
		serial := ""
		if sIdx != -1 && sIdx < len(row) {
			serial = strings.TrimSpace(row[sIdx])
		}

		line, ok := byGroup[groupCode]
		if !ok {
			line = &dto.ImportLineDTO{GroupCode: groupCode}
			byGroup[groupCode] = line
			order = append(order, groupCode)
		}
		if serial != "" {
			line.Serials = append(line.Serials, serial)
			line.Quantity++
		} else if quantity > 0 {
			line.Quantity += quantity
		}
	}

	var result []dto.ImportLineDTO
	for _, code := range order {
		if byGroup[code].Quantity > 0 {
			result = append(result, *byGroup[code])
		}
	}
	if len(result) == 0 {
		return nil, apperrors.NewValidationError("в файле нет ни одной позиции")
	}

	return result, nil
}
