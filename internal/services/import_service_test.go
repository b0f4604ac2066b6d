package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"equipment-system/internal/dto"
	"equipment-system/pkg/constants"
	apperrors "equipment-system/pkg/errors"
)

func TestImportService_Integration_FullLifecycle(t *testing.T) {
	require.NotNil(t, testPool, "testPool не инициализирован")
	cleanupTables(t, testPool)
	env := newTestEnv(t)

	roomID := seedRoom(t, "Склад №1")
	seedGroup(t, "LAPTOP", "Ноутбуки")

	ctx := userCtx("U-100")
	receipt, err := env.imports.CreateImportReceipt(ctx, dto.CreateImportReceiptDTO{
		RoomID: roomID,
		Lines: []dto.ImportLineDTO{
			{GroupCode: "LAPTOP", Quantity: 3, Serials: []string{"LAPTOP-SN-777"}},
		},
		Note: "поставка по договору 42",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusRequested, receipt.Status)
	// Групповая позиция + одна серийная
	assert.Len(t, receipt.Lines, 2)

	// Оприходовать без утверждения нельзя
	_, err = env.imports.Receive(ctx, receipt.ID)
	var stateErr *apperrors.StateError
	assert.ErrorAs(t, err, &stateErr)

	_, err = env.receipts.Approve(userCtx("U-200"), receipt.ID)
	require.NoError(t, err)

	receipt, err = env.imports.Receive(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusReceived, receipt.Status)
	assert.True(t, receipt.FinalizedAt.Valid)

	// Созданы 3 единицы: явный серийник + два сгенерированных
	units, total, err := env.equipment.GetUnits(ctx, dto.UnitFilterDTO{GroupCode: "LAPTOP"})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)

	explicitFound := false
	for _, unit := range units {
		assert.Equal(t, constants.UnitStatusAvailable, unit.Status)
		assert.Equal(t, roomID, unit.RoomID.Int64)
		assert.True(t, strings.HasPrefix(unit.Serial, "LAPTOP-"))
		if unit.Serial == "LAPTOP-SN-777" {
			explicitFound = true
		}
	}
	assert.True(t, explicitFound, "явно заданный серийный номер должен сохраниться")

	// Оприходованное сразу участвует в виртуальном остатке
	availability, err := env.reservation.GroupAvailability(ctx, "LAPTOP")
	require.NoError(t, err)
	assert.Equal(t, 3, availability.VirtualAvailable)
}

func TestImportService_Integration_ValidationAndConflicts(t *testing.T) {
	cleanupTables(t, testPool)
	env := newTestEnv(t)

	roomID := seedRoom(t, "Склад №1")
	seedGroup(t, "LAPTOP", "Ноутбуки")
	seedUnits(t, "LAPTOP", roomID, 1) // LAPTOP-001 уже существует

	ctx := userCtx("U-100")

	// Серийных номеров больше, чем количество
	_, err := env.imports.CreateImportReceipt(ctx, dto.CreateImportReceiptDTO{
		RoomID: roomID,
		Lines: []dto.ImportLineDTO{
			{GroupCode: "LAPTOP", Quantity: 1, Serials: []string{"A", "B"}},
		},
	})
	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	// Неизвестная группа
	_, err = env.imports.CreateImportReceipt(ctx, dto.CreateImportReceiptDTO{
		RoomID: roomID,
		Lines:  []dto.ImportLineDTO{{GroupCode: "UNKNOWN", Quantity: 1}},
	})
	var notFoundErr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)

	// Дубликат существующего серийного номера всплывает при оприходовании
	receipt, err := env.imports.CreateImportReceipt(ctx, dto.CreateImportReceiptDTO{
		RoomID: roomID,
		Lines: []dto.ImportLineDTO{
			{GroupCode: "LAPTOP", Quantity: 1, Serials: []string{"LAPTOP-001"}},
		},
	})
	require.NoError(t, err)
	_, err = env.receipts.Approve(userCtx("U-200"), receipt.ID)
	require.NoError(t, err)

	_, err = env.imports.Receive(ctx, receipt.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err), "дубликат серийного номера — конфликт: %v", err)

	// Откат: новых единиц не появилось, накладная осталась approved
	_, total, err := env.equipment.GetUnits(ctx, dto.UnitFilterDTO{GroupCode: "LAPTOP"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	reloaded, err := env.receipts.FindReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusApproved, reloaded.Status)
}

func TestImportService_ParseLinesFromExcel(t *testing.T) {
	env := newTestEnv(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Группа", "Количество", "Серийный номер"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"LAPTOP", 2, ""}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"MONITOR", "", "MON-001"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"MONITOR", "", "MON-002"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	lines, err := env.imports.ParseLinesFromExcel(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "LAPTOP", lines[0].GroupCode)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Empty(t, lines[0].Serials)

	assert.Equal(t, "MONITOR", lines[1].GroupCode)
	assert.Equal(t, 2, lines[1].Quantity)
	assert.Equal(t, []string{"MON-001", "MON-002"}, lines[1].Serials)
}

func TestImportService_ParseLinesFromExcel_NoHeader(t *testing.T) {
	env := newTestEnv(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"что-то", "другое"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = env.imports.ParseLinesFromExcel(bytes.NewReader(buf.Bytes()))
	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

// Проверка контекста: операции движка требуют кода пользователя.
func TestImportService_Integration_RequiresUserCode(t *testing.T) {
	cleanupTables(t, testPool)
	env := newTestEnv(t)

	roomID := seedRoom(t, "Склад №1")
	seedGroup(t, "LAPTOP", "Ноутбуки")

	_, err := env.imports.CreateImportReceipt(context.Background(), dto.CreateImportReceiptDTO{
		RoomID: roomID,
		Lines:  []dto.ImportLineDTO{{GroupCode: "LAPTOP", Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperrors.ErrUserCodeNotFoundInContext)
}
