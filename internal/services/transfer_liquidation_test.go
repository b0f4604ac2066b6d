package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-system/internal/dto"
	"equipment-system/pkg/constants"
	apperrors "equipment-system/pkg/errors"
)

func TestTransferService_Integration_FullLifecycle(t *testing.T) {
	require.NotNil(t, testPool, "testPool не инициализирован")
	cleanupTables(t, testPool)
	env := newTestEnv(t)

	sourceRoomID := seedRoom(t, "Склад №1")
	targetRoomID := seedRoom(t, "Офис 301")
	seedGroup(t, "MONITOR", "Мониторы")
	serials := seedUnits(t, "MONITOR", sourceRoomID, 3)

	ctx := userCtx("U-100")
	receipt, err := env.transfer.CreateTransferReceipt(ctx, dto.CreateUnitReceiptDTO{
		RoomID:  targetRoomID,
		Serials: serials[:2],
	})
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusRequested, receipt.Status)
	assert.Equal(t, 2, allocationCount(t, receipt.ID))
	for _, serial := range serials[:2] {
		assert.Equal(t, constants.UnitStatusPendingTransfer, unitStatus(t, serial))
	}

	// До утверждения финализация запрещена
	_, err = env.transfer.MarkTransferred(ctx, receipt.ID)
	var stateErr *apperrors.StateError
	assert.ErrorAs(t, err, &stateErr)

	_, err = env.receipts.Approve(userCtx("U-200"), receipt.ID)
	require.NoError(t, err)

	receipt, err = env.transfer.MarkTransferred(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusTransferred, receipt.Status)
	assert.True(t, receipt.FinalizedAt.Valid)
	assert.Equal(t, 0, allocationCount(t, receipt.ID))

	// Единицы доступны в целевом помещении
	for _, serial := range serials[:2] {
		var status string
		var roomID int64
		err = testPool.QueryRow(context.Background(),
			`SELECT status, room_id FROM equipment_units WHERE serial = $1`, serial).Scan(&status, &roomID)
		require.NoError(t, err)
		assert.Equal(t, constants.UnitStatusAvailable, status)
		assert.Equal(t, targetRoomID, roomID)
	}
}

func TestTransferService_Integration_BusySerialRollsBack(t *testing.T) {
	cleanupTables(t, testPool)
	env := newTestEnv(t)

	roomID := seedRoom(t, "Склад №1")
	targetRoomID := seedRoom(t, "Офис 301")
	seedGroup(t, "MONITOR", "Мониторы")
	serials := seedUnits(t, "MONITOR", roomID, 3)

	ctx := userCtx("U-100")
	_, err := env.transfer.CreateTransferReceipt(ctx, dto.CreateUnitReceiptDTO{
		RoomID:  targetRoomID,
		Serials: serials[:1],
	})
	require.NoError(t, err)

	// Вторая накладная захватывает уже занятую единицу: всё откатывается
	_, err = env.transfer.CreateTransferReceipt(ctx, dto.CreateUnitReceiptDTO{
		RoomID:  targetRoomID,
		Serials: []string{serials[1], serials[0]},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err), "занятая единица — конфликт: %v", err)
	assert.Equal(t, constants.UnitStatusAvailable, unitStatus(t, serials[1]),
		"свободная единица из неудавшейся накладной не должна остаться захваченной")

	// Неизвестный серийный номер
	_, err = env.transfer.CreateTransferReceipt(ctx, dto.CreateUnitReceiptDTO{
		RoomID:  targetRoomID,
		Serials: []string{"NO-SUCH-SERIAL"},
	})
	var notFoundErr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestLiquidationService_Integration_FullLifecycle(t *testing.T) {
	cleanupTables(t, testPool)
	env := newTestEnv(t)

	roomID := seedRoom(t, "Склад №1")
	seedGroup(t, "PRINTER", "Принтеры")
	serials := seedUnits(t, "PRINTER", roomID, 2)

	ctx := userCtx("U-100")
	receipt, err := env.liquidation.CreateLiquidationReceipt(ctx, dto.CreateUnitReceiptDTO{
		Serials: serials,
		Note:    "выработан ресурс",
	})
	require.NoError(t, err)
	for _, serial := range serials {
		assert.Equal(t, constants.UnitStatusLiquidation, unitStatus(t, serial))
	}

	_, err = env.receipts.Approve(userCtx("U-200"), receipt.ID)
	require.NoError(t, err)

	receipt, err = env.liquidation.MarkLiquidated(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusLiquidated, receipt.Status)
	assert.True(t, receipt.FinalizedAt.Valid)

	// Списание терминально: единицы остаются в liquidation, привязки — след операции
	for _, serial := range serials {
		assert.Equal(t, constants.UnitStatusLiquidation, unitStatus(t, serial))
	}
	assert.Equal(t, 2, allocationCount(t, receipt.ID))

	// Списанную единицу нельзя захватить другой накладной
	_, err = env.liquidation.CreateLiquidationReceipt(ctx, dto.CreateUnitReceiptDTO{
		Serials: serials[:1],
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

// Списанные единицы не участвуют в виртуальном остатке.
func TestLiquidationService_Integration_ExcludedFromAvailability(t *testing.T) {
	cleanupTables(t, testPool)
	env := newTestEnv(t)

	roomID := seedRoom(t, "Склад №1")
	seedGroup(t, "PRINTER", "Принтеры")
	serials := seedUnits(t, "PRINTER", roomID, 3)

	ctx := userCtx("U-100")
	_, err := env.liquidation.CreateLiquidationReceipt(ctx, dto.CreateUnitReceiptDTO{
		Serials: serials[:2],
	})
	require.NoError(t, err)

	availability, err := env.reservation.GroupAvailability(ctx, "PRINTER")
	require.NoError(t, err)
	assert.Equal(t, 1, availability.PhysicalAvailable)
	assert.Equal(t, 1, availability.VirtualAvailable)
}
