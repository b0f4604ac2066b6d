package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-system/internal/dto"
	"equipment-system/pkg/constants"
	apperrors "equipment-system/pkg/errors"
)

func TestBorrowService_Integration_FullLifecycle(t *testing.T) {
	require.NotNil(t, testPool, "testPool не инициализирован")
	cleanupTables(t, testPool)
	env := newTestEnv(t)

	roomID := seedRoom(t, "Склад №1")
	seedGroup(t, "LAPTOP", "Ноутбуки")
	serials := seedUnits(t, "LAPTOP", roomID, 5)

	ctx := userCtx("U-100")
	receipt, err := env.borrow.CreateBorrowReceipt(ctx, dto.CreateBorrowReceiptDTO{
		RoomID: roomID,
		Lines:  []dto.BorrowLineDTO{{GroupCode: "LAPTOP", Quantity: 3}},
		Note:   "на выездной семинар",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusRequested, receipt.Status)
	assert.Equal(t, "U-100", receipt.RequesterCode)
	require.Len(t, receipt.Lines, 1)

	// Утверждение: виртуальный остаток 5 >= 3
	approveCtx := userCtx("U-200")
	receipt, err = env.receipts.Approve(approveCtx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusApproved, receipt.Status)
	assert.Equal(t, "U-200", receipt.ApproverCode.String)
	assert.True(t, receipt.ApprovedAt.Valid)

	// Первый скан: approved -> processing, единица reserved
	receipt, err = env.borrow.ScanIn(ctx, receipt.ID, serials[0])
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusProcessing, receipt.Status)
	assert.Equal(t, constants.UnitStatusReserved, unitStatus(t, serials[0]))
	assert.Equal(t, 1, allocationCount(t, receipt.ID))

	// Второй скан: остаёмся в processing
	receipt, err = env.borrow.ScanIn(ctx, receipt.ID, serials[1])
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusProcessing, receipt.Status)

	// Третий (последний) скан: processing -> borrowed, все единицы in_use
	receipt, err = env.borrow.ScanIn(ctx, receipt.ID, serials[2])
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusBorrowed, receipt.Status)
	for _, serial := range serials[:3] {
		assert.Equal(t, constants.UnitStatusInUse, unitStatus(t, serial))
	}
	assert.Equal(t, constants.UnitStatusAvailable, unitStatus(t, serials[3]),
		"несканированные единицы не трогаем")

	// У выданных единиц проставлен момент первого использования
	var firstUsed int
	err = testPool.QueryRow(ctx,
		`SELECT COUNT(*) FROM equipment_units WHERE serial = ANY($1) AND first_used_at IS NOT NULL`,
		serials[:3]).Scan(&firstUsed)
	require.NoError(t, err)
	assert.Equal(t, 3, firstUsed)

	// Возврат: borrowed -> returned, единицы снова available, привязки сняты
	receipt, err = env.borrow.MarkReturned(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusReturned, receipt.Status)
	assert.True(t, receipt.FinalizedAt.Valid)
	for _, serial := range serials[:3] {
		assert.Equal(t, constants.UnitStatusAvailable, unitStatus(t, serial))
	}
	assert.Equal(t, 0, allocationCount(t, receipt.ID))

	// Повторный возврат невозможен
	_, err = env.borrow.MarkReturned(ctx, receipt.ID)
	require.Error(t, err)
	var stateErr *apperrors.StateError
	assert.ErrorAs(t, err, &stateErr, "повторный возврат должен давать ошибку состояния")
}

// Дубль группы в позициях делает квоты и подсчёт остатка неоднозначными,
// поэтому отклоняется при создании.
func TestBorrowService_Integration_DuplicateGroupLineRejected(t *testing.T) {
	cleanupTables(t, testPool)
	env := newTestEnv(t)

	roomID := seedRoom(t, "Склад №1")
	seedGroup(t, "LAPTOP", "Ноутбуки")
	seedUnits(t, "LAPTOP", roomID, 2)

	ctx := userCtx("U-100")
	_, err := env.borrow.CreateBorrowReceipt(ctx, dto.CreateBorrowReceiptDTO{
		RoomID: roomID,
		Lines: []dto.BorrowLineDTO{
			{GroupCode: "LAPTOP", Quantity: 1},
			{GroupCode: "LAPTOP", Quantity: 1},
		},
	})
	require.Error(t, err)
	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr, "дубль группы в позициях — ошибка валидации: %v", err)

	// Накладная не создана
	var count int
	err = testPool.QueryRow(ctx, `SELECT COUNT(*) FROM receipts`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestBorrowService_Integration_SingleUnitReceipt(t *testing.T) {
	cleanupTables(t, testPool)
	env := newTestEnv(t)

	roomID := seedRoom(t, "Склад №1")
	seedGroup(t, "SCANNER", "Сканеры")
	serials := seedUnits(t, "SCANNER", roomID, 1)

	ctx := userCtx("U-100")
	receipt, err := env.borrow.CreateBorrowReceipt(ctx, dto.CreateBorrowReceiptDTO{
		RoomID: roomID,
		Lines:  []dto.BorrowLineDTO{{GroupCode: "SCANNER", Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = env.receipts.Approve(userCtx("U-200"), receipt.ID)
	require.NoError(t, err)

	// Первый скан одновременно последний: approved -> borrowed без processing
	receipt, err = env.borrow.ScanIn(ctx, receipt.ID, serials[0])
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusBorrowed, receipt.Status)
	assert.Equal(t, constants.UnitStatusInUse, unitStatus(t, serials[0]))
}

func TestBorrowService_Integration_ScanInGuards(t *testing.T) {
	cleanupTables(t, testPool)
	env := newTestEnv(t)

	roomID := seedRoom(t, "Склад №1")
	seedGroup(t, "LAPTOP", "Ноутбуки")
	seedGroup(t, "MONITOR", "Мониторы")
	laptops := seedUnits(t, "LAPTOP", roomID, 3)
	monitors := seedUnits(t, "MONITOR", roomID, 3)

	ctx := userCtx("U-100")
	receipt, err := env.borrow.CreateBorrowReceipt(ctx, dto.CreateBorrowReceiptDTO{
		RoomID: roomID,
		Lines: []dto.BorrowLineDTO{
			{GroupCode: "LAPTOP", Quantity: 2},
			{GroupCode: "MONITOR", Quantity: 2},
		},
	})
	require.NoError(t, err)

	// До утверждения сканирование запрещено
	_, err = env.borrow.ScanIn(ctx, receipt.ID, laptops[0])
	var stateErr *apperrors.StateError
	assert.ErrorAs(t, err, &stateErr)

	_, err = env.receipts.Approve(userCtx("U-200"), receipt.ID)
	require.NoError(t, err)

	// Неизвестный серийный номер
	_, err = env.borrow.ScanIn(ctx, receipt.ID, "NO-SUCH-SERIAL")
	var notFoundErr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)

	_, err = env.borrow.ScanIn(ctx, receipt.ID, laptops[0])
	require.NoError(t, err)
	_, err = env.borrow.ScanIn(ctx, receipt.ID, laptops[1])
	require.NoError(t, err)

	// Квота по группе LAPTOP исчерпана (2 из 2), третий ноутбук не пройдёт
	_, err = env.borrow.ScanIn(ctx, receipt.ID, laptops[2])
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err), "превышение квоты по группе — конфликт: %v", err)
	assert.Equal(t, constants.UnitStatusAvailable, unitStatus(t, laptops[2]),
		"откат транзакции не должен оставлять следов")

	// Повторный скан уже привязанной единицы — тоже конфликт
	_, err = env.borrow.ScanIn(ctx, receipt.ID, monitors[0])
	require.NoError(t, err)
	_, err = env.borrow.ScanIn(ctx, receipt.ID, monitors[0])
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	// Группа не из накладной
	seedGroup(t, "PRINTER", "Принтеры")
	printers := seedUnits(t, "PRINTER", roomID, 1)
	_, err = env.borrow.ScanIn(ctx, receipt.ID, printers[0])
	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestBorrowService_Integration_ScanOutKeepsProcessing(t *testing.T) {
	cleanupTables(t, testPool)
	env := newTestEnv(t)

	roomID := seedRoom(t, "Склад №1")
	seedGroup(t, "LAPTOP", "Ноутбуки")
	serials := seedUnits(t, "LAPTOP", roomID, 3)

	ctx := userCtx("U-100")
	receipt, err := env.borrow.CreateBorrowReceipt(ctx, dto.CreateBorrowReceiptDTO{
		RoomID: roomID,
		Lines:  []dto.BorrowLineDTO{{GroupCode: "LAPTOP", Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = env.receipts.Approve(userCtx("U-200"), receipt.ID)
	require.NoError(t, err)

	_, err = env.borrow.ScanIn(ctx, receipt.ID, serials[0])
	require.NoError(t, err)

	// Снятие последней привязки не возвращает накладную в approved
	receipt, err = env.borrow.ScanOut(ctx, receipt.ID, serials[0])
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusProcessing, receipt.Status)
	assert.Equal(t, constants.UnitStatusAvailable, unitStatus(t, serials[0]))
	assert.Equal(t, 0, allocationCount(t, receipt.ID))

	// Снять непривязанную единицу нельзя
	_, err = env.borrow.ScanOut(ctx, receipt.ID, serials[0])
	var notFoundErr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)

	// Пересканирование после снятия работает
	receipt, err = env.borrow.ScanIn(ctx, receipt.ID, serials[1])
	require.NoError(t, err)
	assert.Equal(t, constants.ReceiptStatusProcessing, receipt.Status)
}

// Два пользователя одновременно сканируют одну и ту же единицу в разные
// накладные: выигрывает ровно один.
func TestBorrowService_Integration_ConcurrentScanSameSerial(t *testing.T) {
	cleanupTables(t, testPool)
	env := newTestEnv(t)

	roomID := seedRoom(t, "Склад №1")
	seedGroup(t, "LAPTOP", "Ноутбуки")
	serials := seedUnits(t, "LAPTOP", roomID, 2)

	ctx := userCtx("U-100")
	receiptIDs := make([]int64, 2)
	for i := range receiptIDs {
		receipt, err := env.borrow.CreateBorrowReceipt(ctx, dto.CreateBorrowReceiptDTO{
			RoomID: roomID,
			Lines:  []dto.BorrowLineDTO{{GroupCode: "LAPTOP", Quantity: 1}},
		})
		require.NoError(t, err)
		_, err = env.receipts.Approve(userCtx("U-200"), receipt.ID)
		require.NoError(t, err)
		receiptIDs[i] = receipt.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.borrow.ScanIn(ctx, receiptIDs[i], serials[0])
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.True(t, apperrors.IsConflict(err), "проигравший получает конфликт: %v", err)
		}
	}
	assert.Equal(t, 1, failures, "ровно один скан должен проиграть гонку")
	assert.Equal(t, constants.UnitStatusInUse, unitStatus(t, serials[0]),
		"накладная из одной позиции сразу выдаётся")
}
