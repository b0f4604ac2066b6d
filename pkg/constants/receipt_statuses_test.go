package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_Borrow(t *testing.T) {
	assert.True(t, CanTransition(ReceiptTypeBorrow, ReceiptStatusRequested, ReceiptStatusApproved))
	assert.True(t, CanTransition(ReceiptTypeBorrow, ReceiptStatusRequested, ReceiptStatusRejected))
	assert.True(t, CanTransition(ReceiptTypeBorrow, ReceiptStatusApproved, ReceiptStatusProcessing))
	assert.True(t, CanTransition(ReceiptTypeBorrow, ReceiptStatusApproved, ReceiptStatusBorrowed),
		"накладная из одной единицы переходит в borrowed первым же сканом")
	assert.True(t, CanTransition(ReceiptTypeBorrow, ReceiptStatusProcessing, ReceiptStatusBorrowed))
	assert.True(t, CanTransition(ReceiptTypeBorrow, ReceiptStatusBorrowed, ReceiptStatusReturned))

	// Движение только вперёд
	assert.False(t, CanTransition(ReceiptTypeBorrow, ReceiptStatusBorrowed, ReceiptStatusProcessing))
	assert.False(t, CanTransition(ReceiptTypeBorrow, ReceiptStatusReturned, ReceiptStatusBorrowed))
	assert.False(t, CanTransition(ReceiptTypeBorrow, ReceiptStatusProcessing, ReceiptStatusRejected),
		"отклонить можно только из начального статуса")
	assert.False(t, CanTransition(ReceiptTypeBorrow, ReceiptStatusRequested, ReceiptStatusBorrowed),
		"нельзя выдать без утверждения")
}

func TestCanTransition_UnitReceipts(t *testing.T) {
	for _, rt := range []string{ReceiptTypeTransfer, ReceiptTypeLiquidation, ReceiptTypeImport} {
		assert.True(t, CanTransition(rt, ReceiptStatusRequested, ReceiptStatusApproved), rt)
		assert.True(t, CanTransition(rt, ReceiptStatusRequested, ReceiptStatusRejected), rt)
		assert.False(t, CanTransition(rt, ReceiptStatusApproved, ReceiptStatusProcessing),
			"этап processing есть только у выдачи: %s", rt)
	}

	assert.True(t, CanTransition(ReceiptTypeTransfer, ReceiptStatusApproved, ReceiptStatusTransferred))
	assert.True(t, CanTransition(ReceiptTypeLiquidation, ReceiptStatusApproved, ReceiptStatusLiquidated))
	assert.True(t, CanTransition(ReceiptTypeImport, ReceiptStatusApproved, ReceiptStatusReceived))

	// Чужие терминальные статусы недоступны
	assert.False(t, CanTransition(ReceiptTypeTransfer, ReceiptStatusApproved, ReceiptStatusLiquidated))
	assert.False(t, CanTransition(ReceiptTypeImport, ReceiptStatusApproved, ReceiptStatusTransferred))
}

func TestCanTransition_UnknownType(t *testing.T) {
	assert.False(t, CanTransition("unknown", ReceiptStatusRequested, ReceiptStatusApproved))
}

func TestFinalStatusesAreDeadEnds(t *testing.T) {
	all := []string{
		ReceiptStatusRequested, ReceiptStatusApproved, ReceiptStatusProcessing,
		ReceiptStatusBorrowed, ReceiptStatusReturned, ReceiptStatusTransferred,
		ReceiptStatusLiquidated, ReceiptStatusReceived, ReceiptStatusRejected,
	}
	for _, final := range FinalReceiptStatuses {
		assert.True(t, IsFinalReceiptStatus(final))
		for _, rt := range AllReceiptTypes {
			for _, to := range all {
				assert.False(t, CanTransition(rt, final, to),
					"из финального статуса %s (%s) не должно быть переходов", final, rt)
			}
		}
	}
}

func TestUnitHoldStatusFor(t *testing.T) {
	assert.Equal(t, UnitStatusPendingTransfer, UnitHoldStatusFor(ReceiptTypeTransfer))
	assert.Equal(t, UnitStatusLiquidation, UnitHoldStatusFor(ReceiptTypeLiquidation))
	assert.Equal(t, UnitStatusReserved, UnitHoldStatusFor(ReceiptTypeBorrow))
}

func TestIsValidUnitStatus(t *testing.T) {
	assert.True(t, IsValidUnitStatus(UnitStatusAvailable))
	assert.True(t, IsValidUnitStatus(UnitStatusPendingTransfer))
	assert.False(t, IsValidUnitStatus("broken"))
	assert.False(t, IsValidUnitStatus(""))
}
