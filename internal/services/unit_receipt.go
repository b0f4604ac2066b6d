package services

import (
	"context"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"

	"equipment-system/internal/dto"
	"equipment-system/internal/entities"
	"equipment-system/internal/repositories"
	"equipment-system/pkg/constants"
)

// createUnitReceiptInTx — общая часть создания серийных накладных (transfer,
// liquidation): накладная с позициями по конкретным серийным номерам, и сразу
// же привязка каждой единицы (аналог scanIn при создании). Любой занятый или
// отсутствующий серийный номер откатывает всё.
func createUnitReceiptInTx(
	ctx context.Context,
	tx pgx.Tx,
	receiptRepo repositories.ReceiptRepositoryInterface,
	unitRepo repositories.EquipmentUnitRepositoryInterface,
	allocRepo repositories.AllocationRepositoryInterface,
	receiptType string,
	requesterCode string,
	payload dto.CreateUnitReceiptDTO,
) (int64, error) {
	receipt := entities.Receipt{
		Type:          receiptType,
		Status:        constants.ReceiptStatusRequested,
		RequesterCode: requesterCode,
		Note:          payload.Note,
	}
	if payload.RoomID > 0 {
		receipt.RoomID = null.Int64From(payload.RoomID)
	}

	lines := make([]entities.ReceiptLine, 0, len(payload.Serials))
	for _, serial := range payload.Serials {
		lines = append(lines, entities.ReceiptLine{
			Serial: null.StringFrom(serial),
		})
	}

	receiptID, err := receiptRepo.CreateInTx(ctx, tx, receipt, lines)
	if err != nil {
		return 0, err
	}

	holdStatus := constants.UnitHoldStatusFor(receiptType)
	for _, serial := range payload.Serials {
		if _, err := unitRepo.FindBySerialInTx(ctx, tx, serial); err != nil {
			return 0, err
		}
		if _, err := allocRepo.InsertInTx(ctx, tx, receiptID, serial); err != nil {
			return 0, err
		}
		if err := unitRepo.TransitionStatusInTx(ctx, tx, serial,
			constants.UnitStatusAvailable, holdStatus); err != nil {
			return 0, err
		}
	}

	return receiptID, nil
}
