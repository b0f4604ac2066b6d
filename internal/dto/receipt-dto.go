package dto

type BorrowLineDTO struct {
	GroupCode string `json:"group_code" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type CreateBorrowReceiptDTO struct {
	RoomID int64           `json:"room_id" validate:"required,gt=0"`
	Lines  []BorrowLineDTO `json:"lines" validate:"required,min=1,dive"`
	Note   string          `json:"note"`
}

// Для transfer и liquidation позиции задаются конкретными серийными номерами.
type CreateUnitReceiptDTO struct {
	RoomID  int64    `json:"room_id" validate:"omitempty,gt=0"`
	Serials []string `json:"serials" validate:"required,min=1,dive,required"`
	Note    string   `json:"note"`
}

type ImportLineDTO struct {
	GroupCode string   `json:"group_code" validate:"required"`
	Quantity  int      `json:"quantity" validate:"required,gt=0"`
	Serials   []string `json:"serials" validate:"omitempty,dive,required"`
}

type CreateImportReceiptDTO struct {
	RoomID int64           `json:"room_id" validate:"required,gt=0"`
	Lines  []ImportLineDTO `json:"lines" validate:"required,min=1,dive"`
	Note   string          `json:"note"`
}

type RejectReceiptDTO struct {
	Reason string `json:"reason" validate:"required"`
}

type ScanDTO struct {
	Serial string `json:"serial" validate:"required"`
}

type ReceiptFilterDTO struct {
	Type   string `query:"type"`
	Status string `query:"status"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}
