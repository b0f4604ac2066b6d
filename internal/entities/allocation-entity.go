package entities

import "time"

// AllocationRecord — привязка одной единицы оборудования к одной накладной.
// Наличие записи — единственный источник истины для "единица сейчас занята
// этой накладной"; уникальный индекс по serial гарантирует не более одной
// активной привязки на единицу.
type AllocationRecord struct {
	ID        int64     `json:"id"`
	ReceiptID int64     `json:"receipt_id"`
	Serial    string    `json:"serial"`
	CreatedAt time.Time `json:"created_at"`
}
