package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// EquipmentUnit — одна физическая единица оборудования с серийным номером.
// Создаётся при оприходовании импортной накладной, никогда не удаляется,
// только меняет статус (liquidation — терминальный).
type EquipmentUnit struct {
	ID          int64     `json:"id"`
	Serial      string    `json:"serial"`
	GroupCode   string    `json:"group_code"`
	Status      string    `json:"status"`
	RoomID      null.Int64 `json:"room_id"`
	FirstUsedAt null.Time `json:"first_used_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Активная привязка, если единица сейчас закреплена за накладной.
	Allocation *AllocationRecord `json:"allocation,omitempty"`
}
