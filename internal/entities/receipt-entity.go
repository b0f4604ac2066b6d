package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Receipt — документ-накладная (borrow / transfer / liquidation / import),
// управляющая машиной состояний.
type Receipt struct {
	ID            int64       `json:"id"`
	Type          string      `json:"type"`
	Status        string      `json:"status"`
	RequesterCode string      `json:"requester_code"`
	ApproverCode  null.String `json:"approver_code"`
	RoomID        null.Int64  `json:"room_id"`
	Note          string      `json:"note"`
	RejectReason  null.String `json:"reject_reason"`
	ApprovedAt    null.Time   `json:"approved_at"`
	FinalizedAt   null.Time   `json:"finalized_at"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	// Связанные данные (не колонки в таблице)
	Lines       []ReceiptLine      `json:"lines,omitempty"`
	Allocations []AllocationRecord `json:"allocations,omitempty"`
}

// ReceiptLine — позиция накладной: либо групповая (код группы + количество,
// borrow/import), либо серийная (конкретный серийный номер, transfer/liquidation).
type ReceiptLine struct {
	ID        int64       `json:"id"`
	ReceiptID int64       `json:"receipt_id"`
	GroupCode null.String `json:"group_code"`
	Quantity  null.Int    `json:"quantity"`
	Serial    null.String `json:"serial"`
}

func (l *ReceiptLine) IsGroupLine() bool {
	return l.GroupCode.Valid && l.Quantity.Valid
}
