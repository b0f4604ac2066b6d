package events

// ReceiptStatusChangedEvent публикуется после коммита каждого перехода
// статуса накладной. Доставка — fire-and-forget: сбой получателя не
// откатывает транзакцию движка.
type ReceiptStatusChangedEvent struct {
	ReceiptID   int64
	ReceiptType string
	OldStatus   string
	NewStatus   string
}

func (e ReceiptStatusChangedEvent) Name() string {
	return "receipt.status.changed"
}
