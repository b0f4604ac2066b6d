package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"equipment-system/internal/events"
	"equipment-system/pkg/eventbus"
)

// NotificationListener — получатель уведомлений о переходах накладных.
// Сейчас уведомления уходят в лог; внешний канал доставки подключается
// к этой же точке.
type NotificationListener struct {
	logger *zap.Logger
}

func NewNotificationListener(logger *zap.Logger) *NotificationListener {
	return &NotificationListener{logger: logger}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.ReceiptStatusChangedEvent{}.Name(), l.HandleReceiptStatusChanged)
}

func (l *NotificationListener) HandleReceiptStatusChanged(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.ReceiptStatusChangedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}

	l.logger.Info("Статус накладной изменён",
		zap.Int64("receiptId", e.ReceiptID),
		zap.String("type", e.ReceiptType),
		zap.String("oldStatus", e.OldStatus),
		zap.String("newStatus", e.NewStatus),
	)

	return nil
}
