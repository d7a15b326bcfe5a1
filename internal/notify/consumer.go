package notify

import (
	"context"
	"encoding/json"

	segkafka "github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/shop_payments/pkg/kafka"
	"github.com/Skotchmaster/shop_payments/pkg/logging"
	"github.com/Skotchmaster/shop_payments/pkg/metrics"
)

// Deliver decodes messages published by KafkaSender and hands them to sender.
// Undecodable or unaddressed records are logged and skipped so they cannot
// block the partition; send failures are returned and retried.
func Deliver(sender Sender, m *metrics.ServerMetrics) kafka.Handler {
	return func(ctx context.Context, rec segkafka.Message) error {
		log := logging.FromContext(ctx).With("svc", "notify.consumer", "offset", rec.Offset)

		var msg Message
		if err := json.Unmarshal(rec.Value, &msg); err != nil {
			m.NotificationOutcome("unknown", "skipped")
			log.Error("notification_skipped", "reason", "invalid payload", "error", err)
			return nil
		}
		if msg.To == "" {
			m.NotificationOutcome(string(msg.Kind), "skipped")
			log.Warn("notification_skipped", "kind", msg.Kind, "order_id", msg.OrderID, "reason", "no recipient")
			return nil
		}

		if err := sender.Send(ctx, msg); err != nil {
			m.NotificationOutcome(string(msg.Kind), "failed")
			return err
		}
		m.NotificationOutcome(string(msg.Kind), "sent")
		log.Info("notification_delivered", "kind", msg.Kind, "order_id", msg.OrderID)
		return nil
	}
}
