package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"sync"

	"github.com/Skotchmaster/shop_payments/pkg/kafka"
	"github.com/Skotchmaster/shop_payments/pkg/logging"
)

// KafkaSender publishes messages to the notification topic; cmd/notifier
// performs the actual delivery.
type KafkaSender struct {
	Producer *kafka.Producer
}

func (s *KafkaSender) Send(ctx context.Context, msg Message) error {
	return s.Producer.PublishJSON(ctx, strconv.FormatUint(uint64(msg.OrderID), 10), msg)
}

type MailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (s *MailSender) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail: empty recipient for order %d", msg.OrderID)
	}

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Password, s.Host)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")

	return smtp.SendMail(addr, auth, s.From, []string{msg.To}, []byte(b.String()))
}

// LogSender only logs; used when no mail server is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	logging.FromContext(ctx).Info("notification_logged", "kind", msg.Kind, "order_id", msg.OrderID, "to", msg.To, "subject", msg.Subject)
	return nil
}

// Memory keeps messages in process. It satisfies both Notifier and Sender.
type Memory struct {
	mu   sync.Mutex
	msgs []Message
}

func (m *Memory) Notify(_ context.Context, msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
}

func (m *Memory) Send(ctx context.Context, msg Message) error {
	m.Notify(ctx, msg)
	return nil
}

func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.msgs))
	copy(out, m.msgs)
	return out
}

// Count returns how many messages of kind were recorded.
func (m *Memory) Count(kind Kind) int {
	n := 0
	for _, msg := range m.Messages() {
		if msg.Kind == kind {
			n++
		}
	}
	return n
}
