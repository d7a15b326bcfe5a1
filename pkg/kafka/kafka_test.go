package kafka

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brokers(t *testing.T) []string {
	t.Helper()
	v := os.Getenv("KAFKA_TEST_BROKERS")
	if v == "" {
		t.Skip("KAFKA_TEST_BROKERS is required for tests")
	}
	return strings.Split(v, ",")
}

func TestProducerConsumer_RoundTrip(t *testing.T) {
	b := brokers(t)
	topic := "test_" + uuid.NewString()

	conn, err := kafka.Dial("tcp", b[0])
	require.NoError(t, err)
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
	_ = conn.Close()

	p := NewProducer(b, topic)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, p.PublishJSON(ctx, "order-1", map[string]string{"kind": "order_paid"}))

	c := NewConsumer(b, "test_"+uuid.NewString(), topic)
	got := make(chan map[string]string, 1)
	attempts := 0
	go func() {
		_ = c.Run(ctx, func(_ context.Context, m kafka.Message) error {
			attempts++
			if attempts == 1 {
				return assert.AnError
			}
			var v map[string]string
			if err := json.Unmarshal(m.Value, &v); err != nil {
				return err
			}
			got <- v
			cancel()
			return nil
		})
	}()

	select {
	case v := <-got:
		assert.Equal(t, "order_paid", v["kind"])
		assert.Equal(t, 2, attempts)
	case <-ctx.Done():
		t.Fatal("message was not consumed")
	}
}
