package messaging

import (
	"context"
	"encoding/json"
	"time"

	"storefront/internal/usecase"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// 書き込み先。*kafka.Writer が満たす
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// 注文イベントをkafkaへ送る。キーは注文ID
type KafkaOrderPublisher struct {
	writer MessageWriter
}

// 1件ずつ同期で送るので、バッチ待ちは短くする
const writerBatchTimeout = 10 * time.Millisecond

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           writerBatchTimeout,
	}
}

// DI
func NewKafkaOrderPublisher(writer MessageWriter) *KafkaOrderPublisher {
	return &KafkaOrderPublisher{writer: writer}
}

func (p *KafkaOrderPublisher) Publish(ctx context.Context, ev usecase.OrderEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal order event")
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	})
	return errors.Wrap(err, "kafka write order event")
}

// kafka無効時
type NopOrderPublisher struct{}

func (NopOrderPublisher) Publish(context.Context, usecase.OrderEvent) error { return nil }
