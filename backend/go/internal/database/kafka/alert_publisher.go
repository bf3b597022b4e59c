package kafka

import (
	"Augur_1.0/backend/go/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// AlertPublisher 封装了向 Kafka 发送股票提醒事件的逻辑。
type AlertPublisher struct {
	writer *kafka.Writer
}

// NewAlertPublisher 创建一个新的 AlertPublisher 实例。
func NewAlertPublisher(client *KafkaClient) *AlertPublisher {
	// 为提醒主题创建一个新的 writer 实例配置
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      client.Config.Brokers,
		Topic:        client.Config.AlertTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	})
	return &AlertPublisher{writer: writer}
}

// Publish 将 Alert 序列化为 JSON 并发送到 Kafka。
func (p *AlertPublisher) Publish(ctx context.Context, alert *models.Alert) error {
	jsonData, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alert.Key()),
		Value: jsonData,
	})

	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close 关闭底层的 writer 连接。
func (p *AlertPublisher) Close() error {
	return p.writer.Close()
}
