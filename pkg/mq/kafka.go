// Package mq 提供带熔断保护的 Kafka 生产者
package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"github.com/wyfcoding/webshop/pkg/logger"
)

// ErrBrokerUnavailable 熔断器打开期间直接返回，不访问 broker
var ErrBrokerUnavailable = errors.New("mq: broker unavailable")

// Publisher 消息发布接口
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
	Close() error
}

// KafkaConfig Kafka 生产者配置
type KafkaConfig struct {
	Brokers      []string
	MaxAttempts  int
	WriteTimeout time.Duration
	// 连续失败多少次后熔断
	BreakerFailures uint32
	// 熔断后多久进入半开状态
	BreakerTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer Kafka 生产者
type KafkaProducer struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker
}

// NewProducer 创建 Kafka 生产者，topic 由每条消息指定
func NewProducer(cfg KafkaConfig) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		Compression:            kafka.Snappy,
	}
	logger.Info(context.Background(), "kafka producer created", "brokers", cfg.Brokers)
	return newProducer(writer, cfg)
}

func newProducer(w messageWriter, cfg KafkaConfig) *KafkaProducer {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "kafka-producer",
		Timeout: timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &KafkaProducer{writer: w, breaker: cb}
}

// Publish 发送单条消息
func (kp *KafkaProducer) Publish(ctx context.Context, topic, key string, payload []byte) error {
	_, err := kp.breaker.Execute(func() (any, error) {
		return nil, kp.writer.WriteMessages(ctx, kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: payload,
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	if err != nil {
		logger.Error(ctx, "failed to send kafka message", "topic", topic, "key", key, "error", err)
		return err
	}
	logger.Debug(ctx, "kafka message sent", "topic", topic, "key", key)
	return nil
}

// State 熔断器当前状态
func (kp *KafkaProducer) State() gobreaker.State {
	return kp.breaker.State()
}

// Close 关闭生产者
func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}
