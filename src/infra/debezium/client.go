package debezium

import (
	"context"
	"fmt"
	"log/slog"

	"assetgraph/src/infra/kafka"
)

// CDCBatchEventHandler is the function signature for handling batches of CDC events
type CDCBatchEventHandler func(ctx context.Context, events []*CDCEvent) error

// CDCClient consumes Debezium change events from a Kafka topic
type CDCClient struct {
	logger      *slog.Logger
	kafkaClient *kafka.KafkaClient
	serializer  *CDCSerializer
	topic       string
}

func NewCDCClient(logger *slog.Logger, topic string, kafkaClient *kafka.KafkaClient, serializer *CDCSerializer) *CDCClient {
	return &CDCClient{
		logger:      logger,
		kafkaClient: kafkaClient,
		serializer:  serializer,
		topic:       topic,
	}
}

// ConsumeCDCEventsBatch starts consuming CDC events and calls handler for batches of valid events
func (c *CDCClient) ConsumeCDCEventsBatch(ctx context.Context, handler CDCBatchEventHandler) error {
	c.logger.Info("Starting CDC batch event consumption", "topic", c.topic)

	kafkaHandler := func(messages []kafka.Message) error {
		return c.ProcessMessages(ctx, messages, handler)
	}

	return c.kafkaClient.Consumer(ctx, kafkaHandler, c.topic)
}

// ProcessMessages parses a batch of Kafka messages and calls handler once with the valid events.
func (c *CDCClient) ProcessMessages(ctx context.Context, messages []kafka.Message, handler CDCBatchEventHandler) error {
	if len(messages) == 0 {
		return nil
	}

	var validEvents []*CDCEvent
	skippedCount := 0
	errorCount := 0

	for _, msg := range messages {
		cdcEvent, err := c.serializer.ParseCDCEvent(msg.Value)
		if err != nil {
			c.logger.Error("Failed to parse CDC message",
				"error", err,
				"key", msg.Key,
				"value_length", len(msg.Value))
			errorCount++
			continue
		}

		if cdcEvent == nil || !c.serializer.ShouldProcessEvent(cdcEvent) {
			skippedCount++
			continue
		}

		validEvents = append(validEvents, cdcEvent)
	}

	if len(validEvents) > 0 {
		if err := handler(ctx, validEvents); err != nil {
			return fmt.Errorf("CDCClient.ProcessMessages - failed to handle CDC events batch: %w", err)
		}
	}

	c.logger.Info("Completed CDC messages batch processing",
		"total", len(messages),
		"processed", len(validEvents),
		"skipped", skippedCount,
		"errors", errorCount)

	return nil
}

func (c *CDCClient) Close() error {
	c.logger.Info("Closing CDC client")
	return c.kafkaClient.Close()
}
