package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"assetgraph/src/domain"
	"assetgraph/src/infra/kafka"
)

const sourceService = "asset-graph-api"

type LinkEventPublisher struct {
	logger      *slog.Logger
	kafkaClient *kafka.KafkaClient
	topic       string
}

func NewLinkEventPublisher(
	logger *slog.Logger,
	kafkaClient *kafka.KafkaClient,
	topic string,
) *LinkEventPublisher {
	return &LinkEventPublisher{
		logger:      logger,
		kafkaClient: kafkaClient,
		topic:       topic,
	}
}

// PublishLinkEvent publishes one asset link event keyed by link id, so all events
// of the same link land on the same partition in order.
func (p *LinkEventPublisher) PublishLinkEvent(ctx context.Context, event domain.LinkEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("LinkEventPublisher.PublishLinkEvent - failed to marshal event %s: %w", event.EventID, err)
	}

	message := kafka.Message{
		Key:     event.Link.ID,
		Value:   eventBytes,
		Headers: p.createEventHeaders(event),
	}

	if err := p.kafkaClient.Producer([]kafka.Message{message}, p.topic); err != nil {
		p.logger.Error("Failed to publish link event to Kafka",
			"error", err,
			"topic", p.topic,
			"event_id", event.EventID)
		return fmt.Errorf("failed to publish link event to topic %s: %w", p.topic, err)
	}

	p.logger.Debug("Published link event",
		"topic", p.topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"link_id", event.Link.ID)

	return nil
}

// createEventHeaders lets consumers filter without decoding the payload
func (p *LinkEventPublisher) createEventHeaders(event domain.LinkEvent) map[string]string {
	headers := map[string]string{
		"event_type":        event.EventType,
		"event_id":          event.EventID,
		"source_service":    sourceService,
		"schema_version":    "v1",
		"relationship_type": string(event.Link.RelationshipType),
		"database_id":       event.Link.From.DatabaseID,
	}

	if event.Link.AliasID != "" {
		headers["alias_id"] = event.Link.AliasID
	}

	return headers
}
