package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"

	"github.com/explora/recsys/internal/config"
	"github.com/explora/recsys/pkg/models"
)

const (
	interactionsDLQSuffix = "-dlq"
	consumerGroup         = "interaction-recorders"
)

// interactionEventSchema validates tracker payloads before they reach the
// interaction store. Bad events go to the DLQ instead of poisoning the
// training data.
const interactionEventSchema = `{
	"type": "object",
	"required": ["user_id", "item_id", "interaction_type"],
	"properties": {
		"user_id": {"type": "string", "minLength": 1},
		"item_id": {"type": "string", "minLength": 1},
		"interaction_type": {
			"type": "string",
			"enum": ["view", "click", "wishlist", "booking", "rating", "completed"]
		},
		"rating": {"type": "number", "minimum": 1, "maximum": 5},
		"timestamp": {"type": "string", "format": "date-time"}
	}
}`

// InteractionRecorder is the sink for validated events; the interaction
// service satisfies it.
type InteractionRecorder interface {
	Record(ctx context.Context, req models.InteractionRequest) (*models.Interaction, error)
}

// InteractionConsumer tails the interaction topic written by the client
// trackers and appends each valid event to the interaction store.
type InteractionConsumer struct {
	reader    *kafka.Reader
	dlqWriter *kafka.Writer
	schema    *gojsonschema.Schema
	recorder  InteractionRecorder
	logger    *logrus.Logger
}

func NewInteractionConsumer(cfg *config.Config, recorder InteractionRecorder, logger *logrus.Logger) (*InteractionConsumer, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(interactionEventSchema))
	if err != nil {
		return nil, fmt.Errorf("compile interaction event schema: %w", err)
	}

	topic := cfg.Kafka.Topics.UserInteractions
	return &InteractionConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          topic,
			GroupID:        consumerGroup,
			MinBytes:       10e3,
			MaxBytes:       10e6,
			CommitInterval: time.Second,
			StartOffset:    kafka.LastOffset,
		}),
		dlqWriter: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        topic + interactionsDLQSuffix,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		schema:   schema,
		recorder: recorder,
		logger:   logger,
	}, nil
}

// Run consumes until the context is cancelled.
func (c *InteractionConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read interaction event: %w", err)
		}
		c.handle(ctx, msg)
	}
}

func (c *InteractionConsumer) handle(ctx context.Context, msg kafka.Message) {
	req, err := c.decode(msg.Value)
	if err != nil {
		c.logger.WithError(err).WithField("offset", msg.Offset).Warn("Invalid interaction event; sending to DLQ")
		c.sendToDLQ(ctx, msg)
		return
	}

	if _, err := c.recorder.Record(ctx, *req); err != nil {
		c.logger.WithError(err).Warn("Failed to record interaction event")
		c.sendToDLQ(ctx, msg)
	}
}

// decode schema-validates one event payload and maps it to the write
// request the interaction service accepts.
func (c *InteractionConsumer) decode(value []byte) (*models.InteractionRequest, error) {
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(value))
	if err != nil {
		return nil, fmt.Errorf("validate interaction event: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("interaction event rejected by schema: %v", result.Errors())
	}

	var event models.InteractionEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return nil, fmt.Errorf("decode interaction event: %w", err)
	}

	return &models.InteractionRequest{
		UserID:          event.UserID,
		ItemID:          event.ItemID,
		InteractionType: event.InteractionType,
		Rating:          event.Rating,
	}, nil
}

func (c *InteractionConsumer) sendToDLQ(ctx context.Context, msg kafka.Message) {
	err := c.dlqWriter.WriteMessages(ctx, kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers, kafka.Header{
			Key:   "dlq-timestamp",
			Value: []byte(time.Now().UTC().Format(time.RFC3339)),
		}),
	})
	if err != nil {
		c.logger.WithError(err).Error("Failed to write interaction event to DLQ")
	}
}

func (c *InteractionConsumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return err
	}
	return c.dlqWriter.Close()
}
