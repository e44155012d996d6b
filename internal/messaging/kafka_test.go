package messaging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explora/recsys/internal/config"
)

func testConsumer(t *testing.T) *InteractionConsumer {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg := &config.Config{}
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.Topics.UserInteractions = "user-interactions"

	consumer, err := NewInteractionConsumer(cfg, nil, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func TestDecode_ValidEvents(t *testing.T) {
	consumer := testConsumer(t)

	tests := []struct {
		name    string
		payload string
	}{
		{
			name:    "view without rating",
			payload: `{"user_id": "u1", "item_id": "i1", "interaction_type": "view"}`,
		},
		{
			name:    "rating with value",
			payload: `{"user_id": "u1", "item_id": "i1", "interaction_type": "rating", "rating": 4.5}`,
		},
		{
			name:    "timestamp carried",
			payload: `{"user_id": "u1", "item_id": "i1", "interaction_type": "booking", "timestamp": "2026-03-01T10:00:00Z"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := consumer.decode([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, "u1", req.UserID)
			assert.Equal(t, "i1", req.ItemID)
		})
	}
}

func TestDecode_InvalidEventsRejected(t *testing.T) {
	consumer := testConsumer(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{{{`},
		{"missing user_id", `{"item_id": "i1", "interaction_type": "view"}`},
		{"empty item_id", `{"user_id": "u1", "item_id": "", "interaction_type": "view"}`},
		{"unknown interaction type", `{"user_id": "u1", "item_id": "i1", "interaction_type": "teleport"}`},
		{"rating above range", `{"user_id": "u1", "item_id": "i1", "interaction_type": "rating", "rating": 11}`},
		{"rating wrong type", `{"user_id": "u1", "item_id": "i1", "interaction_type": "rating", "rating": "five"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := consumer.decode([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestDecode_RatingMapped(t *testing.T) {
	consumer := testConsumer(t)

	req, err := consumer.decode([]byte(`{"user_id": "u1", "item_id": "i1", "interaction_type": "rating", "rating": 3}`))
	require.NoError(t, err)
	require.NotNil(t, req.Rating)
	assert.Equal(t, 3.0, *req.Rating)
}
