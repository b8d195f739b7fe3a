package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const TopicUserEvents = "user_events"

const (
	TypeUserRegistered = "user_registered"
	TypeUserLoggedIn   = "user_logged_in"
	TypeUserUpdated    = "user_updated"
	TypeUserDeleted    = "user_deleted"
)

// Producer publishes account lifecycle events keyed by user id. A nil
// Producer is valid and drops everything, which keeps handler tests free
// of a broker.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireOne,
		},
	}
}

func (p *Producer) PublishUserEvent(ctx context.Context, eventType, userID, email string) error {
	if p == nil || p.writer == nil {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"type":    eventType,
		"user_id": userID,
		"email":   email,
		"at":      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: TopicUserEvents,
		Key:   []byte(userID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("kafka: write message: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
