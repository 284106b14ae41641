package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/pkg/vectorstore"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains purge messages and deletes the tenant's chunks from
// the index with a linear metadata scan. Session deletion already succeeded
// by the time a message lands here, so failures are logged and retried via
// Nack rather than surfaced to any caller.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	store      vectorstore.Store
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	store vectorstore.Store,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		store:      store,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PurgeTenantMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "failed to unmarshal purge message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	deleted, err := vectorstore.DeleteWhere(ctx, cs.store, func(m vectorstore.ChunkMetadata) bool {
		return m.TenantID == payload.TenantID
	})
	if err != nil {
		cs.logger.Error("consumer", "tenant purge failed", map[string]interface{}{
			"tenant": payload.TenantID,
			"error":  err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}

	cs.logger.Info("consumer", "tenant chunks purged", map[string]interface{}{
		"tenant":  payload.TenantID,
		"deleted": deleted,
	})
	msg.Ack()
}
