package outbox

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"billing/internal/domain"
	kafka_infra "billing/internal/infrastructure/kafka"
	"billing/internal/repository/outbox_repo"
)

const pollBatchSize = 10

// Processor публикует накопленные outbox-сообщения в Kafka. Сообщение
// помечается SENT только после подтверждённой записи.
type Processor struct {
	db           *sql.DB
	outboxRepo   outbox_repo.OutboxRepository
	producer     kafka_infra.Producer
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *zap.Logger
}

func NewProcessor(
	db *sql.DB,
	outboxRepo outbox_repo.OutboxRepository,
	producer kafka_infra.Producer,
	pollInterval time.Duration,
	pollTimeout time.Duration,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		db:           db,
		outboxRepo:   outboxRepo,
		producer:     producer,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		logger:       logger,
	}
}

func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("Starting outbox processor...")
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox processor stopping...")
			return
		case <-ticker.C:
			p.processOutboxMessages(ctx)
		}
	}
}

func (p *Processor) processOutboxMessages(ctx context.Context) {
	queryCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	defer cancel()

	messages, err := p.outboxRepo.GetPendingMessages(queryCtx, p.db, pollBatchSize)
	if err != nil {
		p.logger.Error("Failed to get pending outbox messages", zap.Error(err))
		return
	}
	if len(messages) == 0 {
		return
	}

	p.logger.Info("Found pending outbox messages", zap.Int("count", len(messages)))

	for _, msg := range messages {
		if err := p.producer.Produce(ctx, msg.Topic, msg.Key, msg.Payload); err != nil {
			p.logger.Error("Failed to send outbox message to Kafka",
				zap.String("message_id", msg.ID),
				zap.String("topic", msg.Topic),
				zap.Error(err))
			if err := p.outboxRepo.UpdateMessageStatusTx(ctx, p.db, msg.ID, domain.OutboxStatusFailed); err != nil {
				p.logger.Error("Failed to mark outbox message as FAILED", zap.String("message_id", msg.ID), zap.Error(err))
			}
			continue
		}

		if err := p.outboxRepo.UpdateMessageStatusTx(ctx, p.db, msg.ID, domain.OutboxStatusSent); err != nil {
			p.logger.Error("Failed to mark outbox message as SENT", zap.String("message_id", msg.ID), zap.Error(err))
			continue
		}
		p.logger.Debug("Outbox message published", zap.String("message_id", msg.ID), zap.String("topic", msg.Topic))
	}
}
