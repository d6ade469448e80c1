// Package services orchestrates store writes with the export pipeline.
// Publishing is best effort: a failed sync message never fails the
// request, the record is already durable in SQLite.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"plata/internal/amqp"
	"plata/internal/core"
)

// TransactionStore is the slice of the repository the service needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// SyncPublisher publishes record change notifications. Nil disables
// publishing entirely.
type SyncPublisher interface {
	PublishRecordSync(ctx context.Context, kind amqp.RecordKind, id int64) error
}

type TransactionService struct {
	store     TransactionStore
	publisher SyncPublisher
}

func NewTransactionService(store TransactionStore, publisher SyncPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, created.ID)
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, id, t)
	if err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, id)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, id)
	return nil
}

func (s *TransactionService) publish(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordSync(ctx, amqp.KindTransaction, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction sync message",
			"id", id, "error", err)
	}
}
