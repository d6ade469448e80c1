// Package worker consumes record sync messages and mirrors the
// referenced records into the spreadsheet backup.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"plata/internal/amqp"
	"plata/internal/core"
	"plata/internal/export"
	"plata/internal/storage"
)

// RecordStore is the slice of the repository the worker needs.
type RecordStore interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	GetPurchase(ctx context.Context, id int64) (core.BitcoinPurchase, error)
}

type ExportWorker struct {
	store  RecordStore
	writer export.RecordWriter
}

func NewExportWorker(store RecordStore, writer export.RecordWriter) *ExportWorker {
	return &ExportWorker{store: store, writer: writer}
}

// Handle processes one sync message: fetch the record and append it to
// the sheet. A record deleted since the message was published is not an
// error, there is simply nothing left to export.
func (w *ExportWorker) Handle(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	switch msg.Kind {
	case amqp.KindTransaction:
		t, err := w.store.GetTransaction(ctx, msg.ID)
		if errors.Is(err, storage.ErrNotFound) {
			slog.InfoContext(ctx, "Transaction gone before export, skipping", "id", msg.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get transaction %d: %w", msg.ID, err)
		}
		return w.writer.AppendTransaction(ctx, t)

	case amqp.KindPurchase:
		p, err := w.store.GetPurchase(ctx, msg.ID)
		if errors.Is(err, storage.ErrNotFound) {
			slog.InfoContext(ctx, "Purchase gone before export, skipping", "id", msg.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get purchase %d: %w", msg.ID, err)
		}
		return w.writer.AppendPurchase(ctx, p)

	default:
		return fmt.Errorf("unknown record kind %q", msg.Kind)
	}
}
