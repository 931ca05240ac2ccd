package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/inletai/inlet/internal/queue"
)

// IngestQueue is the slice of the work queue the worker needs.
type IngestQueue interface {
	Dequeue(ctx context.Context) (*queue.Item, error)
	Ack(ctx context.Context, id string) error
	Nack(ctx context.Context, id string, itemErr error) error
	ReclaimStale(ctx context.Context, visibility time.Duration) (int, error)
}

// DocumentProcessor runs one document through the ingestion pipeline.
type DocumentProcessor interface {
	ProcessItem(ctx context.Context, filename string) error
}

// IngestWorker drains the work queue, one document at a time. Each item is
// processed to completion before the next dequeue; failed items are nacked
// back for redelivery.
type IngestWorker struct {
	queue      IngestQueue
	processor  DocumentProcessor
	visibility time.Duration
}

// NewIngestWorker creates a new IngestWorker instance
func NewIngestWorker(q IngestQueue, processor DocumentProcessor) *IngestWorker {
	return &IngestWorker{
		queue:      q,
		processor:  processor,
		visibility: queue.DefaultVisibilityTimeout,
	}
}

// ProcessJobs implements the JobProcessor interface. One polling tick
// reclaims stale claims, then drains every pending item.
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	reclaimed, err := w.queue.ReclaimStale(ctx, w.visibility)
	if err != nil {
		return fmt.Errorf("failed to reclaim stale items: %w", err)
	}
	if reclaimed > 0 {
		log.Printf("Reclaimed %d stale work items", reclaimed)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				return nil
			}
			return fmt.Errorf("failed to dequeue work item: %w", err)
		}

		if err := w.processItem(ctx, item); err != nil {
			log.Printf("Error processing item %s (%s): %v", item.ID, item.Filename, err)
		}
	}
}

func (w *IngestWorker) processItem(ctx context.Context, item *queue.Item) error {
	log.Printf("Processing item %s for document %s", item.ID, item.Filename)

	if err := w.processor.ProcessItem(ctx, item.Filename); err != nil {
		if nackErr := w.queue.Nack(ctx, item.ID, err); nackErr != nil {
			return fmt.Errorf("failed to nack item: %w", nackErr)
		}
		return err
	}

	if err := w.queue.Ack(ctx, item.ID); err != nil {
		return fmt.Errorf("failed to ack item: %w", err)
	}

	log.Printf("Item %s completed successfully", item.ID)
	return nil
}
