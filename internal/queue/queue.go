// Package queue implements the ingestion work queue on Postgres with
// at-least-once delivery: items are claimed with SKIP LOCKED, acked on
// success, nacked back to pending on failure, and reclaimed after a
// visibility timeout if a worker dies mid-item.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrEmpty is returned by Dequeue when no pending item is available.
var ErrEmpty = errors.New("queue is empty")

const (
	// MaxRetries is the maximum number of delivery attempts before an item
	// is parked as failed.
	MaxRetries = 3

	// DefaultVisibilityTimeout bounds how long a claimed item may sit in
	// processing before it becomes eligible for reclaim.
	DefaultVisibilityTimeout = 10 * time.Minute
)

// ItemStatus is the delivery state of a queue item.
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusProcessing ItemStatus = "processing"
	StatusDone       ItemStatus = "done"
	StatusFailed     ItemStatus = "failed"
)

// Item is one unit of ingestion work: a single document.
type Item struct {
	ID          string
	Filename    string
	Status      ItemStatus
	Retries     int
	Error       string
	EnqueuedAt  time.Time
	ClaimedAt   *time.Time
	ProcessedAt *time.Time
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queue is the Postgres-backed work queue.
type Queue struct {
	db dbtx
}

func New(pool *pgxpool.Pool) *Queue {
	return &Queue{db: pool}
}

func NewWithTx(tx dbtx) *Queue {
	return &Queue{db: tx}
}

// Enqueue adds a work item for the document.
func (q *Queue) Enqueue(ctx context.Context, filename string) (*Item, error) {
	item := &Item{
		ID:         uuid.NewString(),
		Filename:   filename,
		Status:     StatusPending,
		EnqueuedAt: time.Now().UTC(),
	}
	_, err := q.db.Exec(ctx,
		`INSERT INTO ingest_queue (id, filename, status, retries, error, enqueued_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		item.ID, item.Filename, item.Status, item.Retries, item.Error, item.EnqueuedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Dequeue claims the oldest pending item. The SKIP LOCKED claim guarantees
// a given item is processed by exactly one worker at a time, which also
// makes each document single-writer while its item is in flight.
func (q *Queue) Dequeue(ctx context.Context) (*Item, error) {
	var item Item
	err := q.db.QueryRow(ctx,
		`UPDATE ingest_queue
		 SET status = $1, claimed_at = now()
		 WHERE id = (
			SELECT id FROM ingest_queue
			WHERE status = $2
			ORDER BY enqueued_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, filename, status, retries, error, enqueued_at, claimed_at, processed_at`,
		StatusProcessing, StatusPending,
	).Scan(&item.ID, &item.Filename, &item.Status, &item.Retries, &item.Error,
		&item.EnqueuedAt, &item.ClaimedAt, &item.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	return &item, nil
}

// Ack marks a claimed item as done.
func (q *Queue) Ack(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx,
		`UPDATE ingest_queue
		 SET status = $1, processed_at = now()
		 WHERE id = $2`,
		StatusDone, id,
	)
	return err
}

// Nack returns a claimed item to pending for redelivery, recording the
// failure. Once the retry cap is reached the item is parked as failed.
func (q *Queue) Nack(ctx context.Context, id string, itemErr error) error {
	errMsg := ""
	if itemErr != nil {
		errMsg = itemErr.Error()
	}
	_, err := q.db.Exec(ctx,
		`UPDATE ingest_queue
		 SET retries = retries + 1,
		     error = $1,
		     status = CASE WHEN retries + 1 >= $2 THEN $3::text ELSE $4::text END,
		     processed_at = CASE WHEN retries + 1 >= $2 THEN now() ELSE NULL END
		 WHERE id = $5`,
		errMsg, MaxRetries, StatusFailed, StatusPending, id,
	)
	return err
}

// ReclaimStale returns items stuck in processing longer than the visibility
// timeout to pending, so a crashed worker's items are redelivered.
func (q *Queue) ReclaimStale(ctx context.Context, visibility time.Duration) (int, error) {
	if visibility <= 0 {
		visibility = DefaultVisibilityTimeout
	}
	tag, err := q.db.Exec(ctx,
		`UPDATE ingest_queue
		 SET status = $1, claimed_at = NULL
		 WHERE status = $2 AND claimed_at < now() - ($3 * interval '1 second')`,
		StatusPending, StatusProcessing, visibility.Seconds(),
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// PendingCount returns the number of items awaiting delivery.
func (q *Queue) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM ingest_queue WHERE status = $1`, StatusPending,
	).Scan(&n)
	return n, err
}
