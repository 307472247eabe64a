// internal/documents/queue.go
package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"account-opening/internal/models"
)

const (
	verificationQueueKey      = "verification:queue"
	verificationDeadLetterKey = "verification:dead_letter"
)

// Task is one unit of asynchronous document verification work. Attempts
// counts completed provider calls, so a freshly enqueued task carries zero.
type Task struct {
	DocumentID    string              `json:"documentId"`
	ApplicationID string              `json:"applicationId"`
	StoragePath   string              `json:"storagePath"`
	DocumentType  models.DocumentType `json:"documentType"`
	Attempts      int                 `json:"attempts"`
}

// Queue is the redis-backed verification task queue. Producers LPUSH,
// workers BRPOP, so tasks are processed in FIFO order.
type Queue struct {
	client      *redis.Client
	pollTimeout time.Duration
}

func NewQueue(client *redis.Client, pollTimeout time.Duration) *Queue {
	return &Queue{
		client:      client,
		pollTimeout: pollTimeout,
	}
}

func (q *Queue) Enqueue(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.client.LPush(ctx, verificationQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// Dequeue blocks up to the poll timeout. A nil task with a nil error means
// the timeout elapsed with nothing to do.
func (q *Queue) Dequeue(ctx context.Context) (*Task, error) {
	res, err := q.client.BRPop(ctx, q.pollTimeout, verificationQueueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue task: %w", err)
	}

	// BRPop returns [key, value].
	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &task, nil
}

// DeadLetter parks a permanently failed task for operator inspection.
func (q *Queue) DeadLetter(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.client.LPush(ctx, verificationDeadLetterKey, payload).Err(); err != nil {
		return fmt.Errorf("dead-letter task: %w", err)
	}
	return nil
}

// DeadLetterLength reports how many tasks are parked, for health reporting.
func (q *Queue) DeadLetterLength(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, verificationDeadLetterKey).Result()
}
