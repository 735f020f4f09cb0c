package ingestion_engine

import (
	"context"
	"log"
)

var _ Queue = (*ChannelQueue)(nil)

// ChannelQueue is the in-process job queue. Jobs are lost on restart.
type ChannelQueue struct {
	jobs chan Job
}

// NewChannelQueue constructs a queue buffering up to size jobs (64 when size <= 0).
func NewChannelQueue(size int) *ChannelQueue {
	if size <= 0 {
		size = 64
	}
	return &ChannelQueue{jobs: make(chan Job, size)}
}

// Publish blocks while the buffer is full.
func (q *ChannelQueue) Publish(ctx context.Context, job Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ChannelQueue) Consume(ctx context.Context, handler func(context.Context, Job) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-q.jobs:
			if err := handler(ctx, job); err != nil {
				log.Printf("ChannelQueue: job for corpus %s failed: %v", job.CorpusID, err)
			}
		}
	}
}
