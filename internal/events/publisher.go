package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/traffic-gate/internal/domain"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultStream is the Redis stream click events are appended to.
	DefaultStream = "traffic-gate:clicks"

	flushTimeout = 5 * time.Second
)

// Recorder receives publisher counters.
type Recorder interface {
	RecordEventsPublished(n int)
	RecordEventsFailed(n int)
	IncrementEventsDropped()
}

// Config controls batching and stream trimming.
type Config struct {
	Stream         string
	MaxLen         int64
	FlushInterval  time.Duration
	FlushThreshold int
}

// Publisher batches click events from a Buffer and appends them to a Redis
// stream with one pipelined round trip per batch. A nil *Publisher is a no-op.
type Publisher struct {
	client  redis.Cmdable
	buffer  *Buffer
	cfg     Config
	log     logger.Logger
	metrics Recorder
	wg      sync.WaitGroup
}

// NewPublisher creates a publisher reading from buffer. metrics may be nil.
func NewPublisher(client redis.Cmdable, buffer *Buffer, cfg Config, log logger.Logger, metrics Recorder) *Publisher {
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}
	if cfg.FlushThreshold <= 0 {
		cfg.FlushThreshold = 1
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Publisher{
		client:  client,
		buffer:  buffer,
		cfg:     cfg,
		log:     log,
		metrics: metrics,
	}
}

// Enqueue hands record to the buffer without blocking. When the buffer is
// full the event is dropped and counted.
func (p *Publisher) Enqueue(record domain.ClickRecord) {
	if p == nil {
		return
	}
	if !p.buffer.Send(NewClickEvent(record)) {
		if p.metrics != nil {
			p.metrics.IncrementEventsDropped()
		}
		p.log.Warn("Click event buffer full, dropping event", logger.String("click_id", record.ID))
	}
}

// Start launches the background flush goroutine.
func (p *Publisher) Start() {
	if p == nil {
		return
	}
	p.wg.Add(1)
	go p.flushLoop()
}

// Stop closes the buffer and waits until every buffered event was flushed.
func (p *Publisher) Stop() {
	if p == nil {
		return
	}
	p.buffer.Close()
	p.wg.Wait()
}

// flushLoop accumulates a batch and flushes it when it reaches the threshold
// or the interval ticker fires.
func (p *Publisher) flushLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]ClickEvent, 0, p.cfg.FlushThreshold)

	for {
		select {
		case event := <-p.buffer.events:
			batch = append(batch, event)
			if len(batch) >= p.cfg.FlushThreshold {
				p.flush(batch)
				batch = make([]ClickEvent, 0, p.cfg.FlushThreshold)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				p.flush(batch)
				batch = make([]ClickEvent, 0, p.cfg.FlushThreshold)
			}

		case <-p.buffer.closed:
			p.drain(&batch)
			if len(batch) > 0 {
				p.flush(batch)
			}
			return
		}
	}
}

func (p *Publisher) drain(batch *[]ClickEvent) {
	for {
		select {
		case event := <-p.buffer.events:
			*batch = append(*batch, event)
		default:
			return
		}
	}
}

func (p *Publisher) flush(batch []ClickEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := p.publishBatch(ctx, batch); err != nil {
		p.log.Error("Failed to publish click events",
			logger.Error(err),
			logger.Int("batch_size", len(batch)),
		)
		if p.metrics != nil {
			p.metrics.RecordEventsFailed(len(batch))
		}
		return
	}

	if p.metrics != nil {
		p.metrics.RecordEventsPublished(len(batch))
	}
	p.log.Debug("Published click events", logger.Int("total", len(batch)))
}

func (p *Publisher) publishBatch(ctx context.Context, batch []ClickEvent) error {
	pipe := p.client.Pipeline()

	for i := range batch {
		payload, err := json.Marshal(batch[i])
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", batch[i].EventID, err)
		}

		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.cfg.Stream,
			MaxLen: p.cfg.MaxLen,
			Approx: p.cfg.MaxLen > 0,
			Values: map[string]any{
				"event_type": batch[i].EventType,
				"event":      string(payload),
			},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append to stream %s: %w", p.cfg.Stream, err)
	}
	return nil
}
