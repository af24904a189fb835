package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

// Dispatcher pushes room events to Kafka through a local bounded queue and a
// worker pool with bounded retry. The gateway only ever enqueues; a slow or
// down broker is absorbed by the queue and, past that, by dropping events.
type Dispatcher struct {
	producer sarama.SyncProducer
	topic    string

	queue chan RoomEvent
	sem   *Semaphore
	wg    sync.WaitGroup

	maxRetry    int
	baseBackoff time.Duration
	maxBackoff  time.Duration

	closeOnce sync.Once
}

type Options struct {
	QueueSize   int
	Workers     int
	MaxRetry    int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func NewDispatcher(producer sarama.SyncProducer, topic string, sem *Semaphore, opt Options) *Dispatcher {
	if opt.QueueSize <= 0 {
		opt.QueueSize = 10_000
	}
	if opt.Workers <= 0 {
		opt.Workers = 4
	}
	d := &Dispatcher{
		producer:    producer,
		topic:       topic,
		queue:       make(chan RoomEvent, opt.QueueSize),
		sem:         sem,
		maxRetry:    opt.MaxRetry,
		baseBackoff: opt.BaseBackoff,
		maxBackoff:  opt.MaxBackoff,
	}
	for i := 0; i < opt.Workers; i++ {
		d.wg.Add(1)
		go d.workerLoop(i)
	}
	return d
}

// TryEnqueue never blocks: a full queue drops the event. This is the call
// sites' contract inside the sync path.
func (d *Dispatcher) TryEnqueue(evt RoomEvent) {
	select {
	case d.queue <- evt:
	default:
		log.Printf("event queue full, drop %s room=%s", evt.EventType, evt.RoomID)
	}
}

// Enqueue waits for queue space until ctx expires.
func (d *Dispatcher) Enqueue(ctx context.Context, evt RoomEvent) error {
	select {
	case d.queue <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events and waits for the workers to drain the queue.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.queue) })
	d.wg.Wait()
}

func (d *Dispatcher) workerLoop(workerID int) {
	defer d.wg.Done()
	for evt := range d.queue {
		d.sendWithRetry(workerID, evt)
	}
}

func (d *Dispatcher) sendWithRetry(workerID int, evt RoomEvent) {
	for attempt := 0; attempt <= d.maxRetry; attempt++ {
		if d.sem != nil {
			// workers may wait indefinitely, the main path is not behind them
			_ = d.sem.Acquire(context.Background())
		}
		err := d.sendOnce(evt)
		if d.sem != nil {
			_ = d.sem.Release()
		}
		if err == nil {
			return
		}
		if attempt == d.maxRetry {
			log.Printf("kafka send failed, drop event %s room=%s worker=%d err=%v",
				evt.EventType, evt.RoomID, workerID, err)
			return
		}
		backoff := d.baseBackoff * time.Duration(1<<attempt)
		if backoff > d.maxBackoff {
			backoff = d.maxBackoff
		}
		time.Sleep(backoff)
	}
}

func (d *Dispatcher) sendOnce(evt RoomEvent) error {
	if d.producer == nil || d.topic == "" {
		return nil
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		// key by room so a consumer sees each room's events in order
		Key:   sarama.StringEncoder(evt.RoomID),
		Value: sarama.ByteEncoder(b),
	}
	_, _, err = d.producer.SendMessage(msg)
	return err
}
