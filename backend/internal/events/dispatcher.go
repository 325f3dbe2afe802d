package events

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Dispatcher：本地有界队列 + worker 异步发送 + 有限重试。
// - 不阻塞请求（Enqueue 只负责入队）
// - Kafka 短暂阻塞时靠队列吸收
// - 重试用尽后丢弃，事件不要求必达
type Dispatcher struct {
	producer sarama.SyncProducer
	topic    string

	queue chan DiffViewedEvent

	// sem 限制并发的 SendMessage 数量
	sem *SemaphoreControl

	workers     int
	maxRetry    int
	baseBackoff time.Duration
	maxBackoff  time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
	// 丢弃回调，用于打点
	onDrop func(DiffViewedEvent, error)
}

type DispatcherOptions struct {
	QueueSize   int
	Workers     int
	MaxInFlight int
	MaxRetry    int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	OnDrop      func(DiffViewedEvent, error)
}

var DefaultDispatcherOptions = DispatcherOptions{
	//  Go 允许在数字里用下划线做分隔符，方便阅读
	QueueSize:   10_000,
	Workers:     4,
	MaxInFlight: 4,
	MaxRetry:    3,
	BaseBackoff: 50 * time.Millisecond,
	MaxBackoff:  1 * time.Second,
}

// NewDispatcher producer 为 nil 时所有事件直接丢弃（本地开发不连 Kafka）
func NewDispatcher(producer sarama.SyncProducer, topic string, opt DispatcherOptions) *Dispatcher {
	if opt.QueueSize <= 0 {
		opt.QueueSize = DefaultDispatcherOptions.QueueSize
	}
	if opt.Workers <= 0 {
		opt.Workers = DefaultDispatcherOptions.Workers
	}
	if opt.MaxInFlight <= 0 {
		opt.MaxInFlight = opt.Workers
	}
	d := &Dispatcher{
		producer:    producer,
		topic:       topic,
		queue:       make(chan DiffViewedEvent, opt.QueueSize),
		sem:         NewSemaphoreControl(opt.MaxInFlight),
		workers:     opt.Workers,
		maxRetry:    opt.MaxRetry,
		baseBackoff: opt.BaseBackoff,
		maxBackoff:  opt.MaxBackoff,
		onDrop:      opt.OnDrop,
	}

	d.Start()
	return d
}

// Enqueue 把事件放入本地队列；队列满时等到 ctx 结束
func (d *Dispatcher) Enqueue(ctx context.Context, evt DiffViewedEvent) error {
	if evt.EventType == "" {
		evt.EventType = EventDiffViewed
	}
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if evt.ViewedAt.IsZero() {
		evt.ViewedAt = time.Now().UTC()
	}
	select {
	case d.queue <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.workerLoop(i)
	}
}

// Close 停止接收并等待队列排空，之后不能再 Enqueue
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
		d.wg.Wait()
	})
}

func (d *Dispatcher) workerLoop(workerID int) {
	defer d.wg.Done()
	for evt := range d.queue {
		d.sendWithRetry(workerID, evt)
	}
}

func (d *Dispatcher) sendWithRetry(workerID int, evt DiffViewedEvent) {
	for attempt := 0; attempt <= d.maxRetry; attempt++ {
		// worker 允许一直等待（不会影响请求）
		_ = d.sem.Acquire(context.Background())
		err := d.sendOnce(evt)
		_ = d.sem.Release()

		if err == nil {
			return
		}

		if attempt == d.maxRetry {
			log.WithFields(log.Fields{
				"event_id": evt.EventID,
				"old":      evt.OldRevision,
				"new":      evt.NewRevision,
				"worker":   workerID,
			}).WithError(err).Warn("kafka send failed, drop event")
			if d.onDrop != nil {
				d.onDrop(evt, err)
			}
			return
		}

		// 退避，每次退避时间X2
		backoff := d.baseBackoff * time.Duration(1<<attempt)
		if d.maxBackoff > 0 && backoff > d.maxBackoff {
			backoff = d.maxBackoff
		}
		time.Sleep(backoff)
	}
}

func (d *Dispatcher) sendOnce(evt DiffViewedEvent) error {
	if d.producer == nil || d.topic == "" {
		return nil
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		// 以旧修订做 key，同一组比较落在同一分区
		Key:   sarama.StringEncoder(strconv.FormatInt(evt.OldRevision, 10)),
		Value: sarama.ByteEncoder(b),
	}
	_, _, err = d.producer.SendMessage(msg)
	return err
}
