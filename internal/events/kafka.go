package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// KafkaPublisher buffers envelopes and writes them from a single goroutine so
// a slow broker never stalls a sale.
type KafkaPublisher struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     *logrus.Logger

	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(brokers []string, topic string, buf int, log *logrus.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

func (p *KafkaPublisher) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *KafkaPublisher) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				_ = p.w.Close()
				return
			}
			p.write(m)
		default:
			_ = p.w.Close()
			return
		}
	}
}

func (p *KafkaPublisher) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.log.WithFields(logrus.Fields{
			"topic": p.w.Topic,
			"key":   string(m.Key),
			"error": err.Error(),
		}).Error("kafka publish failed")
	}
}

func (p *KafkaPublisher) Publish(_ context.Context, e Envelope) {
	value, err := json.Marshal(e)
	if err != nil {
		p.log.WithError(err).Error("marshal kafka event")
		return
	}
	msg := kafka.Message{
		Key:   []byte(e.CorrelationID),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "event_id", Value: []byte(e.EventID)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.WithField("event_type", e.EventType).Warn("kafka publisher closed; dropping event")
		return
	}
	select {
	case p.inbox <- msg:
	default:
		p.log.WithField("event_type", e.EventType).Warn("kafka inbox full; dropping event")
	}
}

// Close stops accepting events; WaitClosed blocks until the buffer is flushed.
// Calling it more than once is harmless.
func (p *KafkaPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

func (p *KafkaPublisher) WaitClosed() { <-p.closeCh }
