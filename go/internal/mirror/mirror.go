// Package mirror republishes every frame a game socket receives to NATS
// JetStream so other processes can replay a session.
package mirror

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/cardtable/go/internal/session"
)

type EventPublisher interface {
	Publish(ctx context.Context, env session.Envelope) error
}

// Subscriber is the part of the socket the mirror listens on.
type Subscriber interface {
	OnMessage(msgType session.MessageType, handler session.Handler) func()
}

type Config struct {
	QueueSize      int
	PublishTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueSize:      256,
		PublishTimeout: 5 * time.Second,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

// Option customizes a Mirror.
type Option func(*Mirror)

// WithClock replaces the clock that paces retries.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Mirror) { m.clock = clock }
}

// Mirror queues inbound frames and publishes them in order from its own
// goroutine so the socket's dispatch loop never waits on NATS.
type Mirror struct {
	publisher EventPublisher
	config    Config
	clock     clockwork.Clock

	queue chan session.Envelope
	stop  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	unsub   func()
	closed  bool
	dropped int
}

// Attach starts mirroring every frame sub receives.
func Attach(sub Subscriber, publisher EventPublisher, cfg Config, opts ...Option) *Mirror {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	m := &Mirror{
		publisher: publisher,
		config:    cfg,
		queue:     make(chan session.Envelope, cfg.QueueSize),
		stop:      make(chan struct{}),
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.wg.Add(1)
	go m.run()

	m.unsub = sub.OnMessage(session.AnyMessage, m.enqueue)
	return m
}

func (m *Mirror) enqueue(env session.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.queue <- env:
	default:
		m.dropped++
		log.Warn().
			Str("message_type", string(env.MessageType)).
			Int("message_id", env.MessageID).
			Int("dropped", m.dropped).
			Msg("mirror queue full, dropping push")
	}
}

func (m *Mirror) run() {
	defer m.wg.Done()
	for {
		select {
		case env := <-m.queue:
			m.publish(env)
		case <-m.stop:
			// Flush what was queued before Close.
			for {
				select {
				case env := <-m.queue:
					m.publish(env)
				default:
					return
				}
			}
		}
	}
}

func (m *Mirror) publish(env session.Envelope) {
	var err error
	for attempt := 0; attempt <= m.config.MaxRetries; attempt++ {
		if attempt > 0 && !m.backoff() {
			break
		}
		ctx, cancel := context.WithTimeout(context.Background(), m.config.PublishTimeout)
		err = m.publisher.Publish(ctx, env)
		cancel()
		if err == nil {
			return
		}
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Str("message_type", string(env.MessageType)).
			Msg("failed to mirror push")
	}
	log.Error().
		Err(err).
		Str("message_type", string(env.MessageType)).
		Int("message_id", env.MessageID).
		Msg("giving up on mirroring push")
}

// backoff waits out RetryDelay. It reports false once Close has been called,
// after which each remaining frame gets a single attempt.
func (m *Mirror) backoff() bool {
	select {
	case <-m.stop:
		return false
	default:
	}
	select {
	case <-m.clock.After(m.config.RetryDelay):
		return true
	case <-m.stop:
		return false
	}
}

// Dropped reports how many frames were discarded because the queue was full.
func (m *Mirror) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Close stops listening, publishes whatever is queued without further
// retries, and waits for it.
func (m *Mirror) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("mirror already closed")
	}
	m.closed = true
	m.mu.Unlock()

	m.unsub()
	close(m.stop)
	m.wg.Wait()
	return nil
}
