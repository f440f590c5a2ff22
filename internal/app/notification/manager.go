// Package notification provides the notification manager for broadcasting
// presence updates to external services.
package notification

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/domain/status"
)

// DefaultSendTimeout bounds a single notifier send.
const DefaultSendTimeout = 500 * time.Millisecond

// Notifier is an external presence sink.
type Notifier interface {
	Send(ctx context.Context, p *status.Presence) error
	Clear(ctx context.Context) error
	Name() string
	Close() error
}

// subscription represents a registered notifier.
type subscription struct {
	id       string
	notifier Notifier
}

// Manager fans presence updates out to notifiers.
// Broadcasts never block the caller; while one is in flight, new
// payloads are dropped.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    atomic.Uint64
	timeout       time.Duration

	inflight atomic.Bool
	wg       sync.WaitGroup
}

// NewManager creates a new notification manager.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Manager{
		subscriptions: make(map[string]*subscription),
		timeout:       timeout,
	}
}

// Subscribe adds a notifier and returns the subscription ID.
func (m *Manager) Subscribe(n Notifier) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:       id,
		notifier: n,
	}
	return id
}

// SubscriberCount returns the number of registered notifiers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Broadcast sends p to every notifier in the background.
// It returns false when the payload was dropped because a previous
// broadcast is still running.
func (m *Manager) Broadcast(p status.Presence) bool {
	if !m.inflight.CompareAndSwap(false, true) {
		zlog.Debug().Msg("notification: broadcast in flight, dropping presence update")
		return false
	}
	p.SequenceNo = m.sequenceNo.Add(1)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.inflight.Store(false)
		m.fanOut(func(ctx context.Context, n Notifier) error {
			return n.Send(ctx, &p)
		})
	}()
	return true
}

// Clear clears the presence on every notifier and waits for the result.
func (m *Manager) Clear() {
	m.Wait()
	m.fanOut(func(ctx context.Context, n Notifier) error {
		return n.Clear(ctx)
	})
}

// Wait blocks until an in-flight broadcast has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// fanOut calls fn for each notifier in parallel, each bounded by the
// send timeout. Errors are logged and dropped.
func (m *Manager) fanOut(fn func(ctx context.Context, n Notifier) error) {
	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- fn(ctx, s.notifier)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Err(err).Msgf("notification: notifier=%s failed", s.notifier.Name())
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("notification: notifier=%s timed out", s.notifier.Name())
			}
		}(sub)
	}
	wg.Wait()
}

// Close waits for in-flight work, closes every notifier and removes all
// subscriptions.
func (m *Manager) Close() {
	m.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subscriptions {
		if err := sub.notifier.Close(); err != nil {
			zlog.Debug().Err(err).Msgf("notification: failed to close notifier=%s", sub.notifier.Name())
		}
	}
	m.subscriptions = make(map[string]*subscription)
}
