// Package queue runs the client's background work. The only periodic job is
// the unread-notification poll.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/microtask/taskhub/internal/api/metrics"
	"github.com/microtask/taskhub/internal/core/domain"
)

const defaultInterval = 30 * time.Second

// UnreadSource fetches the unread notification count for the current session.
type UnreadSource interface {
	UnreadCount(ctx context.Context) (int, error)
}

// SessionProbe exposes the session lifecycle state.
type SessionProbe interface {
	State() domain.SessionState
}

// Poller refreshes the unread count on a fixed interval. A failed poll is
// skipped and the last known count stays in place; the next tick tries again.
type Poller struct {
	interval time.Duration
	source   UnreadSource
	session  SessionProbe
	log      zerolog.Logger

	mu      sync.RWMutex
	count   int
	updated time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPoller creates a Poller. If interval <= 0, defaultInterval is used.
func NewPoller(interval time.Duration, source UnreadSource, session SessionProbe, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		interval: interval,
		source:   source,
		session:  session,
		log:      log.With().Str("component", "notification_poller").Logger(),
	}
}

// Start launches the polling goroutine. It stops when ctx is cancelled or
// Stop is called. Calling Start on a running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

// Stop cancels the polling goroutine and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Unread returns the last successfully polled count and when it was taken.
func (p *Poller) Unread() (int, time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.count, p.updated
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.PollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce performs a single poll.
func (p *Poller) PollOnce(ctx context.Context) {
	if p.session.State() != domain.SessionAuthenticated {
		p.set(0)
		metrics.NotificationPollsTotal.WithLabelValues("skipped").Inc()
		return
	}

	n, err := p.source.UnreadCount(ctx)
	switch {
	case err == nil:
		p.set(n)
		metrics.NotificationPollsTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, domain.ErrStaleRefresh), ctx.Err() != nil:
		metrics.NotificationPollsTotal.WithLabelValues("discarded").Inc()
	default:
		metrics.NotificationPollsTotal.WithLabelValues("failed").Inc()
		p.log.Debug().Err(err).Msg("unread poll failed, skipping")
	}
}

func (p *Poller) set(n int) {
	p.mu.Lock()
	p.count = n
	p.updated = time.Now()
	p.mu.Unlock()
	metrics.NotificationsUnread.Set(float64(n))
}
