package devices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/logging"
)

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = 5 * time.Second

// Reader fetches a device report. *backend.ApiariosService implements it.
type Reader interface {
	Device(ctx context.Context, dispositivoID string) (backend.Dispositivo, error)
}

// Poller reads one device at a fixed interval and hands each Snapshot to
// its sinks.
//
// Thread Safety: Last may be called while Run is active.
type Poller struct {
	id       string
	reader   Reader
	interval time.Duration
	stale    time.Duration
	sinks    []Sink
	logger   *logging.Logger
	now      func() time.Time

	mu   sync.RWMutex
	last Snapshot
	ok   bool
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the time between polls.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithStaleThreshold sets the age after which a report's sensors are
// disconnected.
func WithStaleThreshold(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.stale = d
		}
	}
}

// WithSink adds a sink. Sink errors are logged and do not stop polling.
func WithSink(s Sink) PollerOption {
	return func(p *Poller) {
		if s != nil {
			p.sinks = append(p.sinks, s)
		}
	}
}

// WithPollerLogger sets the logger.
func WithPollerLogger(l *logging.Logger) PollerOption {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.now = now }
}

// NewPoller creates a poller for dispositivoID. It does not start polling.
func NewPoller(dispositivoID string, reader Reader, opts ...PollerOption) (*Poller, error) {
	if dispositivoID == "" {
		return nil, errors.New("dispositivoID cannot be empty")
	}
	if reader == nil {
		return nil, errors.New("reader cannot be nil")
	}
	p := &Poller{
		id:       dispositivoID,
		reader:   reader,
		interval: DefaultPollInterval,
		stale:    DefaultStaleThreshold,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Poll reads the device once and publishes the snapshot.
func (p *Poller) Poll(ctx context.Context) (Snapshot, error) {
	d, err := p.reader.Device(ctx, p.id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading %s: %w", p.id, err)
	}
	if d.DispositivoID == "" {
		d.DispositivoID = p.id
	}
	snap := BuildSnapshot(d, p.now(), p.stale)

	p.mu.Lock()
	p.last, p.ok = snap, true
	p.mu.Unlock()

	for _, s := range p.sinks {
		if err := s.PublishSnapshot(ctx, snap); err != nil {
			p.logger.Warn(ctx, "publishing snapshot failed",
				zap.String("dispositivo_id", p.id), zap.Error(err))
		}
	}
	return snap, nil
}

// DispositivoID returns the polled device.
func (p *Poller) DispositivoID() string { return p.id }

// Last returns the most recent snapshot, if any.
func (p *Poller) Last() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.ok
}

// Run polls immediately and then every interval until ctx is done. Failed
// polls are logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info(ctx, "device poller started",
		zap.String("dispositivo_id", p.id),
		zap.Duration("interval", p.interval),
		zap.Duration("stale_threshold", p.stale))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	defer p.logger.Info(ctx, "device poller stopped", zap.String("dispositivo_id", p.id))

	for {
		snap, err := p.Poll(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			p.logger.Warn(ctx, "device poll failed", zap.String("dispositivo_id", p.id), zap.Error(err))
		case snap.Stale:
			p.logger.Debug(ctx, "device report is stale",
				zap.String("dispositivo_id", p.id), zap.Time("seen_at", snap.SeenAt))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
