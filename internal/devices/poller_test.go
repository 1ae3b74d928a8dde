package devices

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"

	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/logging"
)

type fakeReader struct {
	mu    sync.Mutex
	calls atomic.Int32
	dev   backend.Dispositivo
	err   error
}

func (f *fakeReader) Device(_ context.Context, id string) (backend.Dispositivo, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return backend.Dispositivo{}, f.err
	}
	d := f.dev
	d.DispositivoID = id
	return d, nil
}

func TestNewPoller(t *testing.T) {
	_, err := NewPoller("", &fakeReader{})
	assert.Error(t, err)
	_, err = NewPoller("ESP32-01", nil)
	assert.Error(t, err)

	p, err := NewPoller("ESP32-01", &fakeReader{}, WithInterval(0), WithStaleThreshold(-1))
	require.NoError(t, err)
	assert.Equal(t, DefaultPollInterval, p.interval)
	assert.Equal(t, DefaultStaleThreshold, p.stale)
}

func TestPollerPoll(t *testing.T) {
	now := time.UnixMilli(1_700_000_100_000)
	reader := &fakeReader{dev: backend.Dispositivo{
		Timestamp: now.Add(-50 * time.Second).UnixMilli(),
		Datos:     map[string]string{"temperatura": "33"},
	}}
	sink := &recordingSink{}
	p, err := NewPoller("ESP32-01", reader, WithSink(sink), WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	_, ok := p.Last()
	assert.False(t, ok)

	snap, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Stale, "50s old report exceeds the 45s default")
	assert.Zero(t, snap.ConnectedCount())

	p.stale = time.Minute
	snap, err = p.Poll(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Stale)
	assert.Equal(t, 1, snap.ConnectedCount())

	last, ok := p.Last()
	require.True(t, ok)
	assert.Equal(t, snap, last)
	assert.Len(t, sink.Snapshots(), 2)
}

func TestPollerPollError(t *testing.T) {
	reader := &fakeReader{err: errors.New("connection refused")}
	sink := &recordingSink{}
	p, err := NewPoller("ESP32-01", reader, WithSink(sink))
	require.NoError(t, err)

	_, err = p.Poll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ESP32-01")
	assert.Empty(t, sink.Snapshots())
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	reader := &fakeReader{dev: backend.Dispositivo{Datos: map[string]string{"temperatura": "30"}}}
	got := make(chan Snapshot, 16)
	sink := SnapshotFunc(func(_ context.Context, s Snapshot) error {
		select {
		case got <- s:
		default:
		}
		return nil
	})
	logger := logging.NewTestLogger()
	p, err := NewPoller("ESP32-01", reader,
		WithInterval(5*time.Millisecond),
		WithSink(sink),
		WithPollerLogger(logger.Logger))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case s := <-got:
			assert.Equal(t, "ESP32-01", s.DispositivoID)
		case <-time.After(2 * time.Second):
			t.Fatal("poller did not publish")
		}
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
	logger.AssertLogged(t, zapcore.InfoLevel, "device poller stopped")
}

func TestPollerRunKeepsGoingAfterErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	reader := &fakeReader{err: errors.New("timeout")}
	p, err := NewPoller("ESP32-01", reader, WithInterval(2*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	assert.Eventually(t, func() bool { return reader.calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
