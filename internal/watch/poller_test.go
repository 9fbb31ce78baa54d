package watch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) RefreshAll(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestNewRefreshPoller_Validation(t *testing.T) {
	_, err := NewRefreshPoller(RefreshPollerConfig{Interval: time.Second})
	assert.Error(t, err)
	_, err = NewRefreshPoller(RefreshPollerConfig{Target: &countingRefresher{}})
	assert.Error(t, err)
}

func TestRefreshPoller_PollsUntilCancelled(t *testing.T) {
	target := &countingRefresher{}
	p, err := NewRefreshPoller(RefreshPollerConfig{Target: target, Interval: 10 * time.Millisecond, Logger: quietLogger()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	require.Eventually(t, func() bool { return target.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, p.Status().Running)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	assert.False(t, p.Status().Running)
}

func TestRefreshPoller_DoubleStart(t *testing.T) {
	target := &countingRefresher{}
	p, err := NewRefreshPoller(RefreshPollerConfig{Target: target, Interval: time.Hour, Logger: quietLogger()})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- p.Start(context.Background()) }()
	require.Eventually(t, func() bool { return p.Status().Running }, time.Second, 5*time.Millisecond)

	err = p.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	require.NoError(t, p.Stop())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not end Start")
	}
}

func TestRefreshPoller_TracksFailures(t *testing.T) {
	target := &countingRefresher{err: errors.New("rpc down")}
	p, err := NewRefreshPoller(RefreshPollerConfig{Target: target, Interval: 5 * time.Millisecond, Logger: quietLogger()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Start(ctx) }()

	require.Eventually(t, func() bool { return p.Status().ConsecutiveFailures >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "rpc down", p.Status().LastError)
}
