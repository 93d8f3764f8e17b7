package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type expirer struct{ calls atomic.Int32 }

func (e *expirer) ExpireTyping(time.Time) int {
	e.calls.Add(1)
	return 1
}

type pinger struct {
	mu  sync.Mutex
	err error
}

func (p *pinger) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *pinger) set(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func TestSchedulerRunsJobs(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	e := &expirer{}
	require.NoError(t, s.Every(JobTypingSweep, 20*time.Millisecond, TypingSweep(e, nil)))
	require.Error(t, s.Every("bad", 0, func() {}))

	s.Start()
	require.Eventually(t, func() bool { return e.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Shutdown())
}

func TestStorageProbe(t *testing.T) {
	p := &pinger{}
	var serving []bool
	probe := StorageProbe(context.Background(), p, time.Second, func(ok bool) { serving = append(serving, ok) })

	probe()
	p.set(errors.New("conn refused"))
	probe()
	probe()
	p.set(nil)
	probe()

	require.Equal(t, []bool{true, false, false, true}, serving)
}
