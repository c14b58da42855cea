package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	mu      sync.Mutex
	results []int
	err     error
	calls   int
}

func (f *fakeProcessor) ProcessDue(ctx context.Context, batchSize int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if len(f.results) == 0 {
		return 0, nil
	}
	n := f.results[0]
	f.results = f.results[1:]
	return n, nil
}

func (f *fakeProcessor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestCartCleanupWorker_DrainsFullBatches(t *testing.T) {
	p := &fakeProcessor{results: []int{2, 2, 1}}
	w := NewCartCleanupWorker(p, time.Hour, 2, zerolog.Nop())

	w.tick(context.Background())
	assert.Equal(t, 3, p.callCount())
}

func TestCartCleanupWorker_StopsOnError(t *testing.T) {
	p := &fakeProcessor{err: errors.New("db down")}
	w := NewCartCleanupWorker(p, time.Hour, 2, zerolog.Nop())

	w.tick(context.Background())
	assert.Equal(t, 1, p.callCount())
}

func TestCartCleanupWorker_StartStop(t *testing.T) {
	p := &fakeProcessor{}
	w := NewCartCleanupWorker(p, 10*time.Millisecond, 5, zerolog.Nop())

	require.NoError(t, w.Start(context.Background()))
	assert.Eventually(t, func() bool { return p.callCount() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))

	// 停止後は呼ばれない
	n := p.callCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, p.callCount())
}

func TestCartCleanupWorker_StopWithoutStart(t *testing.T) {
	w := NewCartCleanupWorker(&fakeProcessor{}, time.Second, 1, zerolog.Nop())
	assert.NoError(t, w.Stop(context.Background()))
}
