package generation

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolRunsTasks(t *testing.T) {
	p := NewWorkerPool(2, 8)
	var count atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		ok := p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		})
		assert.True(t, ok)
	}
	wg.Wait()
	p.Stop()
	assert.Equal(t, int64(10), count.Load())
}

func TestWorkerPoolRejectsWhenFull(t *testing.T) {
	p := NewWorkerPool(1, 1)
	release := make(chan struct{})
	started := make(chan struct{})
	assert.True(t, p.Submit(func() {
		close(started)
		<-release
	}))
	<-started
	// One slot in the queue, then rejections.
	assert.True(t, p.Submit(func() {}))
	assert.False(t, p.Submit(func() {}))
	close(release)
	p.Stop()
}

func TestWorkerPoolStopDrainsQueue(t *testing.T) {
	p := NewWorkerPool(1, 4)
	var count atomic.Int64
	for i := 0; i < 4; i++ {
		p.Submit(func() {
			time.Sleep(5 * time.Millisecond)
			count.Add(1)
		})
	}
	p.Stop()
	assert.Equal(t, int64(4), count.Load())
	assert.False(t, p.Submit(func() {}))
}

func TestWorkerPoolStopIsIdempotent(t *testing.T) {
	p := NewWorkerPool(0, 0)
	p.Stop()
	p.Stop()
}
