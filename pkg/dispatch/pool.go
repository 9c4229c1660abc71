package dispatch

import (
	"sync"
	"sync/atomic"

	"github.com/cuemby/infod/pkg/log"
)

// HandlerFunc processes one dequeued Transaction to completion, including
// writing and flushing its reply.
type HandlerFunc func(tx *Transaction)

// Pool is the fixed-but-resizable worker pool described in spec.md 4.H and
// 8: a bounded FIFO of pending transactions drained by a pool of worker
// goroutines. Growing the pool spawns additional workers; shrinking it
// enqueues one sentinel (a nil Transaction) per worker to be removed — each
// worker, on dequeuing a sentinel, exits before touching another item. This
// mirrors the channel-plus-goroutine-loop pattern used for the pack's
// background workers (e.g. a single goroutine draining a buffered channel
// until told to stop), generalized here to N interchangeable workers.
type Pool struct {
	queue   chan *Transaction
	handler HandlerFunc

	mu   sync.Mutex // serializes Resize calls against each other
	live atomic.Int64
}

// NewPool creates a Pool with the given queue depth and handler, and starts
// `initial` workers.
func NewPool(queueDepth, initial int, handler HandlerFunc) *Pool {
	p := &Pool{
		queue:   make(chan *Transaction, queueDepth),
		handler: handler,
	}
	p.spawn(initial)
	return p
}

// Enqueue submits a transaction for processing. It blocks if the queue is
// full, applying backpressure to the listener rather than growing
// unbounded.
func (p *Pool) Enqueue(tx *Transaction) {
	p.queue <- tx
}

// Live reports the current number of live workers.
func (p *Pool) Live() int {
	return int(p.live.Load())
}

// Resize adjusts the worker count to n. Growing spawns workers immediately;
// shrinking enqueues sentinels and returns without waiting for them to
// drain — callers that need the post-condition "Live() == n" should poll
// Live() or rely on in-flight requests having bounded processing time.
func (p *Pool) Resize(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.Live()
	switch {
	case n > current:
		p.spawn(n - current)
	case n < current:
		for i := 0; i < current-n; i++ {
			p.queue <- nil // sentinel
		}
	}
}

func (p *Pool) spawn(count int) {
	for i := 0; i < count; i++ {
		p.live.Add(1)
		go p.run()
	}
	WorkerPoolSize.Set(float64(p.Live()))
}

func (p *Pool) run() {
	logger := log.WithComponent("dispatch")
	defer func() {
		p.live.Add(-1)
		WorkerPoolSize.Set(float64(p.Live()))
	}()
	for tx := range p.queue {
		if tx == nil {
			// Sentinel: exit before touching another item.
			return
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error().Interface("panic", r).Msg("worker recovered from handler panic")
				}
			}()
			p.handler(tx)
		}()
	}
}

// Close enqueues one sentinel per live worker so each exits after the
// work queued ahead of it. The queue itself is not closed and later
// Enqueue calls are not rejected. Close is used at process shutdown.
func (p *Pool) Close() {
	n := p.Live()
	for i := 0; i < n; i++ {
		p.queue <- nil
	}
}
