package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/storage"
)

// Persister mirrors the in-memory list to a Store. Requests never block:
// only the latest snapshot is kept, so a burst of mutations coalesces into
// one trailing write. Failed writes stay pending and are retried.
type Persister struct {
	store   storage.Store
	logger  *log.Logger
	retry   time.Duration
	onError func(error)

	mu      sync.Mutex
	pending []model.Task
	version uint64
	dirty   bool
	lastErr error

	saveMu  sync.Mutex
	signal  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
}

func NewPersister(store storage.Store, logger *log.Logger, retry time.Duration, onError func(error)) *Persister {
	if retry <= 0 {
		retry = 10 * time.Second
	}
	return &Persister{
		store:   store,
		logger:  logger,
		retry:   retry,
		onError: onError,
		signal:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Request replaces the pending snapshot. The caller hands over ownership.
func (p *Persister) Request(snapshot []model.Task) {
	p.mu.Lock()
	p.pending = snapshot
	p.version++
	p.dirty = true
	p.mu.Unlock()
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *Persister) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

func (p *Persister) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Flush writes the pending snapshot, if any, and returns the store error.
func (p *Persister) Flush(ctx context.Context) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.mu.Lock()
	if !p.dirty {
		p.mu.Unlock()
		return nil
	}
	snapshot, version := p.pending, p.version
	p.dirty = false
	p.mu.Unlock()

	err := p.store.Save(ctx, snapshot)

	p.mu.Lock()
	p.lastErr = err
	if err != nil && p.version == version {
		p.dirty = true
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Printf("engine: save %d tasks failed, will retry: %v", len(snapshot), err)
		if p.onError != nil {
			p.onError(err)
		}
	}
	return err
}

// Start runs the background writer until Stop. A stopped Persister
// stays stopped; later writes go through Flush.
func (p *Persister) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()
	go p.loop(ctx)
}

func (p *Persister) loop(ctx context.Context) {
	defer close(p.doneCh)
	var retry <-chan time.Time
	for {
		select {
		case <-p.signal:
		case <-retry:
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		}
		retry = nil
		if err := p.Flush(ctx); err != nil {
			retry = time.After(p.retry)
		}
	}
}

// Stop ends the background writer and performs a final flush.
func (p *Persister) Stop(ctx context.Context) error {
	p.mu.Lock()
	closeLoop := p.started && !p.stopped
	p.stopped = true
	p.mu.Unlock()
	if closeLoop {
		close(p.stopCh)
		<-p.doneCh
	}
	return p.Flush(ctx)
}
