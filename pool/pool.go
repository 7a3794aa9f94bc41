// Package pool implements the reactor-style leader/follower thread pool
// that drives connection I/O over a readiness selector. Exactly one
// goroutine ever blocks in the selector at a time; on wakeup it promotes a
// successor before running the dispatched handler callback itself, per the
// leader/follower pattern described for this runtime's I/O layer.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package pool

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/glacio/corerpc/cmn/nlog"
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/transport"
)

// Config mirrors the ThreadPool.* configuration knobs.
type Config struct {
	Name           string
	Size           int           // minimum thread count (goroutines), default 1
	SizeMax        int           // elastic ceiling, default = Size
	SizeWarn       int           // busy-count at which a warning is logged, 0 disables
	ThreadIdleTime time.Duration // extra threads above Size self-terminate after this, default 60s
	Registerer     prometheus.Registerer
}

func (c *Config) setDefaults() {
	if c.Size <= 0 {
		c.Size = 1
	}
	if c.SizeMax < c.Size {
		c.SizeMax = c.Size
	}
	if c.ThreadIdleTime <= 0 {
		c.ThreadIdleTime = 60 * time.Second
	}
}

type registeredHandler struct {
	h        Handler
	fd       uintptr
	disabled bool // serialize gate: true while a callback for this handler is in flight
}

// Pool owns one Selector and a leader/follower goroutine group servicing it.
type Pool struct {
	cfg Config
	sel transport.Selector
	m   *metrics

	mu        sync.Mutex
	cond      *sync.Cond
	hasLeader bool
	busy      int
	threads   int // goroutines currently alive, including the permanent Size ones
	stopping  bool
	stopped   chan struct{}

	handlers map[uintptr]*registeredHandler
}

// New creates a pool bound to sel (see transport.NewSelector) and starts its
// permanent Config.Size goroutines.
func New(cfg Config, sel transport.Selector) *Pool {
	cfg.setDefaults()
	p := &Pool{
		cfg:      cfg,
		sel:      sel,
		m:        newMetrics(cfg.Registerer, cfg.Name),
		stopped:  make(chan struct{}),
		handlers: make(map[uintptr]*registeredHandler),
	}
	p.cond = sync.NewCond(&p.mu)
	p.m.size.Set(float64(cfg.SizeMax))
	for i := 0; i < cfg.Size; i++ {
		p.spawn(false)
	}
	return p
}

// Register adds h to the pool's selector, dispatching its readiness events
// on pool goroutines until Unregister is called.
func (p *Pool) Register(h Handler) error {
	fd, ok := h.Fd()
	if !ok {
		return ierr.New(ierr.SocketException, "handler has no pollable fd")
	}
	rh := &registeredHandler{h: h, fd: fd}
	p.mu.Lock()
	p.handlers[fd] = rh
	p.mu.Unlock()
	return p.sel.Register(fd, rh, false)
}

func (p *Pool) Unregister(h Handler) error {
	fd, ok := h.Fd()
	if !ok {
		return nil
	}
	p.mu.Lock()
	delete(p.handlers, fd)
	p.mu.Unlock()
	return p.sel.Remove(fd)
}

// Stop signals every pool goroutine to exit once it next acquires (or would
// acquire) leadership and closes the selector. It returns without waiting
// for the goroutines to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	p.stopping = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.sel.Close()
}

func (p *Pool) spawn(extra bool) {
	p.mu.Lock()
	p.threads++
	n := p.threads
	p.mu.Unlock()
	p.m.threads.Set(float64(n))
	go p.run(extra)
}

// run is one pool goroutine's leader/follower loop. extra marks a thread
// spawned past Config.Size: it self-terminates after ThreadIdleTime spent
// waiting for leadership with nothing to do.
func (p *Pool) run(extra bool) {
	defer func() {
		p.mu.Lock()
		p.threads--
		p.mu.Unlock()
	}()
	idleSince := time.Now()
	for {
		p.mu.Lock()
		for p.hasLeader && !p.stopping {
			p.cond.Wait()
		}
		if p.stopping {
			p.mu.Unlock()
			return
		}
		p.hasLeader = true
		p.mu.Unlock()

		events, err := p.sel.Wait(nil, 200*time.Millisecond)
		if err != nil {
			nlog.Errorf("pool %s: selector wait: %v", p.cfg.Name, err)
		}
		if len(events) == 0 {
			p.mu.Lock()
			p.hasLeader = false
			p.cond.Signal()
			stopping := p.stopping
			p.mu.Unlock()
			if stopping {
				return
			}
			if extra && time.Since(idleSince) > p.cfg.ThreadIdleTime {
				return
			}
			continue
		}
		idleSince = time.Now()

		// Promote a successor before this goroutine runs any user callback,
		// so the selector never sits idle while a handler executes.
		p.promoteSuccessor()

		for _, ev := range events {
			rh, ok := ev.UserData.(*registeredHandler)
			if !ok || rh == nil {
				continue
			}
			p.dispatch(rh, ev)
		}
	}
}

func (p *Pool) promoteSuccessor() {
	p.mu.Lock()
	p.hasLeader = false
	p.cond.Signal()
	p.mu.Unlock()
}

// dispatch runs ioCompleted's bookkeeping (busy-count, SizeWarn, SizeMax
// growth) and then the handler callback itself on the calling goroutine.
func (p *Pool) dispatch(rh *registeredHandler, ev transport.Event) {
	if rh.h.Serialize() {
		p.mu.Lock()
		if rh.disabled {
			p.mu.Unlock()
			return
		}
		rh.disabled = true
		p.mu.Unlock()
		p.sel.Remove(rh.fd)
	}

	p.ioCompleted()
	defer func() {
		p.mu.Lock()
		p.busy--
		busy := p.busy
		p.mu.Unlock()
		p.m.busy.Set(float64(busy))
		if rh.h.Serialize() {
			p.mu.Lock()
			rh.disabled = false
			p.mu.Unlock()
			p.sel.Register(rh.fd, rh, false)
		}
	}()

	switch {
	case ev.Err:
		rh.h.HandleError(ierr.New(ierr.SocketException, "handler fd reported error"))
	case ev.Readable:
		rh.h.HandleReadable()
	case ev.Writable:
		rh.h.HandleWritable()
	}
}

// ioCompleted increments the busy-count, logs at SizeWarn, and grows the
// pool by one goroutine if busy has reached Size and SizeMax hasn't.
func (p *Pool) ioCompleted() {
	p.mu.Lock()
	p.busy++
	busy := p.busy
	threads := p.threads
	grow := busy >= p.cfg.Size && threads < p.cfg.SizeMax
	warn := p.cfg.SizeWarn > 0 && busy >= p.cfg.SizeWarn
	p.mu.Unlock()

	p.m.busy.Set(float64(busy))
	if warn {
		nlog.Warningf("pool %s: busy-count %d reached SizeWarn %d", p.cfg.Name, busy, p.cfg.SizeWarn)
	}
	if grow {
		p.spawn(true)
	}
}

// Threads reports the current goroutine count, for tests and diagnostics.
func (p *Pool) Threads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.threads
}

// Busy reports the current busy-count.
func (p *Pool) Busy() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}
