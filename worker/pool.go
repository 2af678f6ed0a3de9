// Package worker runs optimize, format and code generation jobs on
// background goroutine pools and caches their results.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/kpango/glg"
)

var ErrTerminated = errors.New("worker terminated")

// queueSize bounds how many accepted jobs may wait for a free goroutine.
const queueSize = 64

// Handler does the work for one request. A panic inside a handler is treated
// as a crash of the whole pool.
type Handler[Req, Resp any] func(Req) (Resp, error)

type job[Req any] struct {
	id  string
	req Req
}

type result[Resp any] struct {
	id   string
	resp Resp
	err  error
}

// generation is one running set of goroutines. A crash or Terminate ends it;
// the next Execute starts a fresh one.
type generation[Req, Resp any] struct {
	jobs    chan job[Req]
	results chan result[Resp]
	crash   chan error
	quit    chan struct{}
}

// Pool correlates requests and responses across a lazily started set of
// goroutines.
type Pool[Req, Resp any] struct {
	name    string
	size    int
	handler Handler[Req, Resp]

	nextID atomic.Uint64

	mu      sync.Mutex
	gen     *generation[Req, Resp]
	pending map[string]chan result[Resp]
}

func NewPool[Req, Resp any](name string, size int, h Handler[Req, Resp]) *Pool[Req, Resp] {
	if size < 1 {
		size = 1
	}
	return &Pool[Req, Resp]{
		name:    name,
		size:    size,
		handler: h,
		pending: make(map[string]chan result[Resp]),
	}
}

// Execute queues req and waits for its response. ctx only bounds the wait;
// a job that was already picked up still runs to completion.
func (p *Pool[Req, Resp]) Execute(ctx context.Context, req Req) (Resp, error) {
	var zero Resp
	id := "msg_" + strconv.FormatUint(p.nextID.Add(1)-1, 10)
	ch := make(chan result[Resp], 1)

	p.mu.Lock()
	g := p.ensure()
	p.pending[id] = ch
	p.mu.Unlock()

	select {
	case g.jobs <- job[Req]{id: id, req: req}:
	case <-g.quit:
		// The generation died before accepting the job; its pending
		// entries, ours included, have already been rejected.
	case <-ctx.Done():
		p.forget(id)
		return zero, ctx.Err()
	}

	select {
	case r := <-ch:
		return r.resp, r.err
	case <-ctx.Done():
		p.forget(id)
		return zero, ctx.Err()
	}
}

// Pending returns the number of requests waiting for a response.
func (p *Pool[Req, Resp]) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Terminate stops the goroutines and rejects everything pending with
// ErrTerminated. The pool starts again on the next Execute.
func (p *Pool[Req, Resp]) Terminate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != nil {
		close(p.gen.quit)
		p.gen = nil
	}
	p.rejectAll(ErrTerminated)
}

// ensure must be called with p.mu held.
func (p *Pool[Req, Resp]) ensure() *generation[Req, Resp] {
	if p.gen != nil {
		return p.gen
	}
	g := &generation[Req, Resp]{
		jobs:    make(chan job[Req], queueSize),
		results: make(chan result[Resp]),
		crash:   make(chan error, p.size),
		quit:    make(chan struct{}),
	}
	for i := 0; i < p.size; i++ {
		go p.work(g)
	}
	go p.dispatch(g)
	p.gen = g
	glg.Debugf("worker %s: started %d goroutines", p.name, p.size)
	return g
}

func (p *Pool[Req, Resp]) work(g *generation[Req, Resp]) {
	for {
		select {
		case j := <-g.jobs:
			r, crashed := p.run(j)
			if crashed != nil {
				g.crash <- crashed
				return
			}
			select {
			case g.results <- r:
			case <-g.quit:
				return
			}
		case <-g.quit:
			return
		}
	}
}

func (p *Pool[Req, Resp]) run(j job[Req]) (r result[Resp], crashed error) {
	defer func() {
		if v := recover(); v != nil {
			glg.Errorf("worker %s: panic handling %s: %v\n%s", p.name, j.id, v, debug.Stack())
			crashed = fmt.Errorf("%v", v)
		}
	}()
	resp, err := p.handler(j.req)
	return result[Resp]{id: j.id, resp: resp, err: err}, nil
}

func (p *Pool[Req, Resp]) dispatch(g *generation[Req, Resp]) {
	for {
		select {
		case r := <-g.results:
			p.resolve(r)
		case err := <-g.crash:
			p.fail(g, err)
			return
		case <-g.quit:
			return
		}
	}
}

func (p *Pool[Req, Resp]) resolve(r result[Resp]) {
	p.mu.Lock()
	ch, ok := p.pending[r.id]
	delete(p.pending, r.id)
	p.mu.Unlock()
	if !ok {
		glg.Debugf("worker %s: dropping response for unknown id %s", p.name, r.id)
		return
	}
	ch <- r
}

func (p *Pool[Req, Resp]) fail(g *generation[Req, Resp], cause error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// A generation already replaced or terminated has had its pending
	// requests rejected; the current ones belong to its successor.
	if p.gen != g {
		return
	}
	close(g.quit)
	p.gen = nil
	p.rejectAll(fmt.Errorf("worker error: %w", cause))
}

// rejectAll must be called with p.mu held.
func (p *Pool[Req, Resp]) rejectAll(err error) {
	for id, ch := range p.pending {
		ch <- result[Resp]{id: id, err: err}
		delete(p.pending, id)
	}
}

func (p *Pool[Req, Resp]) forget(id string) {
	p.mu.Lock()
	delete(p.pending, id)
	p.mu.Unlock()
}
