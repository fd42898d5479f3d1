// Package lanes runs jobs in per-key FIFO order. Jobs sharing a key (a Telegram user)
// never overlap and keep their submission order; different keys run concurrently.
package lanes

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/m3rciful/intakebot/core/logger"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("lanes: closed")

type lane struct {
	queue []func()
}

// Lanes owns one worker goroutine per key with pending jobs. A worker exits once its
// queue drains, so idle keys cost nothing.
type Lanes struct {
	mu     sync.Mutex
	lanes  map[int64]*lane
	closed bool
	wg     sync.WaitGroup
}

// New returns an empty set of lanes.
func New() *Lanes {
	return &Lanes{lanes: make(map[int64]*lane)}
}

// Submit appends job to the key's lane. It never blocks on the job itself.
func (l *Lanes) Submit(key int64, job func()) error {
	if job == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if ln, ok := l.lanes[key]; ok {
		ln.queue = append(ln.queue, job)
		return nil
	}
	ln := &lane{queue: []func(){job}}
	l.lanes[key] = ln
	l.wg.Add(1)
	go l.drain(key, ln)
	return nil
}

func (l *Lanes) drain(key int64, ln *lane) {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		if len(ln.queue) == 0 {
			delete(l.lanes, key)
			l.mu.Unlock()
			return
		}
		job := ln.queue[0]
		ln.queue[0] = nil
		ln.queue = ln.queue[1:]
		l.mu.Unlock()

		run(key, job)
	}
}

func run(key int64, job func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(logger.Background(), "tg", "lane.panic",
				slog.Int64("user_id", key),
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	job()
}

// Active reports how many keys currently have queued or running jobs.
func (l *Lanes) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lanes)
}

// Close rejects new jobs and waits until every queued job has run.
func (l *Lanes) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
}
