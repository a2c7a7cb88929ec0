/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package persist writes store mutations to storage collaborators behind the
// interaction loop. Changes are coalesced per node (the latest state wins) and
// flushed after a quiet period, so a drag that moves a node a hundred times
// costs a single upsert. Only nodes that changed are written.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"travelcanvas/internal/domain"
	applog "travelcanvas/internal/log"
)

const (
	DefaultDelay = 2 * time.Second
	// A steady stream of changes is flushed at least every maxWaitFactor*Delay.
	maxWaitFactor = 5
	flushTimeout  = 30 * time.Second
	// Retries after failed flushes back off from Delay up to maxRetryDelay.
	maxRetryDelay = time.Minute
	errBuffer     = 16
)

// Sink is a storage collaborator. Both calls must be idempotent: a failed
// batch is retried as a whole on the next flush.
type Sink interface {
	UpsertNodes(ctx context.Context, nodes []domain.Node) error
	DeleteNodes(ctx context.Context, ids []string) error
}

type op struct {
	node    domain.Node
	deleted bool
}

// Writer implements store.Persister.
type Writer struct {
	sinks []Sink
	delay time.Duration
	log   *slog.Logger
	errs  chan error

	mu      sync.Mutex
	pending map[string]op
	first   time.Time // when the oldest pending change arrived
	timer   *time.Timer
	retry   time.Duration // wait before the next retry, zero after a success
	closed  bool

	flushMu sync.Mutex
}

// NewWriter returns a writer flushing to sinks after delay of inactivity
// (DefaultDelay when <= 0).
func NewWriter(delay time.Duration, sinks ...Sink) *Writer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Writer{
		sinks:   sinks,
		delay:   delay,
		log:     applog.WithComponent("persist"),
		errs:    make(chan error, errBuffer),
		pending: map[string]op{},
	}
}

// Errors reports failed flushes. Errors are dropped while nobody drains it.
func (w *Writer) Errors() <-chan error { return w.errs }

func (w *Writer) NodeChanged(n domain.Node) { w.enqueue(n.ID, op{node: n}) }

func (w *Writer) NodeRemoved(id string) { w.enqueue(id, op{deleted: true}) }

// Pending returns the number of nodes waiting to be written.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *Writer) enqueue(id string, o op) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.log.Warn("change after close dropped", slog.String("node", id))
		return
	}
	now := time.Now()
	if len(w.pending) == 0 {
		w.first = now
	}
	w.pending[id] = o
	w.scheduleLocked(now)
}

func (w *Writer) scheduleLocked(now time.Time) {
	wait := w.delay
	if deadline := w.first.Add(maxWaitFactor * w.delay); deadline.Sub(now) < wait {
		wait = deadline.Sub(now)
		if wait < 0 {
			wait = 0
		}
	}
	if w.timer == nil {
		w.timer = time.AfterFunc(wait, w.flushInBackground)
		return
	}
	w.timer.Reset(wait)
}

func (w *Writer) flushInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	_ = w.Flush(ctx)
}

// Flush writes everything pending now. Failed batches are re-queued unless a
// newer change for the same node arrived in the meantime.
func (w *Writer) Flush(ctx context.Context) error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	batch := w.pending
	w.pending = map[string]op{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}

	ids := make([]string, 0, len(batch))
	for id := range batch {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var upserts []domain.Node
	var deletes []string
	for _, id := range ids {
		if o := batch[id]; o.deleted {
			deletes = append(deletes, id)
		} else {
			upserts = append(upserts, o.node)
		}
	}

	var errs []error
	for _, s := range w.sinks {
		if len(upserts) > 0 {
			if err := s.UpsertNodes(ctx, upserts); err != nil {
				errs = append(errs, fmt.Errorf("upsert %d nodes: %w", len(upserts), err))
			}
		}
		if len(deletes) > 0 {
			if err := s.DeleteNodes(ctx, deletes); err != nil {
				errs = append(errs, fmt.Errorf("delete %d nodes: %w", len(deletes), err))
			}
		}
	}
	if len(errs) == 0 {
		w.mu.Lock()
		w.retry = 0
		w.mu.Unlock()
		w.log.Debug("flushed", slog.Int("upserts", len(upserts)), slog.Int("deletes", len(deletes)))
		return nil
	}

	err := errors.Join(errs...)
	w.requeue(batch)
	w.log.Error("persist failed", slog.Any("err", err), slog.Int("nodes", len(batch)))
	select {
	case w.errs <- err:
	default:
	}
	return err
}

func (w *Writer) requeue(batch map[string]op) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		w.first = time.Now()
	}
	for id, o := range batch {
		if _, newer := w.pending[id]; !newer {
			w.pending[id] = o
		}
	}
	if w.closed {
		return
	}
	w.retry = min(max(2*w.retry, w.delay), maxRetryDelay)
	if w.timer == nil {
		w.timer = time.AfterFunc(w.retry, w.flushInBackground)
		return
	}
	w.timer.Reset(w.retry)
}

// Close stops scheduling and performs a final flush. Later changes are dropped.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.Flush(ctx)
}
