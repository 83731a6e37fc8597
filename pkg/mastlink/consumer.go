// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import (
	"sync"
	"sync/atomic"
	"time"
)

// A consumer receives the payload of a validated response frame matching its
// signature.
type consumer interface {
	signature() signature
	deliver(payload []byte, log Logger)
}

// waiter is a one-shot consumer registered for the duration of a single
// DoCommand call. The read loop fills its result slot; the dispatcher blocks
// on it up to the request timeout.
type waiter struct {
	spec   *CommandSpec
	cid    byte
	result chan Fields // buffered, single slot
}

func newWaiter(spec *CommandSpec, cid byte) *waiter {
	return &waiter{spec: spec, cid: cid, result: make(chan Fields, 1)}
}

func (w *waiter) signature() signature {
	return signature{cid: w.cid, instruction: w.spec.responseInstruction}
}

func (w *waiter) deliver(payload []byte, log Logger) {
	fields, err := w.spec.consumeResponse(payload)
	if err != nil {
		log.Warn("incomplete response payload", "signature", w.signature().String(), "error", err)
	}
	select {
	case w.result <- fields:
	default:
		// Slot already filled by a duplicate reply; drop it.
	}
}

// BackgroundConsumer is a persistent listener for unsolicited push frames
// (events, errors, module-initialize notifications). It lives for the
// lifetime of the engine; the read loop only enqueues, and a dedicated
// delivery goroutine invokes the callback so a slow or faulty callback can
// never stall request/response traffic.
type BackgroundConsumer struct {
	spec     *CommandSpec
	cid      byte
	callback func(Fields)

	queue   chan Fields
	dropped atomic.Uint64

	startOnce sync.Once
}

// defaultQueueSize bounds the per-consumer delivery queue.
const defaultQueueSize = 64

// callbackBackoff is how long delivery pauses after a callback panic.
const callbackBackoff = time.Second

// NewBackgroundConsumer creates a background consumer for unsolicited frames
// carrying the given spec's response instruction and correlation ID (0 for
// broadcast traffic).
func NewBackgroundConsumer(spec *CommandSpec, cid byte, callback func(Fields)) *BackgroundConsumer {
	return &BackgroundConsumer{
		spec:     spec,
		cid:      cid,
		callback: callback,
		queue:    make(chan Fields, defaultQueueSize),
	}
}

func (c *BackgroundConsumer) signature() signature {
	return signature{cid: c.cid, instruction: c.spec.responseInstruction}
}

func (c *BackgroundConsumer) deliver(payload []byte, log Logger) {
	fields, err := c.spec.consumeResponse(payload)
	if err != nil {
		log.Warn("incomplete push payload", "signature", c.signature().String(), "error", err)
	}
	select {
	case c.queue <- fields:
	default:
		c.dropped.Add(1)
		log.Warn("background consumer queue full, dropping frame",
			"signature", c.signature().String(), "dropped", c.dropped.Load())
	}
}

// Dropped reports how many frames were discarded because the delivery queue
// was full.
func (c *BackgroundConsumer) Dropped() uint64 {
	return c.dropped.Load()
}

// run drains the delivery queue until done is closed. Callback panics are
// logged and followed by a fixed backoff; delivery never terminates on
// callback failure.
func (c *BackgroundConsumer) run(done <-chan struct{}, log Logger) {
	for {
		select {
		case <-done:
			return
		case fields := <-c.queue:
			c.invoke(fields, log)
		}
	}
}

func (c *BackgroundConsumer) invoke(fields Fields, log Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("background consumer callback panicked",
				"signature", c.signature().String(), "panic", r)
			time.Sleep(callbackBackoff)
		}
	}()
	c.callback(fields)
}

// registry maps response signatures to the consumers waiting for them.
// Multiple consumers may share a signature (a background consumer plus,
// transiently, a waiter); unregister removes exactly the matching instance.
type registry struct {
	mu        sync.Mutex
	consumers map[signature][]consumer
}

func newRegistry() *registry {
	return &registry{consumers: make(map[signature][]consumer)}
}

func (r *registry) register(c consumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sig := c.signature()
	r.consumers[sig] = append(r.consumers[sig], c)
}

func (r *registry) unregister(c consumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sig := c.signature()
	list := r.consumers[sig]
	for i, candidate := range list {
		if candidate == c {
			r.consumers[sig] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(r.consumers[sig]) == 0 {
		delete(r.consumers, sig)
	}
}

// matching returns a snapshot of the consumers registered for sig.
func (r *registry) matching(sig signature) []consumer {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.consumers[sig]
	out := make([]consumer, len(list))
	copy(out, list)
	return out
}
