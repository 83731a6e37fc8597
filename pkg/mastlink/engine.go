// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Transport is the physical channel to the master, typically a serial port.
// It is owned by the surrounding process, not by the engine: the engine never
// closes it. Reads should return periodically (a serial read timeout is
// enough) so that Stop can terminate the read loop.
type Transport interface {
	io.Reader
	io.Writer
}

const (
	readBufferSize   = 512
	readRetryBackoff = 100 * time.Millisecond
)

type engineState int

const (
	engineNew engineState = iota
	engineRunning
	engineStopped
)

// Engine drives one master link: it serializes concurrent requests onto the
// transport, reassembles and routes replies, and delivers unsolicited push
// frames to background consumers. Construct one Engine per physical link.
type Engine struct {
	profile        Profile
	transport      Transport
	logger         Logger
	defaultTimeout time.Duration

	// dispatchMu makes "allocate CID, register waiter, write request" one
	// atomic sequence. Without it a racing reply could arrive before its
	// waiter is registered. Never held across a blocking wait.
	dispatchMu sync.Mutex
	writeMu    sync.Mutex

	cids     *cidPool
	registry *registry
	stats    *statistics
	debug    *debugWindow

	mu         sync.Mutex
	state      engineState
	done       chan struct{}
	group      *errgroup.Group
	background []*BackgroundConsumer
}

// Option configures an Engine.
type Option func(*Engine)

// WithProfile selects the framing profile. Defaults to CoreProfile.
func WithProfile(p Profile) Option {
	return func(e *Engine) { e.profile = p }
}

// WithLogger sets the engine logger. Defaults to slog.Default().
func WithLogger(l Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDefaultTimeout overrides the profile's default request timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Engine) { e.defaultTimeout = d }
}

// WithDebugWindow sets how long raw frame captures are retained.
func WithDebugWindow(d time.Duration) Option {
	return func(e *Engine) { e.debug = newDebugWindow(d) }
}

// New creates an engine for the given transport.
func New(transport Transport, opts ...Option) *Engine {
	e := &Engine{
		profile:   CoreProfile(),
		transport: transport,
		cids:      newCIDPool(),
		registry:  newRegistry(),
		stats:     &statistics{},
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = defaultLogger()
	}
	if e.debug == nil {
		e.debug = newDebugWindow(DefaultDebugWindow)
	}
	if e.defaultTimeout <= 0 {
		e.defaultTimeout = e.profile.DefaultTimeout
	}
	return e
}

// Start spawns the background read loop and the delivery workers of any
// already-registered background consumers.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case engineRunning:
		return errors.New("engine already started")
	case engineStopped:
		return ErrEngineStopped
	}
	e.state = engineRunning
	e.group = &errgroup.Group{}
	e.group.Go(e.readLoop)
	for _, c := range e.background {
		e.spawnDelivery(c)
	}
	return nil
}

// Stop terminates the read loop and all delivery workers and waits for them.
// Pending DoCommand calls fail with ErrEngineStopped.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state != engineRunning {
		e.mu.Unlock()
		return nil
	}
	e.state = engineStopped
	close(e.done)
	group := e.group
	e.mu.Unlock()
	return group.Wait()
}

func (e *Engine) running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == engineRunning
}

// RegisterBackgroundConsumer registers a persistent consumer for unsolicited
// push frames. Consumers live for the lifetime of the engine.
func (e *Engine) RegisterBackgroundConsumer(c *BackgroundConsumer) {
	e.registry.register(c)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.background = append(e.background, c)
	if e.state == engineRunning {
		e.spawnDelivery(c)
	}
}

// spawnDelivery starts the consumer's delivery worker exactly once.
// Caller holds e.mu.
func (e *Engine) spawnDelivery(c *BackgroundConsumer) {
	c.startOnce.Do(func() {
		done, log := e.done, e.logger
		e.group.Go(func() error {
			c.run(done, log)
			return nil
		})
	})
}

// DoCommand sends a command and blocks until the matching reply arrives or
// the default timeout expires.
func (e *Engine) DoCommand(ctx context.Context, spec *CommandSpec, fields Fields) (Fields, error) {
	return e.DoCommandTimeout(ctx, spec, fields, e.defaultTimeout)
}

// DoCommandTimeout is DoCommand with an explicit timeout. A timeout of zero
// falls back to the engine default.
//
// On timeout the waiter is unregistered and the correlation ID released
// before the error is returned, so the ID can be reused safely and a late
// reply can never be misdelivered to a stale waiter.
func (e *Engine) DoCommandTimeout(ctx context.Context, spec *CommandSpec, fields Fields, timeout time.Duration) (Fields, error) {
	if !e.running() {
		return nil, ErrEngineStopped
	}
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	payload, err := spec.buildRequest(fields)
	if err != nil {
		return nil, err
	}

	e.dispatchMu.Lock()
	cid, err := e.cids.allocate()
	if err != nil {
		e.dispatchMu.Unlock()
		return nil, err
	}
	w := newWaiter(spec, cid)
	e.registry.register(w)
	frame, err := EncodeFrame(e.profile, cid, spec.instruction, payload)
	if err == nil {
		err = e.write(frame)
	}
	e.dispatchMu.Unlock()
	if err != nil {
		e.registry.unregister(w)
		e.cids.release(cid)
		return nil, err
	}
	e.logger.Debug("request written", "signature", w.signature().String(), "bytes", len(frame))

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-w.result:
		e.cids.release(cid)
		e.stats.recordSuccess(time.Now())
		return result, nil
	case <-timer.C:
		e.registry.unregister(w)
		// A reply may have raced the timer; prefer it over failing.
		select {
		case result := <-w.result:
			e.cids.release(cid)
			e.stats.recordSuccess(time.Now())
			return result, nil
		default:
		}
		e.cids.release(cid)
		e.stats.recordTimeout(time.Now())
		return nil, fmt.Errorf("%w: no reply for %s within %s",
			ErrCommunicationTimedOut, w.signature().String(), timeout)
	case <-ctx.Done():
		e.registry.unregister(w)
		e.cids.release(cid)
		return nil, ctx.Err()
	case <-e.done:
		e.registry.unregister(w)
		e.cids.release(cid)
		return nil, ErrEngineStopped
	}
}

// DoBasicAction packs the four basic-action fields into a BA command.
func (e *Engine) DoBasicAction(ctx context.Context, actionType, action int, deviceNr, extraParameter int) (Fields, error) {
	e.logger.Info("executing basic action",
		"type", actionType, "action", action, "device_nr", deviceNr, "extra_parameter", extraParameter)
	return e.DoCommand(ctx, BasicAction(), Fields{
		"type":            actionType,
		"action":          action,
		"device_nr":       deviceNr,
		"extra_parameter": extraParameter,
	})
}

// write sends one encoded frame with exclusive access to the transport.
func (e *Engine) write(frame []byte) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.debug.recordWrite(frame, time.Now())
	n, err := e.transport.Write(frame)
	e.stats.addBytesWritten(n)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

// readLoop owns the inbound byte stream for the lifetime of the engine. It
// feeds the reassembler and routes validated frames to consumers. Transient
// transport errors end the current iteration, never the worker.
func (e *Engine) readLoop() error {
	buf := make([]byte, readBufferSize)
	reassembler := NewReassembler(e.profile)

	for {
		select {
		case <-e.done:
			return nil
		default:
		}

		n, err := e.transport.Read(buf)
		if n > 0 {
			e.stats.addBytesRead(n)
			before := reassembler.Stats()
			for _, frame := range reassembler.Push(buf[:n]) {
				e.debug.recordRead(frame.Raw, time.Now())
				e.deliver(frame)
			}
			if after := reassembler.Stats(); after != before {
				e.logger.Info("resynchronized after corrupted input",
					"discarded_bytes", after.DiscardedBytes,
					"checksum_errors", after.ChecksumErrors,
					"boundary_errors", after.BoundaryErrors,
					"length_errors", after.LengthErrors)
			}
		}
		if err != nil {
			select {
			case <-e.done:
				return nil
			default:
			}
			e.logger.Warn("transport read failed", "error", err)
			select {
			case <-e.done:
				return nil
			case <-time.After(readRetryBackoff):
			}
		}
	}
}

// deliver routes one validated frame to every consumer registered for its
// signature. One-shot waiters are unregistered after delivery.
func (e *Engine) deliver(frame *Frame) {
	sig := frame.signature()
	consumers := e.registry.matching(sig)
	if len(consumers) == 0 {
		e.logger.Debug("no consumer for frame", "signature", sig.String(), "payload_bytes", len(frame.Payload))
		return
	}
	for _, c := range consumers {
		c.deliver(frame.Payload, e.logger)
		if w, ok := c.(*waiter); ok {
			e.registry.unregister(w)
		}
	}
}

// Statistics returns a snapshot of the engine's communication statistics.
func (e *Engine) Statistics() Statistics {
	return e.stats.snapshot()
}

// DebugWindow returns the raw frames captured within the debug window.
func (e *Engine) DebugWindow() DebugSnapshot {
	return e.debug.snapshot(time.Now())
}
