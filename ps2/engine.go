package ps2

import (
	"errors"
	"fmt"
	"sync"

	"github.com/LegendOfPeanuts/zmk/hal"
)

// Mode says which state machine currently owns interpretation of clock
// edges. Reads are the default; the engine only enters ModeWrite for the
// duration of one host-to-device transaction.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

// readState accumulates one incoming frame, one bit per falling edge.
type readState struct {
	partial byte
	pos     int
}

// writeState holds one outgoing frame and the next bit to drive.
type writeState struct {
	frame uint16
	pos   int
}

// Engine is the protocol engine for a single PS/2 port.
//
// mode, read and write are shared between the edge handler context and
// ordinary goroutines (write initiation, recovery); mu guards all three.
// Everything else is either immutable after New or owns its own locking.
type Engine struct {
	hw  hal.HWHandler
	cfg Config
	log Logger

	mu    sync.Mutex
	mode  Mode
	read  readState
	write writeState

	// writeMu serializes writers for a whole transaction, including the
	// wait for the device's acknowledgment.
	writeMu sync.Mutex
	ackCh   chan bool

	delivery *delivery

	resendCh chan struct{}
	quit     chan struct{}
	done     chan struct{}
	closed   bool
}

// New creates an engine on top of hw, binds the clock edge callback and
// starts the recovery worker. The data and clock lines are released so the
// device can transmit immediately.
func New(hw hal.HWHandler, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ClockInhibit < minClockInhibit {
		return nil, &ConfigError{Op: "validate config", Err: fmt.Errorf("clock inhibit %s below protocol minimum %s", cfg.ClockInhibit, minClockInhibit)}
	}
	if cfg.QueueSize <= 0 {
		return nil, &ConfigError{Op: "validate config", Err: fmt.Errorf("queue size %d must be positive", cfg.QueueSize)}
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}

	e := &Engine{
		hw:       hw,
		cfg:      cfg,
		log:      cfg.Logger,
		mode:     ModeRead,
		ackCh:    make(chan bool, 1),
		delivery: newDelivery(cfg.QueueSize, cfg.Logger),
		resendCh: make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if err := hw.RegisterEdgeCallback(e.handleEdge); err != nil {
		return nil, &ConfigError{Op: "register clock edge callback", Err: err}
	}

	// Idle bus: both lines released to the pull-ups.
	hw.WriteSDA(1)
	hw.WriteSCL(1)

	go e.recoveryLoop()

	return e, nil
}

// handleEdge is the single entry point for clock line interrupts. Routing
// depends only on the current mode: falling edges shift bits, rising edges
// matter solely for the final ack of a write.
func (e *Engine) handleEdge(edge hal.Edge) {
	switch edge {
	case hal.EdgeFalling:
		e.handleFallingEdge()
	case hal.EdgeRising:
		e.handleRisingEdge()
	}
}

func (e *Engine) handleFallingEdge() {
	e.mu.Lock()
	if e.mode == ModeRead {
		b, deliver, abort := e.readBit()
		e.mu.Unlock()
		if abort {
			e.requestResend()
		}
		if deliver {
			e.delivery.put(b)
		}
		return
	}
	e.writeBit()
	e.mu.Unlock()
}

func (e *Engine) handleRisingEdge() {
	e.mu.Lock()
	if e.mode != ModeWrite || e.write.pos != posAck {
		e.mu.Unlock()
		return
	}
	ack := e.checkWriteAck()
	// Hand the result to the waiting Write while still holding the lock,
	// so a result can never land in a transaction that drained the
	// channel afterwards. The channel is buffered and drained at
	// initiation, so this cannot block the edge handler.
	select {
	case e.ackCh <- ack:
	default:
	}
	e.mu.Unlock()
}

// requestResend nudges the recovery worker to transmit the resend command.
// Called from edge handler context, so it must not block; a request already
// pending covers this frame too.
func (e *Engine) requestResend() {
	select {
	case e.resendCh <- struct{}{}:
	default:
	}
}

// recoveryLoop performs the blocking part of abort-and-recover outside of
// edge handler context. Resend failures are logged and dropped: recovery
// has already resynchronized the read state, the retransmission is only a
// courtesy to the consumer.
func (e *Engine) recoveryLoop() {
	defer close(e.done)
	for {
		select {
		case <-e.quit:
			return
		case <-e.resendCh:
			if err := e.Write(cmdResend); err != nil {
				e.log.Error("resend request failed", "err", err)
			}
		}
	}
}

// Configure registers cb as the receive callback and enables it, switching
// delivery away from the queue. It mirrors the driver configure entry
// point: a nil callback is a configuration error.
func (e *Engine) Configure(cb Callback) error {
	if cb == nil {
		return &ConfigError{Op: "configure callback", Err: errors.New("callback is nil")}
	}
	e.delivery.setCallback(cb)
	return nil
}

// ClearCallback unregisters the receive callback; delivery reverts to the
// queue until a new callback is configured.
func (e *Engine) ClearCallback() {
	e.delivery.clearCallback()
	e.log.Debug("callback cleared")
}

// EnableCallback resumes callback delivery if a callback is registered.
// Bytes queued in the meantime are stale and are discarded.
func (e *Engine) EnableCallback() {
	e.delivery.enable()
	e.log.Debug("callback delivery enabled")
}

// DisableCallback pauses callback delivery; received bytes queue up for
// Read instead.
func (e *Engine) DisableCallback() {
	e.delivery.disable()
	e.log.Debug("callback delivery disabled")
}

// Read blocks until the device delivers a byte or the read timeout
// expires, in which case it returns ErrReadTimeout.
func (e *Engine) Read() (byte, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	return e.delivery.get(e.cfg.ReadTimeout)
}

// Close stops the recovery worker and releases the GPIO lines. The engine
// must not be used afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	close(e.quit)
	<-e.done
	return e.hw.Close()
}
