package ps2

import (
	"sync"
	"time"
)

// Callback receives bytes as they complete framing. It runs in the same
// execution context as the clock edge handler, so it must be short and must
// not block or call back into the engine's blocking operations.
type Callback func(b byte)

// deliveryMode selects exactly one delivery discipline at a time.
type deliveryMode int

const (
	deliverQueued deliveryMode = iota
	deliverCallback
)

// delivery hands completed bytes from the edge handler context to the
// consumer, either through the registered callback or through a bounded
// queue drained by Read.
type delivery struct {
	mu    sync.Mutex
	mode  deliveryMode
	cb    Callback
	queue chan byte
	log   Logger
}

func newDelivery(queueSize int, log Logger) *delivery {
	return &delivery{
		mode:  deliverQueued,
		queue: make(chan byte, queueSize),
		log:   log,
	}
}

// setCallback registers cb and switches to callback delivery, discarding
// any bytes queued while no consumer was attached.
func (d *delivery) setCallback(cb Callback) {
	d.mu.Lock()
	d.cb = cb
	d.mode = deliverCallback
	d.flushLocked()
	d.mu.Unlock()
}

// clearCallback unregisters the callback and reverts to queued delivery.
func (d *delivery) clearCallback() {
	d.mu.Lock()
	d.cb = nil
	d.mode = deliverQueued
	d.flushLocked()
	d.mu.Unlock()
}

// enable resumes callback delivery if a callback is registered. Pending
// queued bytes are stale by definition and are dropped.
func (d *delivery) enable() {
	d.mu.Lock()
	if d.cb != nil {
		d.mode = deliverCallback
	}
	d.flushLocked()
	d.mu.Unlock()
}

// disable pauses callback delivery; subsequent bytes go to the queue. The
// queue is flushed so a later enable cannot replay stale data.
func (d *delivery) disable() {
	d.mu.Lock()
	d.mode = deliverQueued
	d.flushLocked()
	d.mu.Unlock()
}

func (d *delivery) flushLocked() {
	for {
		select {
		case <-d.queue:
		default:
			return
		}
	}
}

// put hands b to the consumer. Called from edge handler context: it never
// blocks. When the queue is full the oldest pending byte is dropped in
// favor of the new one.
func (d *delivery) put(b byte) {
	d.mu.Lock()
	if d.mode == deliverCallback {
		cb := d.cb
		d.mu.Unlock()
		cb(b)
		return
	}
	for {
		select {
		case d.queue <- b:
			d.mu.Unlock()
			return
		default:
		}
		select {
		case old := <-d.queue:
			d.log.Error("receive queue full, dropping oldest byte", "byte", old)
		default:
		}
	}
}

// get blocks until a byte is available or the timeout expires.
func (d *delivery) get(timeout time.Duration) (byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case b := <-d.queue:
		return b, nil
	case <-timer.C:
		return 0, ErrReadTimeout
	}
}
