package ps2

import "time"

// minClockInhibit is the protocol minimum for holding the clock low to
// request the bus before a write.
const minClockInhibit = 100 * time.Microsecond

// Write transmits b to the device and reports its acknowledgment. It is
// safe for concurrent use; transactions are serialized. A rejected byte
// returns ErrWriteNotAcknowledged and is not retried here, so callers can
// layer their own retry policy. A device that stops clocking returns
// ErrWriteTimeout after the engine has been forced back to read mode.
func (e *Engine) Write(b byte) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.mu.Unlock()

	frame := encodeWriteFrame(b)

	// Bus request: inhibiting the clock tells the device to stop driving
	// it and wait for our transmission. No edges arrive while it is held.
	e.hw.WriteSCL(0)
	time.Sleep(e.cfg.ClockInhibit)

	e.mu.Lock()
	// Writes preempt reads: any partially received frame is discarded.
	if e.read.pos > 0 {
		e.log.Debug("write preempts in-flight read", "pos", e.read.pos)
	}
	e.mode = ModeWrite
	e.read = readState{}
	e.write = writeState{frame: frame}

	// Drain a stale ack result from an earlier timed-out transaction.
	select {
	case <-e.ackCh:
	default:
	}

	// Drive the start bit, then release the clock. From here the device
	// clocks the remaining bits out of us via falling edge interrupts.
	e.hw.WriteSDA(frameBit(frame, posStart))
	e.write.pos = 1
	e.hw.WriteSCL(1)
	e.mu.Unlock()

	timer := time.NewTimer(e.cfg.WriteTimeout)
	defer timer.Stop()
	select {
	case ack := <-e.ackCh:
		if !ack {
			e.log.Error("device rejected written byte", "byte", b)
			return ErrWriteNotAcknowledged
		}
		e.log.Debug("write acknowledged", "byte", b)
		return nil
	case <-timer.C:
		// The device never finished clocking the frame. Reset so the
		// engine is not stuck in write mode forever.
		e.mu.Lock()
		e.mode = ModeRead
		e.write = writeState{}
		e.mu.Unlock()
		e.hw.WriteSDA(1)
		return ErrWriteTimeout
	}
}

// writeBit drives the next frame bit on a clock falling edge while in
// write mode. Caller holds e.mu.
func (e *Engine) writeBit() {
	if e.write.pos > posStop {
		// Stop bit already driven; the ack is sampled on the rising edge.
		return
	}
	// Driving the stop bit (1) also releases the data line, which the
	// device then pulls low for the acknowledgment.
	bit := frameBit(e.write.frame, e.write.pos)
	e.hw.WriteSDA(bit)
	e.write.pos++
}

// checkWriteAck samples the device's acknowledgment on the rising edge
// following the stop bit and returns to read mode. Caller holds e.mu.
func (e *Engine) checkWriteAck() bool {
	ack := e.hw.ReadSDA() == 0
	e.write = writeState{}
	e.mode = ModeRead
	return ack
}
