package ps2

// readBit consumes one sampled data bit on a clock falling edge while in
// read mode. It returns the completed byte with deliver=true when a frame
// finished cleanly, or abort=true when framing was violated and recovery
// is needed. Caller holds e.mu and performs delivery and the resend
// request after releasing it.
func (e *Engine) readBit() (b byte, deliver bool, abort bool) {
	sda := e.hw.ReadSDA()

	switch e.read.pos {
	case posStart:
		// The first bit of every transmission must be 0. Anything else
		// means we are out of sync with the device, so the frame is
		// abandoned and a retransmission requested.
		if sda != 0 {
			e.log.Error("restarting receive: invalid start bit", "sda", sda)
			e.abortRead()
			return 0, false, true
		}
	case posParity:
		if !checkParity(e.read.partial, sda) {
			e.log.Error("restarting receive: invalid parity bit", "byte", e.read.partial, "parity", sda)
			e.abortRead()
			return 0, false, true
		}
	case posStop:
		if sda != 1 {
			e.log.Error("restarting receive: invalid stop bit", "byte", e.read.partial)
			e.abortRead()
			return 0, false, true
		}
		b = e.read.partial
		e.read = readState{}
		e.log.Debug("received byte", "byte", b)
		return b, true, false
	default:
		// Data bits: positions 1-8 map to byte bits 0-7.
		e.read.partial |= byte(sda) << (e.read.pos - 1)
	}

	e.read.pos++
	return 0, false, false
}

// abortRead resets the read accumulator so the next falling edge is
// interpreted as a start bit again. The resend command itself is issued by
// the recovery worker, not here.
func (e *Engine) abortRead() {
	e.read = readState{}
}
