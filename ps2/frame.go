package ps2

import "math/bits"

// Bit positions within a PS/2 frame. Data bits occupy positions 1-8, LSB
// first. The ack position exists only for host-to-device writes and is
// sampled from the device rather than transmitted.
const (
	posStart  = 0
	posParity = 9
	posStop   = 10
	posAck    = 11
)

// cmdResend asks the device to retransmit its last byte.
const cmdResend byte = 0xFE

// parityOf returns the PS/2 parity bit for b. PS/2 uses odd parity: the
// transmitted bit is chosen so that the nine bits of data plus parity
// contain an odd number of ones.
func parityOf(b byte) int {
	return bits.OnesCount8(b)&1 ^ 1
}

// checkParity reports whether the parity bit sampled from the wire matches
// the parity expected for b.
func checkParity(b byte, parityBit int) bool {
	return parityOf(b) == parityBit
}

// encodeWriteFrame lays out b as a host-to-device frame: start bit, data
// bits LSB first, parity and stop bit. Bit 11 is left clear; it is the ack
// slot and is never driven by the host.
func encodeWriteFrame(b byte) uint16 {
	var frame uint16
	for i := 0; i < 8; i++ {
		frame |= uint16(b>>i&1) << (i + 1)
	}
	frame |= uint16(parityOf(b)) << posParity
	frame |= 1 << posStop
	return frame
}

// frameBit extracts the bit at pos from an encoded frame.
func frameBit(frame uint16, pos int) int {
	return int(frame >> pos & 1)
}
