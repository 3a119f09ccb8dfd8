// Package ps2 implements the PS/2 host side protocol in software by
// bit-banging a clock and a data GPIO line.
//
// The protocol engine is edge driven: the peripheral device owns the clock,
// and every clock edge invokes a handler that shifts one bit of a framed
// byte in or out. A frame is 11 bits on the wire: a start bit (0), eight
// data bits LSB first, an odd parity bit and a stop bit (1). Host-to-device
// writes are followed by a twelfth, device-driven acknowledgment bit.
//
// An Engine owns all protocol state for one port and is created with New,
// passing a hal.HWHandler for the platform's GPIO lines. Received bytes are
// consumed either synchronously with Read, or asynchronously through a
// callback registered with Configure. Write transmits a byte to the device
// and reports the device's acknowledgment.
//
// Framing errors during reception are recovered internally: the engine
// resets its bit position, asks the device to retransmit (command 0xFE) and
// logs the event. Consumers only ever observe successfully framed bytes or
// a read timeout.
package ps2
