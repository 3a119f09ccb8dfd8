//go:build tinygo

// Package pico implements the PS/2 GPIO line abstraction on RP2040 boards
// using the TinyGo machine package.
//
// Both pins are configured as inputs with the internal pull-up. Driving a
// line low switches the pin to output low; releasing it switches back to
// input, letting the pull-up raise the line. The clock interrupt fires on
// both edges and the edge direction is inferred from the sampled level.
package pico

import (
	"errors"
	"machine"

	"github.com/LegendOfPeanuts/zmk/hal"
)

// HWHandler drives one PS/2 port through two GPIO pins.
type HWHandler struct {
	scl machine.Pin
	sda machine.Pin
	cb  hal.EdgeCallback
}

// NewHWHandler configures scl and sda as pulled-up inputs.
func NewHWHandler(scl, sda machine.Pin) (*HWHandler, error) {
	h := &HWHandler{scl: scl, sda: sda}
	scl.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	sda.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return h, nil
}

// RegisterEdgeCallback binds cb to clock pin interrupts on both edges.
// The handler runs in interrupt context.
func (h *HWHandler) RegisterEdgeCallback(cb hal.EdgeCallback) error {
	if h.cb != nil {
		return errors.New("edge callback already registered")
	}
	h.cb = cb
	return h.scl.SetInterrupt(machine.PinToggle, func(p machine.Pin) {
		// The interrupt fires after the transition, so the level tells
		// us which edge occurred.
		if p.Get() {
			h.cb(hal.EdgeRising)
		} else {
			h.cb(hal.EdgeFalling)
		}
	})
}

func (h *HWHandler) ReadSCL() int { return levelOf(h.scl.Get()) }
func (h *HWHandler) ReadSDA() int { return levelOf(h.sda.Get()) }

// WriteSCL pulls the clock line low (0) or releases it (1).
func (h *HWHandler) WriteSCL(level int) { driveOpenDrain(h.scl, level) }

// WriteSDA pulls the data line low (0) or releases it (1).
func (h *HWHandler) WriteSDA(level int) { driveOpenDrain(h.sda, level) }

func driveOpenDrain(pin machine.Pin, level int) {
	if level == 0 {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
		return
	}
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
}

func levelOf(high bool) int {
	if high {
		return 1
	}
	return 0
}

// Close disables the clock interrupt and releases both lines.
func (h *HWHandler) Close() error {
	h.cb = nil
	err := h.scl.SetInterrupt(0, nil)
	driveOpenDrain(h.scl, 1)
	driveOpenDrain(h.sda, 1)
	return err
}
