//go:build linux && !tinygo

// Package linux implements the PS/2 GPIO line abstraction on top of the
// Linux GPIO character device (/dev/gpiochipN).
//
// Both lines are requested as inputs with pull-up bias. Driving a line low
// reconfigures it as an open-drain output; releasing it reconfigures it
// back to an input. Clock edge events are delivered in order on the
// gpiocdev event goroutine, which stands in for interrupt context here.
package linux

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"github.com/LegendOfPeanuts/zmk/hal"
)

// HWHandler drives one PS/2 port through two GPIO character device lines.
type HWHandler struct {
	scl *gpiocdev.Line
	sda *gpiocdev.Line

	mu       sync.Mutex
	cb       hal.EdgeCallback
	sclLevel int
	sdaLevel int
}

// NewHWHandler requests the clock and data lines on the given chip (for
// example "gpiochip0" or a /dev path) and binds both-edge event reporting
// on the clock line.
func NewHWHandler(chip string, sclOffset, sdaOffset int) (*HWHandler, error) {
	h := &HWHandler{sclLevel: 1, sdaLevel: 1}

	scl, err := gpiocdev.RequestLine(chip, sclOffset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(h.handleEvent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to request SCL line %d on %s: %w", sclOffset, chip, err)
	}
	h.scl = scl

	sda, err := gpiocdev.RequestLine(chip, sdaOffset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
	)
	if err != nil {
		scl.Close()
		return nil, fmt.Errorf("failed to request SDA line %d on %s: %w", sdaOffset, chip, err)
	}
	h.sda = sda

	return h, nil
}

func (h *HWHandler) handleEvent(evt gpiocdev.LineEvent) {
	h.mu.Lock()
	cb := h.cb
	h.mu.Unlock()
	if cb == nil {
		return
	}
	switch evt.Type {
	case gpiocdev.LineEventFallingEdge:
		cb(hal.EdgeFalling)
	case gpiocdev.LineEventRisingEdge:
		cb(hal.EdgeRising)
	}
}

// RegisterEdgeCallback binds cb to clock line edge events. Only one
// callback may be registered per handler.
func (h *HWHandler) RegisterEdgeCallback(cb hal.EdgeCallback) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cb != nil {
		return errors.New("edge callback already registered")
	}
	h.cb = cb
	return nil
}

func (h *HWHandler) ReadSCL() int { return h.readLine(h.scl) }
func (h *HWHandler) ReadSDA() int { return h.readLine(h.sda) }

func (h *HWHandler) readLine(l *gpiocdev.Line) int {
	v, err := l.Value()
	if err != nil {
		// A failed sample reads as 0, which the engine surfaces as a
		// framing error and recovers from.
		return 0
	}
	return v
}

// WriteSCL pulls the clock line low (0) or releases it (1).
func (h *HWHandler) WriteSCL(level int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if level == h.sclLevel {
		return
	}
	h.sclLevel = level
	h.reconfigure(h.scl, level, true)
}

// WriteSDA pulls the data line low (0) or releases it (1).
func (h *HWHandler) WriteSDA(level int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if level == h.sdaLevel {
		return
	}
	h.sdaLevel = level
	h.reconfigure(h.sda, level, false)
}

// reconfigure switches a line between released input and open-drain output
// low. A reconfigure failure has no caller to surface to; the engine
// observes the stuck line as a framing or write failure and recovers.
func (h *HWHandler) reconfigure(l *gpiocdev.Line, level int, edges bool) {
	switch {
	case level == 0:
		_ = l.Reconfigure(gpiocdev.AsOutput(0), gpiocdev.AsOpenDrain)
	case edges:
		_ = l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithBothEdges)
	default:
		_ = l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp)
	}
}

// Close releases both lines.
func (h *HWHandler) Close() error {
	h.mu.Lock()
	h.cb = nil
	h.mu.Unlock()
	sclErr := h.scl.Close()
	sdaErr := h.sda.Close()
	if sclErr != nil {
		return sclErr
	}
	return sdaErr
}
