package ps2

import (
	"sync"
	"testing"
	"time"

	"github.com/LegendOfPeanuts/zmk/hal"
)

// fakeHW implements hal.HWHandler in memory. Tests drive the registered
// edge callback synchronously, the way a platform interrupt would, and
// control the sampled data line directly.
type fakeHW struct {
	mu sync.Mutex
	cb hal.EdgeCallback

	scl int
	sda int

	sclWrites []int
	sdaWrites []int

	registerErr error
	closed      bool
}

func newFakeHW() *fakeHW {
	return &fakeHW{scl: 1, sda: 1}
}

func (f *fakeHW) RegisterEdgeCallback(cb hal.EdgeCallback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return f.registerErr
	}
	f.cb = cb
	return nil
}

func (f *fakeHW) ReadSCL() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scl
}

func (f *fakeHW) ReadSDA() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sda
}

func (f *fakeHW) WriteSCL(level int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scl = level
	f.sclWrites = append(f.sclWrites, level)
}

func (f *fakeHW) WriteSDA(level int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sda = level
	f.sdaWrites = append(f.sdaWrites, level)
}

func (f *fakeHW) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// setSDA simulates the device driving the data line.
func (f *fakeHW) setSDA(level int) {
	f.mu.Lock()
	f.sda = level
	f.mu.Unlock()
}

// fall and rise simulate clock edges, invoking the engine's handler in the
// caller's goroutine like a platform interrupt would.
func (f *fakeHW) fall() { f.edge(hal.EdgeFalling) }
func (f *fakeHW) rise() { f.edge(hal.EdgeRising) }

func (f *fakeHW) edge(e hal.Edge) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(e)
	}
}

func (f *fakeHW) lastSCL() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sclWrites) == 0 {
		return 0, false
	}
	return f.sclWrites[len(f.sclWrites)-1], true
}

func (f *fakeHW) sawSCLLow() bool {
	return f.sclLowCount() > 0
}

func (f *fakeHW) sclLowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.sclWrites {
		if l == 0 {
			n++
		}
	}
	return n
}

// frameBits returns the 11-bit wire sequence a device would clock out for
// b: start, data LSB first, parity, stop.
func frameBits(b byte) []int {
	bits := make([]int, 0, 11)
	bits = append(bits, 0)
	for i := 0; i < 8; i++ {
		bits = append(bits, int(b>>i&1))
	}
	bits = append(bits, parityOf(b))
	bits = append(bits, 1)
	return bits
}

// feedFrame clocks a bit sequence into the engine as if the device were
// transmitting it.
func feedFrame(f *fakeHW, bits []int) {
	for _, bit := range bits {
		f.setSDA(bit)
		f.fall()
	}
}

func (e *Engine) currentMode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// waitForReadMode blocks until the engine has returned to read mode with
// no write in flight, or fails the test.
func waitForReadMode(t *testing.T, e *Engine) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		e.mu.Lock()
		idle := e.mode == ModeRead && e.write.pos == 0
		e.mu.Unlock()
		if idle {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("engine did not return to read mode")
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestEngine(t *testing.T, f *fakeHW, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithReadTimeout(50 * time.Millisecond),
		WithWriteTimeout(20 * time.Millisecond),
	}
	e, err := New(f, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}
