package ps2

import (
	"errors"
	"fmt"
)

// ErrReadTimeout indicates that no byte arrived within the configured read
// timeout. It is the only failure a Read consumer can observe.
var ErrReadTimeout = errors.New("ps2: read timed out")

// ErrWriteTimeout indicates that the device never clocked out the full
// write transaction. The engine has already been forced back to read mode.
var ErrWriteTimeout = errors.New("ps2: write timed out waiting for device clock")

// ErrWriteNotAcknowledged indicates that the device sampled the written
// byte but rejected it. The engine does not retry; callers decide.
var ErrWriteNotAcknowledged = errors.New("ps2: write not acknowledged by device")

// ErrClosed is returned by operations on an engine after Close.
var ErrClosed = errors.New("ps2: engine closed")

// ConfigError indicates an invalid configuration at setup time: a nil
// callback, a bad option value or a failed line binding. It is fatal to the
// call that produced it and never retried internally.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ps2: %s: %s", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
