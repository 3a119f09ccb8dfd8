package ps2

import "time"

// Config holds the engine configuration.
type Config struct {
	// ReadTimeout bounds how long Read blocks waiting for a byte.
	ReadTimeout time.Duration

	// WriteTimeout bounds how long Write waits for the device to clock out
	// the frame and deliver its acknowledgment.
	WriteTimeout time.Duration

	// ClockInhibit is how long the clock line is held low to request the
	// bus before a write. The protocol requires at least 100µs.
	ClockInhibit time.Duration

	// QueueSize is the capacity of the received-byte queue used when no
	// callback is enabled.
	QueueSize int

	// Logger receives protocol events (optional).
	Logger Logger
}

func defaultConfig() Config {
	return Config{
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 500 * time.Millisecond,
		ClockInhibit: 110 * time.Microsecond,
		QueueSize:    64,
		Logger:       nopLogger{},
	}
}

// Option is a functional option for configuring the Engine.
type Option func(*Config)

// WithReadTimeout sets how long Read blocks before failing with
// ErrReadTimeout.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = timeout
	}
}

// WithWriteTimeout sets how long Write waits for the device to complete the
// transaction.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.WriteTimeout = timeout
	}
}

// WithClockInhibit sets the bus-request hold time used when initiating a
// write. Values below the protocol minimum of 100µs are rejected by New.
func WithClockInhibit(d time.Duration) Option {
	return func(c *Config) {
		c.ClockInhibit = d
	}
}

// WithQueueSize sets the capacity of the received-byte queue.
func WithQueueSize(n int) Option {
	return func(c *Config) {
		c.QueueSize = n
	}
}

// WithLogger sets a logger for protocol events.
//
// Example:
//
//	engine, err := ps2.New(hw, ps2.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
