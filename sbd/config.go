package sbd

import "time"

// Config holds the driver's configuration surface. It is assembled via
// ConfigBuilder and passed to New, and is immutable thereafter.
type Config struct {
	// Dialer opens the Transport. Required.
	Dialer Dialer

	// BaudRate is the serial speed used by SerialDialer. Ignored by dialers
	// that don't talk to a real serial port.
	BaudRate int

	// Debug, when true, causes the driver to emit "debug" events for
	// orphaned lines, swallowed parse failures, and other diagnostics that
	// would otherwise only be visible via the slog logger.
	Debug bool

	// DefaultTimeout bounds ordinary AT command round trips.
	DefaultTimeout time.Duration

	// SimpleTimeout bounds short commands such as AT+CIER=0,0,0.
	SimpleTimeout time.Duration

	// MaxAttempts bounds the number of SBDIX attempts a single
	// mailboxSend performs before surfacing KindMaxAttemptsExceeded.
	MaxAttempts int

	// MaxWait bounds how long waitForNetwork blocks for a signal-quality
	// indication. Zero or negative disables the timer entirely
	// (TimeoutForever).
	MaxWait time.Duration

	// Port is the device path used by SerialDialer.
	Port string

	// FlowControl, when true, makes SerialDialer assert the RTS line after
	// opening the port. This is the single on/off option available; the
	// port is not configured for RTS/CTS handshaking and no negotiation
	// beyond it is implemented.
	FlowControl bool
}

const (
	defaultBaudRate       = 19200
	defaultDefaultTimeout = 40 * time.Second
	defaultSimpleTimeout  = 2 * time.Second
	defaultMaxAttempts    = 5
)

func (c *Config) setDefaults() {
	if c.BaudRate == 0 {
		c.BaudRate = defaultBaudRate
	}
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = defaultDefaultTimeout
	}
	if c.SimpleTimeout == 0 {
		c.SimpleTimeout = defaultSimpleTimeout
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

// ConfigBuilder assembles a Config through chained With* calls
// (NewConfigBuilder().WithDialer(...).Build()).
type ConfigBuilder struct {
	cfg Config
}

// NewConfigBuilder returns an empty ConfigBuilder. Defaults are applied by
// Build, not here, so a zero-value ConfigBuilder{} used directly still
// produces a fully defaulted Config.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// WithDialer sets the Dialer used to open the Transport. Required.
func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.cfg.Dialer = d
	return b
}

// WithBaudRate sets the serial baud rate. Default 19200.
func (b *ConfigBuilder) WithBaudRate(baud int) *ConfigBuilder {
	b.cfg.BaudRate = baud
	return b
}

// WithDebug enables debug events.
func (b *ConfigBuilder) WithDebug(debug bool) *ConfigBuilder {
	b.cfg.Debug = debug
	return b
}

// WithDefaultTimeout sets the ceiling for ordinary AT commands. Default 40s.
func (b *ConfigBuilder) WithDefaultTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.DefaultTimeout = d
	return b
}

// WithSimpleTimeout sets the ceiling for short commands. Default 2s.
func (b *ConfigBuilder) WithSimpleTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.SimpleTimeout = d
	return b
}

// WithMaxAttempts sets the retry ceiling for mailboxSend. Default 5.
func (b *ConfigBuilder) WithMaxAttempts(n int) *ConfigBuilder {
	b.cfg.MaxAttempts = n
	return b
}

// WithMaxWait sets the waitForNetwork ceiling. Zero or negative disables
// the timer (block indefinitely for a signal-quality indication).
func (b *ConfigBuilder) WithMaxWait(d time.Duration) *ConfigBuilder {
	b.cfg.MaxWait = d
	return b
}

// WithPort sets the serial device path used by SerialDialer.
func (b *ConfigBuilder) WithPort(port string) *ConfigBuilder {
	b.cfg.Port = port
	return b
}

// WithFlowControl toggles the FlowControl option (RTS asserted on open).
func (b *ConfigBuilder) WithFlowControl(on bool) *ConfigBuilder {
	b.cfg.FlowControl = on
	return b
}

// Build validates and defaults the accumulated Config. It does not dial;
// dialing happens in New.
func (b *ConfigBuilder) Build() (Config, error) {
	cfg := b.cfg
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
