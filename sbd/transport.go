package sbd

import (
	"context"
	"errors"
	"io"

	"go.bug.st/serial"
)

// Transport is an established, bidirectional byte stream to an Iridium SBD
// modem. It is opaque to protocol concerns: the driver never inspects
// anything about a Transport beyond the io.ReadWriteCloser contract.
//
//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=sbd
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to a modem. It abstracts how the connection is
// established (serial port, TCP-based emulator, test double) and is used
// only during driver construction.
type Dialer interface {
	// Dial returns a connected Transport, or an error if one cannot be
	// established. Implementations should respect ctx cancellation.
	Dial(ctx context.Context) (Transport, error)
}

// SerialDialer opens a Transport over a real serial port using
// go.bug.st/serial. It is the production Dialer; tests use MockDialer or
// TestTransport instead.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/ttyUSB0".
	PortName string
	// BaudRate is the serial speed. Zero selects the default of 19200.
	BaudRate int
	// FlowControl, when true, asserts the RTS line after the port is
	// opened. The port itself is not configured for RTS/CTS handshaking.
	FlowControl bool
}

// SerialDialerFromConfig builds a SerialDialer from a Config, applying its
// Port/BaudRate/FlowControl fields.
func SerialDialerFromConfig(cfg Config) SerialDialer {
	return SerialDialer{
		PortName:    cfg.Port,
		BaudRate:    cfg.BaudRate,
		FlowControl: cfg.FlowControl,
	}
}

// Dial opens the configured serial port. It returns an error immediately
// if ctx is already canceled, and otherwise performs a single blocking
// open (go.bug.st/serial has no cancellable open, so the ctx is only
// consulted before the call, matching the reference driver's synchronous
// open semantics).
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("sbd: context is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.PortName == "" {
		return nil, errors.New("sbd: serial port name is required")
	}

	mode := &serial.Mode{
		BaudRate: d.BaudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	if mode.BaudRate == 0 {
		mode.BaudRate = defaultBaudRate
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, err
	}

	if d.FlowControl {
		if err := port.SetRTS(true); err != nil {
			port.Close()
			return nil, err
		}
	}

	return port, nil
}
