// Package sbd implements a driver for the Iridium Short Burst Data (SBD)
// satellite modem family. It multiplexes a single serial AT-command byte
// stream into an event-driven interface for sending short messages,
// receiving queued mobile-terminated messages, reacting to ring alerts, and
// querying modem state.
package sbd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/tidalcomms/sbd/at"
)

// Driver is a single Iridium SBD modem session over one Transport. The
// inflight command slot and the binary-mode framer are owned by the
// goroutine running Loop, and every command is a request/response shim
// across the commands channel. The session counters are written by the
// session methods themselves, serialized by moMu.
type Driver struct {
	transport Transport
	config    Config
	logger    *slog.Logger

	closed      bool
	loopRunning bool

	commands chan *commandRequest

	framer   framer
	inflight *commandRequest
	body     []byte
	cmdTimer *time.Timer
	binTimer *time.Timer

	unsolicited   []unsolicitedRule
	errorPatterns []*regexp.Regexp

	events eventBus

	// Session state machine fields.
	moMu           sync.Mutex
	messagePending int
	pending        int
}

// New dials the configured Transport and runs the initialization sequence
// synchronously. On success the returned Driver is ready for the caller to
// start with Loop; on failure no "initialized" event is emitted and the
// transport, if opened, is closed.
func New(ctx context.Context, config Config) (*Driver, error) {
	if config.Dialer == nil {
		return nil, ErrNoDialer
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}

	d := &Driver{
		transport:     transport,
		config:        config,
		logger:        slog.Default().With("component", "sbd"),
		commands:      make(chan *commandRequest),
		unsolicited:   defaultUnsolicitedTable(),
		errorPatterns: at.ErrorPatterns,
	}

	if d.transport == nil {
		return nil, ErrNotInitialized
	}

	if err := d.init(ctx); err != nil {
		transport.Close()
		return nil, fmt.Errorf("sbd: initialize: %w", err)
	}

	d.publishInitialized()
	return d, nil
}

// init performs ATE0 -> AT+SBDD2 -> AT+SBDAREG=1 -> AT+SBDMTA=1. Any
// failing step aborts initialization.
func (d *Driver) init(ctx context.Context) error {
	steps := []string{"ATE0", "AT+SBDD2", "AT+SBDAREG=1", "AT+SBDMTA=1"}
	for _, step := range steps {
		if _, err := d.expectOKDirect(ctx, step); err != nil {
			return fmt.Errorf("%s: %w", step, err)
		}
	}
	return nil
}

func (d *Driver) expectOKDirect(ctx context.Context, text string) ([]byte, error) {
	return d.sendDirect(ctx, textCommand(text, at.OKPattern, nil, d.config.SimpleTimeout))
}

// Loop is the driver's single event loop. It must be started exactly once,
// after New. It starts one reader goroutine, the only reader of the
// transport from then on, and is itself the only goroutine that mutates the
// inflight slot or the binary-mode framer. It returns when ctx is canceled,
// the transport reaches EOF, or the transport reports a read error.
func (d *Driver) Loop(ctx context.Context) error {
	if d.loopRunning {
		return ErrLoopRunning
	}
	d.loopRunning = true
	defer func() { d.loopRunning = false }()

	chunks := make(chan []byte, 16)
	readErrs := make(chan error, 1)
	go d.readLoop(ctx, chunks, readErrs)

	defer func() {
		if d.cmdTimer != nil {
			d.cmdTimer.Stop()
		}
		if d.binTimer != nil {
			d.binTimer.Stop()
		}
	}()

	for {
		var cmdChan chan *commandRequest
		if d.inflight == nil {
			cmdChan = d.commands
		}
		var cmdTimerC <-chan time.Time
		if d.cmdTimer != nil {
			cmdTimerC = d.cmdTimer.C
		}
		var binTimerC <-chan time.Time
		if d.binTimer != nil {
			binTimerC = d.binTimer.C
		}

		select {
		case <-ctx.Done():
			if d.inflight != nil {
				d.completeInflight(commandResult{err: ctx.Err()})
			}
			return ctx.Err()

		case req := <-cmdChan:
			d.dispatch(req)

		case chunk, ok := <-chunks:
			if !ok {
				if d.inflight != nil {
					d.completeInflight(commandResult{err: io.EOF})
				}
				return io.EOF
			}
			for _, f := range d.framer.feed(chunk) {
				d.routeLine(f.line)
			}

		case <-binTimerC:
			d.binTimer = nil
			blob := d.framer.flushBinary()
			d.routeBinary(blob.binary)

		case <-cmdTimerC:
			d.cmdTimer = nil
			if d.inflight != nil {
				d.completeInflight(commandResult{err: newError(KindTimeout, context.DeadlineExceeded)})
			}

		case err := <-readErrs:
			if d.inflight != nil {
				d.completeInflight(commandResult{err: newError(KindTransportError, err)})
			}
			return fmt.Errorf("sbd: reader: %w", err)
		}
	}
}

func (d *Driver) readLoop(ctx context.Context, chunks chan<- []byte, errs chan<- error) {
	defer close(chunks)
	buf := make([]byte, 4096)
	for {
		n, err := d.transport.Read(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			select {
			case chunks <- cp:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			select {
			case errs <- err:
			case <-ctx.Done():
			}
			return
		}
	}
}

// dispatch writes a command's wire bytes and, on success, arms whichever
// timer applies. It only ever runs on Loop's goroutine (or, before Loop
// has started, on sendDirect's caller goroutine during init — the two
// never run concurrently because Loop is started by the application only
// after New returns).
func (d *Driver) dispatch(req *commandRequest) {
	d.inflight = req
	d.body = nil

	if _, err := d.transport.Write(req.cmd.wireBytes()); err != nil {
		d.completeInflight(commandResult{err: newError(KindTransportError, err)})
		return
	}

	switch {
	case req.cmd.entersBinaryMode:
		d.framer.enterBinaryMode(req.cmd.binaryCapacity)
		d.binTimer = time.NewTimer(req.cmd.binaryFlushWindow)
	case req.cmd.timeout > 0:
		d.cmdTimer = time.NewTimer(req.cmd.timeout)
	}
}

// completeInflight fires the inflight command's continuation exactly once
// and clears all per-command state.
func (d *Driver) completeInflight(result commandResult) {
	req := d.inflight
	if req == nil {
		return
	}
	d.inflight = nil
	d.body = nil
	if d.cmdTimer != nil {
		d.cmdTimer.Stop()
		d.cmdTimer = nil
	}
	if d.binTimer != nil {
		d.binTimer.Stop()
		d.binTimer = nil
	}
	req.done <- result
}

// send queues a command for Loop and blocks for its completion. It is the
// only entry point session.go and queries.go use once Loop is running; a
// second concurrent caller simply waits its turn on the commands channel,
// which Loop only drains while the slot is empty, giving the at-most-one
// in flight invariant without a panic on ordinary concurrent use.
func (d *Driver) send(ctx context.Context, cmd commandDescriptor) ([]byte, error) {
	if d.closed {
		return nil, ErrAlreadyClosed
	}
	if d.transport == nil {
		return nil, ErrNotInitialized
	}

	req := &commandRequest{cmd: cmd, done: make(chan commandResult, 1), ctx: ctx}

	select {
	case d.commands <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case result := <-req.done:
		return result.body, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// sendDirect executes a single command synchronously without the commands
// channel, for use during New's initialization sequence before Loop has
// started. It is a programming error to call it once Loop is running.
func (d *Driver) sendDirect(ctx context.Context, cmd commandDescriptor) ([]byte, error) {
	if d.closed {
		return nil, ErrAlreadyClosed
	}
	if d.transport == nil {
		return nil, ErrNotInitialized
	}
	if d.inflight != nil {
		return nil, ErrCommandInFlight
	}

	req := &commandRequest{cmd: cmd, done: make(chan commandResult, 1), ctx: ctx}
	d.dispatch(req)

	buf := make([]byte, 4096)
	for d.inflight == req {
		select {
		case <-ctx.Done():
			d.completeInflight(commandResult{err: ctx.Err()})
			continue
		default:
		}

		n, err := d.transport.Read(buf)
		if n > 0 {
			for _, f := range d.framer.feed(buf[:n]) {
				d.routeLine(f.line)
			}
		}
		if err != nil {
			d.completeInflight(commandResult{err: newError(KindTransportError, err)})
		}
	}

	result := <-req.done
	return result.body, result.err
}

// Close shuts down the driver and its transport. Loop, if running, exits
// on the resulting read error or EOF. The driver cannot be reused.
func (d *Driver) Close() error {
	if d.closed {
		return ErrAlreadyClosed
	}
	d.closed = true
	if d.transport != nil {
		return d.transport.Close()
	}
	return nil
}

func errFromLine(line string) error {
	return errors.New(line)
}
