package sbd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tidalcomms/sbd/at"
)

const binaryFlushMS = 1000 * time.Millisecond

// mtDrainDelay and retryBackoff are the fixed delays for the mailbox drain
// follow-up and the SBDIX retry back-off. They are vars, not consts, so
// tests can shrink them instead of waiting out real 1s/20s timers.
var (
	mtDrainDelay = 1000 * time.Millisecond
	retryBackoff = 20 * time.Second
)

// SendMessage submits a short text message for mobile-originated delivery.
// It blocks until the SBDIX session completes (successfully or not) and
// returns the momsn assigned to the message on success.
//
// An empty text is equivalent to a mailbox check: it issues AT+SBDD0 rather
// than AT+SBDWT, matching the driver's text-send fallback.
func (d *Driver) SendMessage(ctx context.Context, text string) (int, error) {
	d.moMu.Lock()
	defer d.moMu.Unlock()
	return d.mailboxSend(ctx, func(ctx context.Context) error {
		return d.writeText(ctx, text)
	})
}

// SendBinaryMessage submits a binary payload for mobile-originated delivery.
// Zero-length payloads fall through to the text-send path.
func (d *Driver) SendBinaryMessage(ctx context.Context, payload []byte) (int, error) {
	if len(payload) == 0 {
		return d.SendMessage(ctx, "")
	}
	d.moMu.Lock()
	defer d.moMu.Unlock()
	return d.mailboxSend(ctx, func(ctx context.Context) error {
		return d.writeBinary(ctx, payload)
	})
}

// MailboxCheck initiates a session with no new outbound payload, draining
// any pending mobile-terminated message. It is the same state machine as
// SendMessage with an empty text write.
func (d *Driver) MailboxCheck(ctx context.Context) (int, error) {
	return d.SendMessage(ctx, "")
}

// mailboxSend retries a single write-then-session attempt with a fixed
// back-off, up to MaxAttempts. write performs the
// AT+SBDWT/AT+SBDD0/AT+SBDWB step; the remainder of the session
// (waitForNetwork -> disableSignalMonitoring -> initiateSession) is common
// to both send paths.
func (d *Driver) mailboxSend(ctx context.Context, write func(context.Context) error) (int, error) {
	for attempt := 1; attempt <= d.config.MaxAttempts; attempt++ {
		momsn, err := d.attemptSession(ctx, write)
		if err == nil {
			return momsn, nil
		}
		if attempt == d.config.MaxAttempts {
			return 0, newError(KindMaxAttemptsExceeded, err)
		}

		timer := time.NewTimer(retryBackoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		}
	}
	return 0, newError(KindMaxAttemptsExceeded, fmt.Errorf("sbd: no attempts made"))
}

// attemptSession runs one full write -> waitForNetwork ->
// disableSignalMonitoring -> initiateSession cycle and, when the gateway
// reports a queued MT message, the binary MT read that follows it.
func (d *Driver) attemptSession(ctx context.Context, write func(context.Context) error) (int, error) {
	if err := write(ctx); err != nil {
		return 0, err
	}

	if err := d.waitForNetwork(ctx); err != nil {
		return 0, err
	}

	if err := d.disableSignalMonitoring(ctx); err != nil {
		return 0, err
	}

	status, err := d.initiateSession(ctx)
	if err != nil {
		return 0, err
	}

	d.messagePending = 0
	switch {
	case status.MOStatus <= 4:
	case status.MOStatus == 18:
		return 0, newError(KindRadioFailure, fmt.Errorf("sbd: radio failure"))
	case status.MOStatus == 32:
		return 0, newError(KindNetworkFailure, fmt.Errorf("sbd: network failure"))
	default:
		return 0, newError(KindUnknownSBDFailure, fmt.Errorf("sbd: unknown SBDIX failure, status %d", status.MOStatus))
	}

	if status.MTStatus != 1 {
		if status.MTStatus != 0 {
			d.publishDebug(fmt.Sprintf("unexpected MT status %d, treating as no queued message", status.MTStatus))
		}
		return status.MOMSN, nil
	}

	payload, err := d.readBinaryMT(ctx)
	if err != nil {
		// The MO half already succeeded; a broken MT drain is reported via
		// the debug channel rather than failing the caller's momsn.
		d.publishDebug(fmt.Sprintf("MT read failed: %v", err))
		d.pending = status.MTQueued
		return status.MOMSN, nil
	}

	d.pending = status.MTQueued
	d.publishNewMessage(payload, status.MTQueued)

	if status.MTQueued > 0 {
		go d.scheduleMailboxDrain(ctx)
	}

	return status.MOMSN, nil
}

// scheduleMailboxDrain issues a follow-up mailbox check after the fixed
// drain delay. Errors are surfaced only through the debug event; a
// background drain has no caller waiting on it.
func (d *Driver) scheduleMailboxDrain(ctx context.Context) {
	timer := time.NewTimer(mtDrainDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return
	}
	if _, err := d.MailboxCheck(ctx); err != nil {
		d.publishDebug(fmt.Sprintf("mailbox drain failed: %v", err))
	}
}

func (d *Driver) writeText(ctx context.Context, text string) error {
	command := "AT+SBDD0"
	if text != "" {
		command = "AT+SBDWT=" + text
	}
	_, err := d.send(ctx, textCommand(command, at.OKPattern, nil, d.config.DefaultTimeout))
	return err
}

// writeBinary implements the AT+SBDWB dialog: issue the length-prefixed
// command, wait for the READY prompt, then write the payload with its
// trailing checksum as a raw frame.
func (d *Driver) writeBinary(ctx context.Context, payload []byte) error {
	command := fmt.Sprintf("AT+SBDWB=%d", len(payload))
	if _, err := d.send(ctx, textCommand(command, at.ReadyPattern, nil, d.config.DefaultTimeout)); err != nil {
		var sbdErr *Error
		if errors.As(err, &sbdErr) && sbdErr.Kind == KindTimeout {
			return newError(KindTimeout, ErrNoPrompt)
		}
		return err
	}

	frame := make([]byte, 0, len(payload)+2)
	frame = append(frame, payload...)
	frame = appendChecksum(frame, payload)

	_, err := d.send(ctx, rawCommand(frame, at.OKPattern, nil, d.config.DefaultTimeout))
	return err
}

// waitForNetwork enables the signal-quality indicator and blocks until a
// non-zero signal bar is reported. maxWait, if configured, bounds the
// wait; otherwise the wait is unbounded (timeoutForever), since a real
// gateway search may take minutes.
func (d *Driver) waitForNetwork(ctx context.Context) error {
	timeout := d.config.MaxWait
	_, err := d.send(ctx, textCommand("AT+CIER=1,1,0", at.SignalBarPattern, nil, timeout))
	return err
}

func (d *Driver) disableSignalMonitoring(ctx context.Context) error {
	_, err := d.send(ctx, textCommand("AT+CIER=0,0,0", at.OKPattern, nil, d.config.SimpleTimeout))
	return err
}

// sbdixStatus is the parsed status line of a completed SBDIX session.
type sbdixStatus struct {
	MOStatus int
	MOMSN    int
	MTStatus int
	MTMSN    int
	MTLen    int
	MTQueued int
}

func (d *Driver) initiateSession(ctx context.Context) (sbdixStatus, error) {
	body, err := d.send(ctx, textCommand("AT+SBDIXA", at.OKPattern, at.KeepSBDIX, d.config.DefaultTimeout))
	if err != nil {
		return sbdixStatus{}, err
	}

	matches := at.SBDIXPattern.FindSubmatch(body)
	if matches == nil {
		return sbdixStatus{}, newError(KindParseError, fmt.Errorf("sbd: could not parse SBDIX status from %q", body))
	}

	fields := make([]int, 6)
	for i := 1; i <= 6; i++ {
		n, err := parseInt(string(matches[i]))
		if err != nil {
			return sbdixStatus{}, newError(KindParseError, err)
		}
		fields[i-1] = n
	}

	return sbdixStatus{
		MOStatus: fields[0],
		MOMSN:    fields[1],
		MTStatus: fields[2],
		MTMSN:    fields[3],
		MTLen:    fields[4],
		MTQueued: fields[5],
	}, nil
}

// readBinaryMT enters binary mode with a 1000 ms flush timer, issues
// AT+SBDRB, then decodes the flushed blob's length-prefixed frame and
// validates its trailing checksum.
func (d *Driver) readBinaryMT(ctx context.Context) ([]byte, error) {
	body, err := d.send(ctx, binaryReadCommand("AT+SBDRB", minBinaryBufCap, binaryFlushMS))
	if err != nil {
		return nil, err
	}
	return decodeSBDRBFrame(body)
}

func decodeSBDRBFrame(blob []byte) ([]byte, error) {
	if len(blob) < 4 {
		return nil, newError(KindParseError, fmt.Errorf("sbd: SBDRB frame too short (%d bytes)", len(blob)))
	}
	length := int(blob[0])<<8 | int(blob[1])
	if len(blob) < 2+length+2 {
		return nil, newError(KindParseError, fmt.Errorf("sbd: SBDRB frame declares length %d but has %d bytes", length, len(blob)-4))
	}

	payload := blob[2 : 2+length]
	trailer := blob[2+length : 2+length+2]
	want := checksum(payload)
	got := uint16(trailer[0])<<8 | uint16(trailer[1])
	if want != got {
		return nil, newError(KindParseError, fmt.Errorf("sbd: SBDRB checksum mismatch: want %04x got %04x", want, got))
	}

	out := make([]byte, length)
	copy(out, payload)
	return out, nil
}

// appendChecksum appends the big-endian two-byte checksum AT+SBDWB frames
// require: the sum of payload bytes, modulo 2^16.
func appendChecksum(frame, payload []byte) []byte {
	sum := checksum(payload)
	return append(frame, byte(sum>>8), byte(sum))
}

func checksum(payload []byte) uint16 {
	var sum uint16
	for _, b := range payload {
		sum += uint16(b)
	}
	return sum
}

func parseInt(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("sbd: %q is not a decimal integer", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
