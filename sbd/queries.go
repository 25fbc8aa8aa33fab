package sbd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tidalcomms/sbd/at"
)

// iridiumEpoch is 1399818235 (May 11 2014 14:23:55 UTC), the zero point of
// the network time token returned by AT-MSSTM.
var iridiumEpoch = time.Unix(1399818235, 0).UTC()

// PollConfig configures WaitForNetworkReady's polling loop.
type PollConfig struct {
	// Interval is the time between AT+CSQ polls. Default 500ms.
	Interval time.Duration
	// Timeout is the maximum time to wait. Default 30s.
	Timeout time.Duration
	// MaxRetries bounds the number of polls independently of Timeout.
	// Default derives from Timeout/Interval.
	MaxRetries int
}

// WaitForNetworkReady polls AT+CSQ until the modem reports a non-zero bar
// count, or the poll budget is exhausted. It is a convenience wrapper
// around SignalQuality for callers that want to confirm coverage before
// calling SendMessage, distinct from waitForNetwork's use inside a session
// (which arms +CIER unsolicited notifications instead of polling).
func (d *Driver) WaitForNetworkReady(ctx context.Context, config PollConfig) error {
	interval := config.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = int(timeout / interval)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	retries := 0
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("sbd: network not ready: %w", ctx.Err())
		case <-ticker.C:
			retries++
			if retries > maxRetries {
				return fmt.Errorf("sbd: network not ready after %d retries", maxRetries)
			}
			quality, err := d.SignalQuality(ctx)
			if err != nil {
				if err == ErrAlreadyClosed || err == ErrNotInitialized {
					return err
				}
				continue
			}
			if quality > 0 {
				return nil
			}
		}
	}
}

// SignalQuality issues AT+CSQ and returns the reported bar count, 0 to 5.
func (d *Driver) SignalQuality(ctx context.Context) (int, error) {
	body, err := d.send(ctx, textCommand("AT+CSQ", at.OKPattern, nil, d.config.SimpleTimeout))
	if err != nil {
		return 0, err
	}

	m := at.SignalQualityPattern.FindSubmatch(body)
	if m == nil {
		return 0, newError(KindParseError, fmt.Errorf("sbd: could not parse signal quality from %q", body))
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, newError(KindParseError, err)
	}
	return n, nil
}

// SystemTime issues AT+CCLK? and returns the modem's local real-time clock,
// interpreted as UTC with a 2000-based year.
func (d *Driver) SystemTime(ctx context.Context) (time.Time, error) {
	body, err := d.send(ctx, textCommand("AT+CCLK?", at.OKPattern, nil, d.config.SimpleTimeout))
	if err != nil {
		return time.Time{}, err
	}

	m := at.SystemClockPattern.FindSubmatch(body)
	if m == nil {
		return time.Time{}, newError(KindParseError, fmt.Errorf("sbd: could not parse system time from %q", body))
	}

	fields := make([]int, 6)
	for i := 1; i <= 6; i++ {
		n, err := strconv.Atoi(string(m[i]))
		if err != nil {
			return time.Time{}, newError(KindParseError, err)
		}
		fields[i-1] = n
	}

	year := 2000 + fields[0]
	return time.Date(year, time.Month(fields[1]), fields[2], fields[3], fields[4], fields[5], 0, time.UTC), nil
}

// NetworkTime issues AT-MSSTM and decodes the hex network time token as an
// offset in 90 ms ticks from the Iridium epoch.
func (d *Driver) NetworkTime(ctx context.Context) (time.Time, error) {
	body, err := d.send(ctx, textCommand("AT-MSSTM", at.OKPattern, nil, d.config.SimpleTimeout))
	if err != nil {
		return time.Time{}, err
	}

	m := at.NetworkTimeToken.FindSubmatch(body)
	if m == nil {
		return time.Time{}, newError(KindParseError, fmt.Errorf("sbd: could not parse network time token from %q", body))
	}

	ticks, err := strconv.ParseUint(string(m[1]), 16, 64)
	if err != nil {
		return time.Time{}, newError(KindParseError, err)
	}

	return iridiumEpoch.Add(time.Duration(ticks) * 90 * time.Millisecond), nil
}
