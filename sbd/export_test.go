package sbd

import "time"

// SetRetryBackoffForTest overrides the mailboxSend retry back-off for the
// duration of a test, returning a func that restores the real 20s delay.
func SetRetryBackoffForTest(d time.Duration) func() {
	prev := retryBackoff
	retryBackoff = d
	return func() { retryBackoff = prev }
}

// SetMTDrainDelayForTest overrides the follow-up mailbox drain delay for
// the duration of a test, returning a func that restores the real 1s delay.
func SetMTDrainDelayForTest(d time.Duration) func() {
	prev := mtDrainDelay
	mtDrainDelay = d
	return func() { mtDrainDelay = prev }
}
