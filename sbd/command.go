package sbd

import (
	"context"
	"regexp"
	"time"
)

// commandDescriptor is one AT command's payload, end pattern, keep pattern,
// timeout, and (for text payloads) the implicit CR terminator. A descriptor
// with entersBinaryMode set switches the framer to binary accumulation
// immediately after the payload is written, for AT+SBDRB's raw-frame reply.
type commandDescriptor struct {
	text string // sent as text+"\r" when isBinary is false
	raw  []byte // sent verbatim when isBinary is true

	isBinary bool

	endPattern  *regexp.Regexp // nil only valid together with entersBinaryMode
	keepPattern *regexp.Regexp // nil means retain every line

	timeout time.Duration // <=0 disables the timer (TimeoutForever)

	entersBinaryMode  bool
	binaryCapacity    int
	binaryFlushWindow time.Duration
}

// commandResult is delivered to a commandRequest's done channel exactly once.
type commandResult struct {
	body []byte
	err  error
}

// commandRequest is one AT command in flight through Loop.
type commandRequest struct {
	cmd  commandDescriptor
	done chan commandResult
	ctx  context.Context
}

func textCommand(text string, end, keep *regexp.Regexp, timeout time.Duration) commandDescriptor {
	return commandDescriptor{text: text, endPattern: end, keepPattern: keep, timeout: timeout}
}

func rawCommand(raw []byte, end, keep *regexp.Regexp, timeout time.Duration) commandDescriptor {
	return commandDescriptor{raw: raw, isBinary: true, endPattern: end, keepPattern: keep, timeout: timeout}
}

func binaryReadCommand(text string, capacity int, flushWindow time.Duration) commandDescriptor {
	return commandDescriptor{
		text:              text,
		entersBinaryMode:  true,
		binaryCapacity:    capacity,
		binaryFlushWindow: flushWindow,
	}
}

// wireBytes returns exactly what Loop writes to the transport for this
// command: text payloads get a CR suffix, byte payloads are written verbatim.
func (c commandDescriptor) wireBytes() []byte {
	if c.isBinary {
		return c.raw
	}
	return []byte(c.text + "\r")
}
