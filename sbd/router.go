package sbd

import (
	"regexp"
	"strings"

	"github.com/tidalcomms/sbd/at"
)

// unsolicitedRule pairs a pattern with the handler invoked when a line
// matches it while being routed. Handlers run synchronously on Loop's
// goroutine, in registration order relative to other unsolicited lines.
type unsolicitedRule struct {
	pattern *regexp.Regexp
	handle  func(d *Driver, line string)
}

// defaultUnsolicitedTable maps SBDRING -> ringalert and +AREG:<event>,<err>
// -> log. Built once per Driver so callers could extend an instance without
// a data race across driver instances (none do today).
func defaultUnsolicitedTable() []unsolicitedRule {
	return []unsolicitedRule{
		{
			pattern: regexp.MustCompile(`^` + at.Ring),
			handle: func(d *Driver, line string) {
				d.publishRingAlert()
			},
		},
		{
			pattern: regexp.MustCompile(`^\+AREG:`),
			handle: func(d *Driver, line string) {
				d.publishDebug("registration event: " + strings.TrimSpace(line))
			},
		},
	}
}

// routeLine classifies one line against the unsolicited table, then (if
// nothing matched and a command is inflight) against the error patterns,
// the inflight command's keep pattern, and finally its end pattern. It
// runs only on Loop's goroutine.
func (d *Driver) routeLine(line string) {
	for _, rule := range d.unsolicited {
		if rule.pattern.MatchString(line) {
			rule.handle(d, line)
			return
		}
	}

	if d.inflight == nil {
		d.publishDebug("orphaned line: " + strings.TrimSpace(line))
		return
	}

	for _, pat := range d.errorPatterns {
		if pat.MatchString(line) {
			d.completeInflight(commandResult{body: d.body, err: newError(KindModemError, errFromLine(line))})
			return
		}
	}

	cmd := d.inflight.cmd
	if cmd.keepPattern == nil || cmd.keepPattern.MatchString(line) {
		d.body = append(d.body, []byte(line+"\n")...)
	}

	if cmd.endPattern != nil && cmd.endPattern.MatchString(line) {
		body := d.body
		d.completeInflight(commandResult{body: body})
	}
}

// routeBinary completes the inflight command with a flushed binary blob as
// its body. Only called after Loop's binary flush timer fires.
func (d *Driver) routeBinary(blob []byte) {
	if d.inflight == nil {
		d.publishDebug("orphaned binary blob, discarded")
		return
	}
	d.completeInflight(commandResult{body: blob})
}
