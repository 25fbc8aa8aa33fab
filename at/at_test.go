package at_test

import (
	"testing"

	"github.com/tidalcomms/sbd/at"
)

func TestSignalQualityPattern(t *testing.T) {
	m := at.SignalQualityPattern.FindStringSubmatch("+CSQ:4")
	if m == nil || m[1] != "4" {
		t.Fatalf("expected to capture bar count, got: %v", m)
	}
}

func TestSystemClockPattern(t *testing.T) {
	m := at.SystemClockPattern.FindStringSubmatch(`+CCLK:"24/03/15,10:30:00"`)
	if m == nil {
		t.Fatal("expected a match")
	}
	want := []string{"24", "03", "15", "10", "30", "00"}
	for i, w := range want {
		if m[i+1] != w {
			t.Errorf("field %d: expected %q, got %q", i, w, m[i+1])
		}
	}
}

func TestSBDIXPattern(t *testing.T) {
	m := at.SBDIXPattern.FindStringSubmatch("+SBDIX: 0, 12, 1, 7, 4, 2")
	if m == nil {
		t.Fatal("expected a match")
	}
	want := []string{"0", "12", "1", "7", "4", "2"}
	for i, w := range want {
		if m[i+1] != w {
			t.Errorf("field %d: expected %q, got %q", i, w, m[i+1])
		}
	}
}

func TestNetworkTimeToken(t *testing.T) {
	m := at.NetworkTimeToken.FindStringSubmatch("-MSSTM: 1a2b3c")
	if m == nil || m[1] != "1a2b3c" {
		t.Fatalf("expected to capture hex token, got: %v", m)
	}
}

func TestSignalBarPattern(t *testing.T) {
	cases := []struct {
		line  string
		match bool
	}{
		{"+CIEV:0,3", true},
		{"+CIEV:0,1", true},
		{"+CIEV:0,0", false},
		{"+CIEV:1,3", false},
	}
	for _, c := range cases {
		if got := at.SignalBarPattern.MatchString(c.line); got != c.match {
			t.Errorf("%q: expected match=%v, got %v", c.line, c.match, got)
		}
	}
}

func TestKeepSBDIX(t *testing.T) {
	if !at.KeepSBDIX.MatchString("+SBDIX: 0, 1, 0, 0, 0, 0") {
		t.Error("expected KeepSBDIX to match an SBDIX status line")
	}
	if at.KeepSBDIX.MatchString("OK") {
		t.Error("expected KeepSBDIX not to match an unrelated line")
	}
}

func TestErrorPatterns(t *testing.T) {
	matched := false
	for _, pat := range at.ErrorPatterns {
		if pat.MatchString("ERROR") {
			matched = true
		}
	}
	if !matched {
		t.Error("expected a bare ERROR line to match one of ErrorPatterns")
	}
}

func TestOKAndReadyPatterns(t *testing.T) {
	if !at.OKPattern.MatchString("OK\r") {
		t.Error("expected OKPattern to match \"OK\\r\"")
	}
	if at.OKPattern.MatchString("OKAY") {
		t.Error("expected OKPattern not to match a superstring")
	}
	if !at.ReadyPattern.MatchString("READY\r") {
		t.Error("expected ReadyPattern to match \"READY\\r\"")
	}
}
