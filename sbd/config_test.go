package sbd_test

import (
	"errors"
	"testing"
	"time"

	"github.com/tidalcomms/sbd/sbd"
)

func TestConfig(t *testing.T) {
	t.Run("ErrNoDialer when no dialer provided", func(t *testing.T) {
		_, err := sbd.NewConfigBuilder().Build()
		if !errors.Is(err, sbd.ErrNoDialer) {
			t.Errorf("expected ErrNoDialer, got: %v", err)
		}
	})

	t.Run("defaults are applied", func(t *testing.T) {
		cfg, err := sbd.NewConfigBuilder().
			WithDialer(sbd.SerialDialer{PortName: "/dev/ttyUSB0"}).
			Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.BaudRate != 19200 {
			t.Errorf("expected default baud rate 19200, got %d", cfg.BaudRate)
		}
		if cfg.DefaultTimeout != 40*time.Second {
			t.Errorf("expected default timeout 40s, got %v", cfg.DefaultTimeout)
		}
		if cfg.SimpleTimeout != 2*time.Second {
			t.Errorf("expected simple timeout 2s, got %v", cfg.SimpleTimeout)
		}
		if cfg.MaxAttempts != 5 {
			t.Errorf("expected default max attempts 5, got %d", cfg.MaxAttempts)
		}
	})

	t.Run("explicit values override defaults", func(t *testing.T) {
		cfg, err := sbd.NewConfigBuilder().
			WithDialer(sbd.SerialDialer{PortName: "/dev/ttyUSB0"}).
			WithBaudRate(9600).
			WithDefaultTimeout(10 * time.Second).
			WithSimpleTimeout(time.Second).
			WithMaxAttempts(3).
			WithMaxWait(2 * time.Minute).
			WithPort("/dev/ttyUSB1").
			WithFlowControl(true).
			WithDebug(true).
			Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.BaudRate != 9600 {
			t.Errorf("expected baud rate 9600, got %d", cfg.BaudRate)
		}
		if cfg.MaxAttempts != 3 {
			t.Errorf("expected max attempts 3, got %d", cfg.MaxAttempts)
		}
		if cfg.MaxWait != 2*time.Minute {
			t.Errorf("expected max wait 2m, got %v", cfg.MaxWait)
		}
		if cfg.Port != "/dev/ttyUSB1" {
			t.Errorf("expected port override, got %q", cfg.Port)
		}
		if !cfg.FlowControl {
			t.Error("expected flow control enabled")
		}
		if !cfg.Debug {
			t.Error("expected debug enabled")
		}
	})
}
