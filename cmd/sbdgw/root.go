// Command sbdgw exposes an Iridium SBD driver over HTTP: submit messages,
// query modem status, and stream driver events over a WebSocket. It exists
// to exercise the sbd package end to end, not as a hardened production
// gateway.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serialPort  string
	baudRate    int
	bindAddress string
	logLevel    string
	debugEvents bool
	maxWait     int
)

var rootCmd = &cobra.Command{
	Use:     "sbdgw",
	Short:   "Iridium SBD HTTP gateway",
	Version: "0.1.0",
	RunE:    runGateway,
}

func init() {
	rootCmd.Flags().StringVarP(&serialPort, "serial-port", "p", "/dev/ttyUSB0", "serial port device connected to the modem")
	rootCmd.Flags().IntVarP(&baudRate, "baud-rate", "b", 19200, "serial baud rate")
	rootCmd.Flags().StringVar(&bindAddress, "bind-address", "0.0.0.0:8080", "HTTP listen address")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&debugEvents, "debug-events", false, "emit debug events for orphaned lines and swallowed parse failures")
	rootCmd.Flags().IntVar(&maxWait, "max-wait-seconds", 0, "bound waitForNetwork; 0 waits indefinitely for a signal bar")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
