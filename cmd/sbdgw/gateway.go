package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/tidalcomms/sbd/sbd"
)

func runGateway(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	config, err := sbd.NewConfigBuilder().
		WithPort(serialPort).
		WithBaudRate(baudRate).
		WithDebug(debugEvents).
		WithMaxWait(time.Duration(maxWait) * time.Second).
		WithDialer(sbd.SerialDialer{PortName: serialPort, BaudRate: baudRate}).
		Build()
	if err != nil {
		return err
	}

	openCtx, cancelOpen := context.WithTimeout(context.Background(), 30*time.Second)
	driver, err := sbd.New(openCtx, config)
	cancelOpen()
	if err != nil {
		logger.Error("failed to open modem", "error", err)
		return err
	}

	hub := newEventHub()
	driver.OnInitialized(func() {
		logger.Info("modem initialized")
		hub.broadcast(eventMessage{Type: "initialized"})
	})
	driver.OnRingAlert(func() {
		logger.Info("ring alert received")
		hub.broadcast(eventMessage{Type: "ringalert"})
	})
	driver.OnNewMessage(func(payload []byte, mtQueued int) {
		logger.Info("new mobile-terminated message", "bytes", len(payload), "mt_queued", mtQueued)
		hub.broadcast(eventMessage{Type: "newmessage", Payload: payload, MTQueued: mtQueued})
	})
	driver.OnDebug(func(message string) {
		logger.Debug(message)
		hub.broadcast(eventMessage{Type: "debug", Message: message})
	})

	loopCtx, cancelLoop := context.WithCancel(context.Background())
	loopErrs := make(chan error, 1)
	go func() {
		loopErrs <- driver.Loop(loopCtx)
	}()

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	gw := &gatewayServer{driver: driver, logger: logger.With("component", "gateway"), hub: hub}
	router.Post("/messages", gw.handleSendMessage)
	router.Get("/status", gw.handleStatus)
	router.Get("/events", gw.handleEvents)

	httpServer := &http.Server{
		Addr:         bindAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", bindAddress)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-loopErrs:
		logger.Error("modem loop exited", "error", err)
	}

	cancelLoop()
	if err := driver.Close(); err != nil {
		logger.Error("failed to close modem", "error", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return httpServer.Shutdown(shutdownCtx)
}
