package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidalcomms/sbd/sbd"
)

type gatewayServer struct {
	driver *sbd.Driver
	logger *slog.Logger
	hub    *eventHub
}

type sendMessageRequest struct {
	// Text, when set, is submitted as a text mobile-originated message.
	Text string `json:"text,omitempty"`
	// PayloadBase64, when set, is decoded and submitted as a binary
	// mobile-originated message. Text takes precedence if both are set.
	PayloadBase64 string `json:"payload_base64,omitempty"`
}

type sendMessageResponse struct {
	MOMSN int `json:"momsn"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *gatewayServer) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Message: err.Error()})
}

// handleSendMessage submits a mobile-originated message and blocks until
// the SBDIX session that carries it completes.
func (s *gatewayServer) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	var momsn int
	var err error
	switch {
	case req.Text != "":
		momsn, err = s.driver.SendMessage(ctx, req.Text)
	case req.PayloadBase64 != "":
		var payload []byte
		payload, err = base64.StdEncoding.DecodeString(req.PayloadBase64)
		if err == nil {
			momsn, err = s.driver.SendBinaryMessage(ctx, payload)
		}
	default:
		momsn, err = s.driver.MailboxCheck(ctx)
	}

	if err != nil {
		s.logger.Error("send failed", "error", err)
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sendMessageResponse{MOMSN: momsn})
}

type statusResponse struct {
	SignalQuality int       `json:"signal_quality"`
	SystemTime    time.Time `json:"system_time"`
	NetworkTime   time.Time `json:"network_time"`
}

// handleStatus reports the modem's current signal quality and clock state.
func (s *gatewayServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	signal, err := s.driver.SignalQuality(ctx)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	systemTime, err := s.driver.SystemTime(ctx)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	networkTime, err := s.driver.NetworkTime(ctx)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusResponse{
		SignalQuality: signal,
		SystemTime:    systemTime,
		NetworkTime:   networkTime,
	})
}

// handleEvents upgrades to a WebSocket and streams every driver event
// (initialized, ringalert, newmessage, debug) as a JSON line.
func (s *gatewayServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.hub.serveWS(w, r, s.logger)
}
