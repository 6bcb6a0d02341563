// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
	"github.com/AleutianAI/CourtSim/services/courtroom/simulation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Local-first deployment; the gateway in front of us owns origin
	// policy in hosted setups.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	clientBuffer   = 64
	maxCommandSize = 4096
)

// Hub fans one controller's event feed out to every connected websocket
// client. The feed channel is single-consumer; the hub is that
// consumer.
//
// # Thread Safety
//
// Safe for concurrent use.
type Hub struct {
	mu    sync.Mutex
	feeds map[string]*feed
}

type feed struct {
	subs map[chan datatypes.SimulationEvent]struct{}
	stop chan struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{feeds: make(map[string]*feed)}
}

// Subscribe attaches a client channel to the case's event feed,
// starting the pump on first subscription. Slow clients lose events
// rather than stalling the pump.
func (h *Hub) Subscribe(ctrl *simulation.Controller) chan datatypes.SimulationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.feeds[ctrl.CaseID()]
	if !ok {
		f = &feed{
			subs: make(map[chan datatypes.SimulationEvent]struct{}),
			stop: make(chan struct{}),
		}
		h.feeds[ctrl.CaseID()] = f
		go h.pump(ctrl, f)
	}
	ch := make(chan datatypes.SimulationEvent, clientBuffer)
	f.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe detaches a client channel, stopping the pump when the
// last client leaves.
func (h *Hub) Unsubscribe(caseID string, ch chan datatypes.SimulationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.feeds[caseID]
	if !ok {
		return
	}
	delete(f.subs, ch)
	if len(f.subs) == 0 {
		close(f.stop)
		delete(h.feeds, caseID)
	}
}

func (h *Hub) pump(ctrl *simulation.Controller, f *feed) {
	for {
		select {
		case <-f.stop:
			return
		case ev := <-ctrl.Events():
			h.mu.Lock()
			for ch := range f.subs {
				select {
				case ch <- ev:
				default: // slow client, drop
				}
			}
			h.mu.Unlock()
		}
	}
}

// SimulationSocket streams live events to the client and accepts the
// command vocabulary inbound. One socket serves both directions, the
// same as the REST command endpoint but with a live feed attached.
func SimulationSocket(manager *simulation.Manager, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caseParam(c)
		if !ok {
			return
		}
		ctrl, err := manager.Get(id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		events := hub.Subscribe(ctrl)
		defer hub.Unsubscribe(ctrl.CaseID(), events)

		done := make(chan struct{})
		replies := make(chan gin.H, clientBuffer)

		// Writer: the connection's only writer. Events, command error
		// replies, and keepalive pings all funnel through here.
		go func() {
			ticker := time.NewTicker(pingPeriod)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case ev := <-events:
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteJSON(ev); err != nil {
						return
					}
				case msg := <-replies:
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteJSON(msg); err != nil {
						return
					}
				case <-ticker.C:
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()

		// Reader: inbound commands until the client hangs up.
		conn.SetReadLimit(maxCommandSize)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			var cmd datatypes.SimCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket closed unexpectedly", "error", err)
				}
				break
			}
			if err := manager.Dispatch(c.Request.Context(), ctrl.CaseID(), cmd); err != nil {
				select {
				case replies <- gin.H{"error": err.Error(), "action": cmd.Action}:
				default: // writer backed up, drop the reply
				}
			}
		}
		close(done)
	}
}
