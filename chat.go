package main

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ridecircle/backend/chat"
	"github.com/ridecircle/backend/commuter"
)

type chatRequest struct {
	Message string      `json:"message"`
	History []chat.Turn `json:"history"`
}

// POST /users/{id}/chat
func chatHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		p, ok := profileFromURL(a, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, a.responder.Respond(r.Context(), req.Message, p, chat.Recent(req.History)))
	}
}

// GET /users/{id}/chat/starter?n=
func starterHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := profileFromURL(a, w, r)
		if !ok {
			return
		}
		n, err := strconv.Atoi(r.URL.Query().Get("n"))
		if err != nil {
			n = rand.Int()
		}
		writeJSON(w, http.StatusOK, map[string]string{"starter": chat.Starter(p, n)})
	}
}

// ClientMessage is what a websocket client sends.
type ClientMessage struct {
	Type string `json:"type"` // "message" | "starter"
	To   string `json:"to"`
	Body string `json:"body,omitempty"`
}

// ServerEvent represents a server-sent event
type ServerEvent struct {
	Type string `json:"type"` // "message" | "typing" | "starter" | "info" | "error"
	From string `json:"from,omitempty"`
	Data any    `json:"data,omitempty"`
}

// Client represents a WebSocket client connection
type Client struct {
	sessionID string
	conn      *websocket.Conn
	send      chan ServerEvent

	// history is only touched by the reader goroutine.
	history map[string][]chat.Turn
}

// Hub manages WebSocket client connections, grouped by session
type Hub struct {
	clientsBySession map[string]map[*Client]bool
	mu               sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clientsBySession: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clientsBySession[c.sessionID] == nil {
		h.clientsBySession[c.sessionID] = make(map[*Client]bool)
	}
	h.clientsBySession[c.sessionID][c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if peers, ok := h.clientsBySession[c.sessionID]; ok {
		if peers[c] {
			delete(peers, c)
			close(c.send)
		}
		if len(peers) == 0 {
			delete(h.clientsBySession, c.sessionID)
		}
	}
}

// sendToSession fans evt out to every connection of the session.
func (h *Hub) sendToSession(sessionID string, evt ServerEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clientsBySession[sessionID] {
		select {
		case c.send <- evt:
		default:
			// Drop event if the client's buffer is full
		}
	}
}

// connections reports how many sockets are open for the session.
func (h *Hub) connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clientsBySession[sessionID])
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The token authenticates the socket, not the origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GET /ws/chat?token=
func wsChatHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("session_id", sid).Msg("websocket upgrade failed")
			return
		}

		client := &Client{
			sessionID: sid,
			conn:      conn,
			send:      make(chan ServerEvent, 16),
			history:   make(map[string][]chat.Turn),
		}
		a.hub.register(client)

		// Announce connection to this client
		client.send <- ServerEvent{Type: "info", Data: "connected"}

		go clientWriter(client)
		a.clientReader(r.Context(), client)
	}
}

func (a *app) clientReader(ctx context.Context, c *Client) {
	defer func() {
		a.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.reply(ServerEvent{Type: "error", Data: "invalid message format"})
			continue
		}

		// Each message is its own request as far as loading goes.
		msgCtx := WithDataLoaders(ctx, NewDataLoaders(a.directory))

		switch msg.Type {
		case "message":
			a.answer(msgCtx, c, msg)

		case "starter":
			p, err := loadProfile(msgCtx, a.directory, msg.To)
			if err != nil {
				c.reply(ServerEvent{Type: "error", Data: "unknown commuter"})
				continue
			}
			c.reply(ServerEvent{Type: "starter", From: p.ID, Data: chat.Starter(p, rand.Int())})

		default:
			log.Debug().Str("session_id", c.sessionID).Str("type", msg.Type).Msg("unknown websocket message type")
			c.reply(ServerEvent{Type: "error", Data: "unknown message type"})
		}
	}
}

// answer replies to a message as the addressed commuter and records the
// exchange in the connection's history for that commuter.
func (a *app) answer(ctx context.Context, c *Client, msg ClientMessage) {
	p, err := loadProfile(ctx, a.directory, msg.To)
	if errors.Is(err, commuter.ErrNotFound) {
		c.reply(ServerEvent{Type: "error", Data: "unknown commuter"})
		return
	} else if err != nil {
		log.Error().Err(err).Str("id", msg.To).Msg("Error loading commuter")
		c.reply(ServerEvent{Type: "error", Data: "cannot send message"})
		return
	}

	a.hub.sendToSession(c.sessionID, ServerEvent{Type: "typing", From: p.ID})

	history := c.history[p.ID]
	ans := a.responder.Respond(ctx, msg.Body, p, chat.Recent(history))
	c.history[p.ID] = chat.Recent(append(history,
		chat.Turn{Role: chat.RoleUser, Text: msg.Body},
		chat.Turn{Role: chat.RoleBot, Text: ans.Text},
	))

	a.hub.sendToSession(c.sessionID, ServerEvent{Type: "message", From: p.ID, Data: ans})
}

// reply queues evt for this connection only.
func (c *Client) reply(evt ServerEvent) {
	select {
	case c.send <- evt:
	default:
	}
}

func clientWriter(c *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			// ping to keep the connection alive
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
