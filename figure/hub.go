// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package figure

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/ccnlab/eyetrack/driver"
	"github.com/gorilla/websocket"
)

// ErrHubClosed is returned by Update after the hub stopped running
var ErrHubClosed = errors.New("figure: hub closed")

// Commands are the actions remote clients can take on the simulation
type Commands interface {
	// SetControl sets the named slider and returns the value actually set
	SetControl(name string, val float64) (float64, error)

	// Toggle starts or stops the simulation
	Toggle()
}

// Message is the JSON envelope of all messages, in both directions
type Message struct {
	Type  string             `json:"type"`
	Name  string             `json:"name,omitempty"`
	Value float64            `json:"value"`
	State string             `json:"state,omitempty"`
	Error string             `json:"error,omitempty"`
	Batch *driver.TraceBatch `json:"batch,omitempty"`
}

// message types
const (
	MsgBatch  = "batch"
	MsgState  = "state"
	MsgSet    = "set"
	MsgToggle = "toggle"
	MsgAck    = "ack"
	MsgError  = "error"
)

// Hub is a Figure that broadcasts each batch to its websocket clients,
// and routes their commands to the simulation.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	cmds       Commands
	upgrader   websocket.Upgrader
	logger     *log.Logger
}

// NewHub returns a hub routing client commands to cmds.  A nil logger logs to stderr.
func NewHub(cmds Commands, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(os.Stderr, "hub: ", log.LstdFlags)
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		cmds:       cmds,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Run is the main loop of the hub, handling clients and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
		}
		h.mu.Unlock()
		close(h.done)
	}()
	for {
		select {
		case <-ctx.Done():
			h.logger.Println("shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			close(client.ready)
			h.logger.Println("client connected:", client.conn.RemoteAddr())
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Println("client disconnected:", client.conn.RemoteAddr())
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
					h.logger.Println("dropped slow client:", client.conn.RemoteAddr())
				}
			}
			h.mu.Unlock()
		}
	}
}

// NClients returns the number of connected clients
func (h *Hub) NClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Update broadcasts the batch to all clients
func (h *Hub) Update(batch driver.TraceBatch) error {
	return h.send(Message{Type: MsgBatch, Batch: &batch})
}

// Notify broadcasts a change of the run state
func (h *Hub) Notify(st driver.RunState) {
	if err := h.send(Message{Type: MsgState, State: st.String()}); err != nil {
		h.logger.Println(err)
	}
}

func (h *Hub) send(msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.broadcast <- payload:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// ServeHTTP upgrades the connection to a websocket and adds it as a client
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Println("upgrade:", err)
		return
	}
	client := NewClient(h, conn)
	select {
	case h.register <- client:
		<-client.ready
	case <-h.done:
		conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()
}

// handle executes a command message of a client and returns the reply
func (h *Hub) handle(msg Message) Message {
	switch msg.Type {
	case MsgSet:
		if h.cmds == nil {
			return Message{Type: MsgError, Name: msg.Name, Error: "no simulation attached"}
		}
		val, err := h.cmds.SetControl(msg.Name, msg.Value)
		if err != nil {
			return Message{Type: MsgError, Name: msg.Name, Error: err.Error()}
		}
		return Message{Type: MsgAck, Name: msg.Name, Value: val}
	case MsgToggle:
		if h.cmds == nil {
			return Message{Type: MsgError, Error: "no simulation attached"}
		}
		h.cmds.Toggle()
		return Message{Type: MsgAck, Name: MsgToggle}
	default:
		return Message{Type: MsgError, Error: "unknown message type: " + msg.Type}
	}
}
