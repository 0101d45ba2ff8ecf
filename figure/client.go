// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package figure

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period, must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maximum size of a command from the peer
	maxMessageSize = 1024
)

// Client is a websocket connection of the Hub
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	ready chan struct{}
}

// NewClient returns a client of hub on conn
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{hub: hub, conn: conn, send: make(chan []byte, 256), ready: make(chan struct{})}
}

// ReadPump reads commands from the connection until it closes
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Println("read:", err)
			}
			return
		}
		var msg Message
		var reply Message
		if err := json.Unmarshal(data, &msg); err != nil {
			reply = Message{Type: MsgError, Error: "invalid message: " + err.Error()}
		} else {
			reply = c.hub.handle(msg)
		}
		payload, err := json.Marshal(reply)
		if err != nil {
			c.hub.logger.Println(err)
			continue
		}
		c.reply(payload)
	}
}

// reply queues a message to this client only, dropping it if the client is closed or slow
func (c *Client) reply(payload []byte) {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// WritePump writes queued messages to the connection, and pings the peer
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
