package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Inbound is one client message. Either Request (with its Context) or a
// console Line is set.
type Inbound struct {
	Request *dispatch.ActionRequest `json:"request,omitempty"`
	Context dispatch.ActionContext  `json:"context,omitempty"`
	Line    string                  `json:"line,omitempty"`
}

// Outbound is one server message.
type Outbound struct {
	Type     string                   `json:"type"` // response, event or error
	Response *dispatch.ActionResponse `json:"response,omitempty"`
	Event    *dispatch.Event          `json:"event,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// client sits between one websocket and the session.
type client struct {
	sess *session.Session
	conn *websocket.Conn
	send chan Outbound
	done chan struct{}
	log  logrus.FieldLogger

	wg sync.WaitGroup
}

func newClient(sess *session.Session, conn *websocket.Conn, log logrus.FieldLogger) *client {
	return &client{
		sess: sess,
		conn: conn,
		send: make(chan Outbound, sendBuffer),
		done: make(chan struct{}),
		log:  log.WithField("remote", conn.RemoteAddr().String()),
	}
}

// push queues m without blocking. A slow client loses messages rather than
// stalling the dispatcher.
func (c *client) push(m Outbound) {
	select {
	case <-c.done:
	case c.send <- m:
	default:
		c.log.WithField("type", m.Type).Warn("client send buffer full, dropping message")
	}
}

// readPump reads requests until the connection fails. Each request is
// dispatched on its own goroutine so the dispatcher's concurrency ceiling
// applies per client too.
func (c *client) readPump() {
	unsubscribe := c.sess.Dispatcher().On(dispatch.Wildcard, func(e dispatch.Event) {
		c.push(Outbound{Type: "event", Event: &e})
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		unsubscribe()
		cancel()
		close(c.done)
		c.wg.Wait()
		if err := c.conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection")
		}
		c.log.Info("client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("websocket read failed")
			}
			return
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.handle(ctx, msg)
		}()
	}
}

func (c *client) handle(ctx context.Context, msg Inbound) {
	switch {
	case msg.Line != "":
		resp, err := c.sess.Execute(ctx, msg.Line)
		if err != nil {
			c.push(Outbound{Type: "error", Error: err.Error()})
			return
		}
		c.push(Outbound{Type: "response", Response: &resp})
	case msg.Request != nil:
		resp := c.sess.Dispatcher().Dispatch(ctx, *msg.Request, msg.Context)
		c.push(Outbound{Type: "response", Response: &resp})
	default:
		c.push(Outbound{Type: "error", Error: "message needs a request or a line"})
	}
}

// writePump sends queued messages and pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case m := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
			}
			if err := c.conn.WriteJSON(m); err != nil {
				c.log.WithError(err).Debug("write json message failed")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
