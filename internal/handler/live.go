package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/tranqv/restaurant-pos/internal/broker"
)

// writeWait bounds how long a single event write to a display may
// take before the connection is considered dead.
const writeWait = 10 * time.Second

// LiveHandler upgrades display connections to WebSocket and bridges
// them onto the event broker.  Each connection subscribes to exactly
// one topic for its lifetime and receives every event published to
// that topic until it disconnects.
type LiveHandler struct {
	Events   broker.Broker
	upgrader websocket.Upgrader
}

// NewLiveHandler constructs a LiveHandler.  Displays are same-site
// operator screens, so cross-origin upgrades are accepted.
func NewLiveHandler(events broker.Broker) *LiveHandler {
	if events == nil {
		panic("nil broker passed to NewLiveHandler")
	}
	return &LiveHandler{
		Events: events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// OrderUpdates streams the order_updates topic (new orders).
func (h *LiveHandler) OrderUpdates(c echo.Context) error {
	return h.stream(c, broker.TopicOrderUpdates)
}

// OrderStatus streams the order_status topic (status transitions).
func (h *LiveHandler) OrderStatus(c echo.Context) error {
	return h.stream(c, broker.TopicOrderStatus)
}

// TableUpdates streams the table_updates topic (occupancy changes).
func (h *LiveHandler) TableUpdates(c echo.Context) error {
	return h.stream(c, broker.TopicTableUpdates)
}

// stream subscribes the connection to a topic and forwards broker
// events to it as JSON until the client goes away.  A reader goroutine
// watches for the disconnect; unsubscription runs on every exit path,
// so an abnormal close still releases the subscription.  Inbound
// client frames are drained and ignored: displays are consumers, state
// changes go through the HTTP API.
func (h *LiveHandler) stream(c echo.Context, topic string) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	sub := h.Events.Subscribe(topic)
	defer h.Events.Unsubscribe(sub)
	c.Logger().Debugf("live: client %s subscribed to %q", c.RealIP(), topic)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			c.Logger().Debugf("live: client %s left %q", c.RealIP(), topic)
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(ev); err != nil {
				c.Logger().Debugf("live: write to %s on %q failed: %v", c.RealIP(), topic, err)
				return nil
			}
		}
	}
}
