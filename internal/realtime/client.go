package realtime

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/atomic"

	"github.com/da1suk8/donation-demo/pkg/errors"
	"github.com/da1suk8/donation-demo/pkg/log"
)

// BroadcastHandler consumes one inbound broadcast payload.
type BroadcastHandler func(payload gjson.Result)

// Client is the realtime channel transport carrying chat events in and
// bot responses out. Channels are joined on Start; inbound broadcasts
// are dispatched to the handler registered for their event name.
type Client struct {
	url    string
	apiKey string

	writeMu sync.Mutex
	conn    *websocket.Conn
	ref     atomic.Int64

	mu       sync.RWMutex
	channels map[string]bool
	handlers map[string]BroadcastHandler

	redialDelay time.Duration
}

func NewClient(url, apiKey string) *Client {
	return &Client{
		url:         url,
		apiKey:      apiKey,
		channels:    make(map[string]bool),
		handlers:    make(map[string]BroadcastHandler),
		redialDelay: time.Second,
	}
}

// On registers the handler invoked for broadcasts carrying the given
// event name. The channel of the same name is joined on Start.
func (c *Client) On(event string, handler BroadcastHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[event] = true
	c.handlers[event] = handler
}

// Join adds a channel without an inbound handler, for outbound-only
// channels like the response channel.
func (c *Client) Join(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[channel] = true
}

// Start dials the realtime endpoint, joins all channels and serves the
// read loop until ctx is done, redialing on transport failure.
func (c *Client) Start(ctx context.Context) {
	for ctx.Err() == nil {
		if err := c.connect(ctx); err != nil {
			log.Error(errors.Wrap(err, "connect realtime endpoint"))
			sleepCtx(ctx, 5*time.Second)
			continue
		}
		// The heartbeat loop lives exactly as long as its connection;
		// a redial gets a fresh one.
		connCtx, stopHeartbeat := context.WithCancel(ctx)
		go c.heartbeatLoop(connCtx)
		c.readLoop(ctx)
		stopHeartbeat()
		c.close()
		if ctx.Err() == nil {
			log.Warn("realtime connection lost, redialing")
			sleepCtx(ctx, c.redialDelay)
		}
	}
}

// Broadcast publishes a payload on a channel.
func (c *Client) Broadcast(channel, event string, payload interface{}) error {
	frame := &envelope{
		Topic: topicPrefix + channel,
		Event: eventBroadcast,
		Payload: broadcastPayload{
			Type:    eventBroadcast,
			Event:   event,
			Payload: payload,
		},
		Ref: c.nextRef(),
	}
	return c.send(frame.Marshal())
}

func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, c.url+"?apikey="+c.apiKey+"&vsn=1.0.0", nil)
	if err != nil {
		return errors.Wrap(err, "dial realtime websocket")
	}
	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()

	c.mu.RLock()
	defer c.mu.RUnlock()
	for channel := range c.channels {
		join := &envelope{
			Topic:   topicPrefix + channel,
			Event:   eventJoin,
			Payload: joinPayload{},
			Ref:     c.nextRef(),
		}
		log.Debugf("realtime - join channel:%v", channel)
		if err := c.send(join.Marshal()); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Error(errors.Wrap(err, "read realtime message"))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		c.dispatch(string(data))
	}
}

func (c *Client) dispatch(frame string) {
	event := gjson.Get(frame, "event").String()
	switch event {
	case eventReply, eventHeartbeat:
		return
	case eventBroadcast:
	default:
		log.Debugf("realtime - ignoring event %v", event)
		return
	}
	name := gjson.Get(frame, "payload.event").String()
	c.mu.RLock()
	handler := c.handlers[name]
	c.mu.RUnlock()
	if handler == nil {
		log.Debugf("realtime - no handler for broadcast %v", name)
		return
	}
	payload := gjson.Get(frame, "payload.payload")
	go func() {
		defer func() {
			if i := recover(); i != nil {
				log.Error(errors.ErrorfAndReport("broadcast handler %v: %v", name, i))
			}
		}()
		handler(payload)
	}()
}

func (c *Client) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			beat := &envelope{
				Topic:   heartbeatTopic,
				Event:   eventHeartbeat,
				Payload: map[string]interface{}{},
				Ref:     c.nextRef(),
			}
			if err := c.send(beat.Marshal()); err != nil {
				log.Warnf("realtime - heartbeat:%v", err)
				return
			}
		}
	}
}

func (c *Client) send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return errors.New("realtime connection not established")
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return errors.Wrap(err, "write realtime message")
	}
	return nil
}

func (c *Client) close() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) nextRef() string {
	return strconv.FormatInt(c.ref.Inc(), 10)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
