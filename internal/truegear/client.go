package truegear

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"osc2truegear/internal/logger"
	"osc2truegear/internal/metrics"
)

// ErrNotConnected is returned by Send when no connection could be established.
var ErrNotConnected = errors.New("truegear: not connected")

// Conf is the client configuration.
type Conf struct {
	URL              string        // URL - адрес WebSocket сервиса TrueGear.
	HandshakeTimeout time.Duration // HandshakeTimeout - таймаут рукопожатия.
}

// Client is a lazily connected WebSocket to the TrueGear service.
//
// The connection is dialed on first use and dropped on any write error or
// when the peer closes the stream; the next send dials again. A watcher
// goroutine per connection reads incoming frames to notice the close.
type Client struct {
	log     logger.Logger
	cfg     Conf
	dialer  *websocket.Dialer
	metrics *metrics.Metrics

	mu      sync.Mutex
	conn    *websocket.Conn
	onState func(connected bool)

	wg sync.WaitGroup
}

// NewClient конструктор.
func NewClient(log logger.Logger, cfg Conf, m *metrics.Metrics) *Client {
	return &Client{
		log: log,
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		metrics: m,
	}
}

// OnStateChange registers fn to be called on every connect and disconnect.
// fn runs with the client lock held and must not call back into the client.
func (c *Client) OnStateChange(fn func(connected bool)) {
	c.mu.Lock()
	c.onState = fn
	c.mu.Unlock()
}

// Start dials eagerly. A failure is not fatal: Send dials again.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

// Connected reports whether a connection is currently established.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SendPlayEffect sends e wrapped in a play_no_registered envelope.
func (c *Client) SendPlayEffect(e *Effect) error {
	data, err := json.Marshal(PlayEffect(e))
	if err != nil {
		return fmt.Errorf("failed to encode effect: %w", err)
	}
	return c.SendText(data)
}

// SendText writes one text frame, connecting first if needed.
func (c *Client) SendText(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(); err != nil {
		return err
	}
	conn := c.conn
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.metrics.SendError()
		c.dropLocked(conn)
		return fmt.Errorf("failed to send to %s: %w", c.cfg.URL, err)
	}
	c.metrics.EffectSent()
	c.log.With(logger.Fields{"module": "truegear"}).Tracef("Sent WebSocket message %s", data)
	return nil
}

// Stop sends a close frame if connected and drops the connection.
func (c *Client) Stop() {
	c.mu.Lock()
	if conn := c.conn; conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
			c.log.With(logger.Fields{"module": "truegear"}).Debugf("close frame not sent: %v", err)
		}
		c.dropLocked(conn)
	}
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Client) connectLocked() error {
	if c.conn != nil {
		return nil
	}

	c.metrics.ConnectAttempt()
	conn, _, err := c.dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		c.metrics.ConnectFailure()
		return fmt.Errorf("%w: failed to connect to %s: %v", ErrNotConnected, c.cfg.URL, err)
	}

	c.conn = conn
	c.setStateLocked(true)
	c.log.With(logger.Fields{"module": "truegear"}).Infof("connected to %s", c.cfg.URL)

	c.wg.Add(1)
	go c.watch(conn)
	return nil
}

// watch reads until the stream ends. gorilla answers the peer's close frame
// itself and then returns a *websocket.CloseError from ReadMessage.
func (c *Client) watch(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.With(logger.Fields{"module": "truegear"}).Info("server closed the connection")
			} else {
				c.log.With(logger.Fields{"module": "truegear"}).Debugf("read loop ended: %v", err)
			}
			break
		}
		c.log.With(logger.Fields{"module": "truegear"}).Tracef("received: %s", msg)
	}

	c.mu.Lock()
	c.dropLocked(conn)
	c.mu.Unlock()
}

// dropLocked forgets conn if it is still the current connection.
func (c *Client) dropLocked(conn *websocket.Conn) {
	if c.conn != conn {
		return
	}
	c.conn = nil
	_ = conn.Close()
	c.setStateLocked(false)
	c.log.With(logger.Fields{"module": "truegear"}).Warn("disconnected, will reconnect on next send")
}

func (c *Client) setStateLocked(connected bool) {
	c.metrics.SetConnected(connected)
	if c.onState != nil {
		c.onState(connected)
	}
}
