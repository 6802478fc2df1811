package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"osc2truegear/internal/logger"
	"osc2truegear/internal/metrics"
)

// maxDatagram is the largest UDP payload.
const maxDatagram = 65535

// readTimeout bounds each read so the loop notices cancellation.
const readTimeout = 100 * time.Millisecond

// errNotOSC covers data that starts with neither '/' nor '#'.
var errNotOSC = errors.New("not an OSC packet")

// MessageConsumer is what the receiver feeds decoded messages into, one at a time in wire order.
type MessageConsumer interface {
	ConsumeMessage(msg *osc.Message) bool
}

// Receiver listens for OSC datagrams and optionally forwards them verbatim.
type Receiver struct {
	log      logger.Logger
	cfg      Conf
	consumer MessageConsumer
	metrics  *metrics.Metrics

	conn    *net.UDPConn
	forward *net.UDPAddr
	done    chan struct{}
}

// NewReceiver конструктор.
func NewReceiver(log logger.Logger, cfg Conf, consumer MessageConsumer, m *metrics.Metrics) (*Receiver, error) {
	r := &Receiver{
		log:      log,
		cfg:      cfg,
		consumer: consumer,
		metrics:  m,
	}
	if cfg.ForwardAddr != "" {
		addr, err := net.ResolveUDPAddr("udp", cfg.ForwardAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve forward address %s: %w", cfg.ForwardAddr, err)
		}
		r.forward = addr
	}
	return r, nil
}

// Start binds the socket and runs the read loop until ctx is done or Stop is called.
func (r *Receiver) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", r.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %s: %w", r.cfg.ListenAddr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind UDP socket %s: %w", r.cfg.ListenAddr, err)
	}

	r.conn = conn
	r.done = make(chan struct{})
	go r.readLoop(ctx)

	r.log.With(logger.Fields{"module": "osc"}).Infof("Listening OSC on %s", conn.LocalAddr())
	if isWildcard(addr) {
		if ips, err := LocalIPv4s(); err == nil && len(ips) > 0 {
			r.log.With(logger.Fields{"module": "osc"}).Infof("Reachable on %v", ips)
		}
	}
	if r.forward != nil {
		r.log.With(logger.Fields{"module": "osc"}).Infof("Forwarding OSC to %s", r.forward)
	}
	return nil
}

// Addr returns the bound local address.
func (r *Receiver) Addr() net.Addr {
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

// Stop closes the socket and waits for the read loop to exit.
func (r *Receiver) Stop() {
	if r.conn == nil {
		return
	}
	_ = r.conn.Close()
	<-r.done
}

func (r *Receiver) readLoop(ctx context.Context) {
	defer close(r.done)
	buf := make([]byte, maxDatagram)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = r.conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			r.log.With(logger.Fields{"module": "osc"}).Warnf("receive error: %v", err)
			continue
		}

		r.handle(buf[:n])
	}
}

func (r *Receiver) handle(data []byte) {
	r.metrics.PacketReceived()

	msgs, err := decodePacket(data)
	if err != nil {
		r.metrics.PacketInvalid()
		r.log.With(logger.Fields{"module": "osc"}).Debugf("dropped undecodable datagram (%d bytes): %v", len(data), err)
		return
	}

	for _, msg := range msgs {
		r.consumer.ConsumeMessage(msg)
	}

	if r.forward == nil {
		return
	}
	if _, err := r.conn.WriteToUDP(data, r.forward); err != nil {
		r.log.With(logger.Fields{"module": "osc"}).Debugf("forward to %s failed: %v", r.forward, err)
	}
}
