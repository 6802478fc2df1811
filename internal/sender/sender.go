package sender

import (
	"context"
	"time"

	"osc2truegear/internal/logger"
	"osc2truegear/internal/mapping"
	"osc2truegear/internal/truegear"
)

// DefaultTick is how often an effect is built.
const DefaultTick = 100 * time.Millisecond

// EffectClient delivers effects to the device service.
type EffectClient interface {
	Start() error
	SendPlayEffect(e *truegear.Effect) error
	Stop()
}

// EffectBuilder produces the effect for the current table state.
type EffectBuilder interface {
	BuildEffect(params mapping.Params) *truegear.Effect
}

// Sender builds an effect every tick and hands it to the client.
type Sender struct {
	log     logger.Logger
	client  EffectClient
	builder EffectBuilder
	params  mapping.Params
	tick    time.Duration
	done    chan struct{}
}

// NewSender конструктор.
func NewSender(log logger.Logger, client EffectClient, builder EffectBuilder, params mapping.Params, tick time.Duration) *Sender {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Sender{
		log:     log,
		client:  client,
		builder: builder,
		params:  params,
		tick:    tick,
	}
}

// Start connects best-effort and runs the tick loop until ctx is done.
func (s *Sender) Start(ctx context.Context) {
	s.done = make(chan struct{})
	go s.run(ctx)
}

// Stop waits for the loop to exit and closes the client.
func (s *Sender) Stop() {
	if s.done != nil {
		<-s.done
	}
	s.client.Stop()
}

func (s *Sender) run(ctx context.Context) {
	defer close(s.done)

	// Reconnect happens on send, so a failure here is only reported.
	if err := s.client.Start(); err != nil {
		s.log.With(logger.Fields{"module": "sender"}).Warnf("WebSocket connection error: %v", err)
	}

	t := time.NewTicker(s.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Tick()
		}
	}
}

// Tick builds one effect and sends it. It reports whether an effect was built.
func (s *Sender) Tick() bool {
	effect := s.builder.BuildEffect(s.params)
	if effect == nil {
		return false
	}
	if err := s.client.SendPlayEffect(effect); err != nil {
		s.log.With(logger.Fields{"module": "sender"}).Errorf("WebSocket connection error: %v", err)
	}
	return true
}
