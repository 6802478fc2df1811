// Package metrics exposes Prometheus counters for the bridge.
//
// A nil *Metrics is valid and records nothing, so components take one
// unconditionally and the caller decides whether metrics are enabled.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "osc2truegear"

// Metrics holds the bridge collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	packetsReceived prometheus.Counter
	packetsInvalid  prometheus.Counter
	messagesApplied prometheus.Counter
	messagesIgnored *prometheus.CounterVec
	effectsBuilt    prometheus.Counter
	effectsSent     prometheus.Counter
	sendErrors      prometheus.Counter
	connectAttempts prometheus.Counter
	connectFailures prometheus.Counter
	outboundUp      prometheus.Gauge
	mqttValues      prometheus.Counter
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		packetsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "osc",
			Name:      "packets_received_total",
			Help:      "Total OSC datagrams received",
		}),
		packetsInvalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "osc",
			Name:      "packets_invalid_total",
			Help:      "Datagrams that could not be decoded as OSC",
		}),
		messagesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mapping",
			Name:      "messages_applied_total",
			Help:      "Messages written to the aggregation table",
		}),
		messagesIgnored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mapping",
			Name:      "messages_ignored_total",
			Help:      "Messages ignored by reason",
		}, []string{"reason"}),
		effectsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mapping",
			Name:      "effects_built_total",
			Help:      "Ticks that produced a non-empty effect",
		}),
		effectsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "truegear",
			Name:      "effects_sent_total",
			Help:      "Effects written to the TrueGear WebSocket",
		}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "truegear",
			Name:      "send_errors_total",
			Help:      "Failed effect writes",
		}),
		connectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "truegear",
			Name:      "connect_attempts_total",
			Help:      "WebSocket dial attempts",
		}),
		connectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "truegear",
			Name:      "connect_failures_total",
			Help:      "WebSocket dial failures",
		}),
		outboundUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "truegear",
			Name:      "connected",
			Help:      "1 while the TrueGear WebSocket is established",
		}),
		mqttValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mqtt",
			Name:      "values_received_total",
			Help:      "Channel values received over MQTT",
		}),
	}

	m.registry.MustRegister(
		m.packetsReceived,
		m.packetsInvalid,
		m.messagesApplied,
		m.messagesIgnored,
		m.effectsBuilt,
		m.effectsSent,
		m.sendErrors,
		m.connectAttempts,
		m.connectFailures,
		m.outboundUp,
		m.mqttValues,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) PacketReceived() {
	if m != nil {
		m.packetsReceived.Inc()
	}
}

func (m *Metrics) PacketInvalid() {
	if m != nil {
		m.packetsInvalid.Inc()
	}
}

func (m *Metrics) MessageApplied() {
	if m != nil {
		m.messagesApplied.Inc()
	}
}

// MessageIgnored counts a message dropped for reason ("unknown_channel", "bad_argument").
func (m *Metrics) MessageIgnored(reason string) {
	if m != nil {
		m.messagesIgnored.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) EffectBuilt() {
	if m != nil {
		m.effectsBuilt.Inc()
	}
}

func (m *Metrics) EffectSent() {
	if m != nil {
		m.effectsSent.Inc()
	}
}

func (m *Metrics) SendError() {
	if m != nil {
		m.sendErrors.Inc()
	}
}

func (m *Metrics) ConnectAttempt() {
	if m != nil {
		m.connectAttempts.Inc()
	}
}

func (m *Metrics) ConnectFailure() {
	if m != nil {
		m.connectFailures.Inc()
	}
}

func (m *Metrics) SetConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.outboundUp.Set(1)
	} else {
		m.outboundUp.Set(0)
	}
}

func (m *Metrics) MQTTValue() {
	if m != nil {
		m.mqttValues.Inc()
	}
}
