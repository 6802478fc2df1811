package main

import (
	"github.com/spf13/pflag"
	"osc2truegear/internal/config"
	"osc2truegear/internal/mapping"
)

// options holds flag values. Only flags set on the command line override the config file.
type options struct {
	configFile          string
	receivePort         int
	sendPort            int
	forward             bool
	wsURL               string
	shakeIntensity      int
	electricalIntensity int
	electricalInterval  int
	feedbackMode        mapping.FeedbackMode
	verbose             bool
	logLevel            string
	metricsAddr         string
}

func bindFlags(fs *pflag.FlagSet, d config.Config) *options {
	o := &options{}
	o.feedbackMode, _ = mapping.ParseFeedbackMode(d.TrueGear.FeedbackMode)

	fs.StringVarP(&o.configFile, "config", "c", "", "Path to TOML configuration file")
	fs.IntVarP(&o.receivePort, "receive-port", "r", d.OSC.ReceivePort, "OSC receive port")
	fs.IntVarP(&o.sendPort, "send-port", "s", d.OSC.SendPort, "OSC send port")
	fs.BoolVarP(&o.forward, "forward", "f", d.OSC.Forward, "Forward received OSC messages to send-port")
	fs.StringVarP(&o.wsURL, "truegear-ws-url", "t", d.TrueGear.URL, "TrueGear WebSocket endpoint")
	fs.IntVar(&o.shakeIntensity, "shake-intensity", d.TrueGear.ShakeIntensity, "Shake intensity")
	fs.IntVar(&o.electricalIntensity, "electrical-intensity", d.TrueGear.ElectricalIntensity, "Electrical intensity")
	fs.IntVar(&o.electricalInterval, "electrical-interval", d.TrueGear.ElectricalInterval, "Electrical interval")
	fs.Var(&o.feedbackMode, "feedback-mode", "Feedback mode: continuous or once")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Enable verbose logging")
	fs.StringVar(&o.logLevel, "log-level", d.Logger.Level, "Log level")
	fs.StringVar(&o.metricsAddr, "metrics-addr", d.Metrics.Addr, "Serve Prometheus metrics on this address, e.g. :9100")
	return o
}

func (o *options) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("receive-port") {
		cfg.OSC.ReceivePort = o.receivePort
	}
	if fs.Changed("send-port") {
		cfg.OSC.SendPort = o.sendPort
	}
	if fs.Changed("forward") {
		cfg.OSC.Forward = o.forward
	}
	if fs.Changed("truegear-ws-url") {
		cfg.TrueGear.URL = o.wsURL
	}
	if fs.Changed("shake-intensity") {
		cfg.TrueGear.ShakeIntensity = o.shakeIntensity
	}
	if fs.Changed("electrical-intensity") {
		cfg.TrueGear.ElectricalIntensity = o.electricalIntensity
	}
	if fs.Changed("electrical-interval") {
		cfg.TrueGear.ElectricalInterval = o.electricalInterval
	}
	if fs.Changed("feedback-mode") {
		cfg.TrueGear.FeedbackMode = o.feedbackMode.String()
	}
	if fs.Changed("log-level") {
		cfg.Logger.Level = o.logLevel
	}
	if o.verbose {
		cfg.Logger.Level = "trace"
	}
	if fs.Changed("metrics-addr") {
		cfg.Metrics.Addr = o.metricsAddr
	}
}
