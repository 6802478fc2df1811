package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"osc2truegear/internal/config"
)

func parse(t *testing.T, args ...string) (*options, *pflag.FlagSet) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o := bindFlags(fs, config.Default())
	require.NoError(t, fs.Parse(args))
	return o, fs
}

func TestFlagsDefaultsKeepConfig(t *testing.T) {
	o, fs := parse(t)
	cfg := config.Default()
	cfg.OSC.ReceivePort = 9500

	o.apply(fs, &cfg)

	assert.Equal(t, 9500, cfg.OSC.ReceivePort, "unset flag must not override the file")
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "continuous", cfg.TrueGear.FeedbackMode)
}

func TestFlagsOverride(t *testing.T) {
	o, fs := parse(t,
		"-r", "7000",
		"-s", "7001",
		"-f",
		"-t", "ws://10.0.0.2:18233/v1/tact/",
		"--shake-intensity", "80",
		"--electrical-intensity", "20",
		"--electrical-interval", "5",
		"--feedback-mode", "once",
		"-v",
		"--metrics-addr", ":9100",
	)
	cfg := config.Default()
	o.apply(fs, &cfg)

	assert.Equal(t, 7000, cfg.OSC.ReceivePort)
	assert.Equal(t, 7001, cfg.OSC.SendPort)
	assert.True(t, cfg.OSC.Forward)
	assert.Equal(t, "ws://10.0.0.2:18233/v1/tact/", cfg.TrueGear.URL)
	assert.Equal(t, 80, cfg.TrueGear.ShakeIntensity)
	assert.Equal(t, 20, cfg.TrueGear.ElectricalIntensity)
	assert.Equal(t, 5, cfg.TrueGear.ElectricalInterval)
	assert.Equal(t, "once", cfg.TrueGear.FeedbackMode)
	assert.Equal(t, "trace", cfg.Logger.Level)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestFlagsBadFeedbackMode(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(nopWriter{})
	bindFlags(fs, config.Default())
	assert.Error(t, fs.Parse([]string{"--feedback-mode", "sometimes"}))
}

func TestFlagsOverConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, os.WriteFile(path, []byte("[OSC]\nreceive-port = 9100\nsend-port = 9200\n"), 0o600))

	o, fs := parse(t, "--config", path, "--send-port", "9300", "--forward")
	cfg, err := config.NewConfig(o.configFile)
	require.NoError(t, err)
	o.apply(fs, cfg)

	assert.Equal(t, 9100, cfg.OSC.ReceivePort)
	assert.Equal(t, 9300, cfg.OSC.SendPort)
	assert.NoError(t, cfg.Validate())
}

func TestForwardSamePortsRejected(t *testing.T) {
	o, fs := parse(t, "-f", "-r", "9001", "-s", "9001")
	cfg := config.Default()
	o.apply(fs, &cfg)
	assert.ErrorIs(t, cfg.Validate(), config.ErrSamePorts)
}

func TestConvertConfigReceiver(t *testing.T) {
	c := ConvertConfigReceiver(config.OSCConf{ReceivePort: 9001, SendPort: 9002})
	assert.Equal(t, "0.0.0.0:9001", c.ListenAddr)
	assert.Empty(t, c.ForwardAddr)

	c = ConvertConfigReceiver(config.OSCConf{ReceivePort: 9001, SendPort: 9002, Forward: true})
	assert.Equal(t, "127.0.0.1:9002", c.ForwardAddr)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
