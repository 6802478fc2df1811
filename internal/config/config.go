package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrSamePorts возвращается, когда пересылка включена, а порты приема и отправки совпадают.
var ErrSamePorts = errors.New("receive-port and send-port must differ when forwarding is enabled")

// Config структура конфигурации.
type Config struct {
	Logger   LogConf      // Logger - конфигурация регистратора.
	OSC      OSCConf      // OSC - прием (и пересылка) OSC пакетов.
	TrueGear TrueGearConf // TrueGear - подключение к сервису TrueGear и параметры эффектов.
	MQTT     MQTTConf     // MQTT - конфигурация MQTT клиента.
	Metrics  MetricsConf  // Metrics - HTTP сервер с метриками Prometheus.
}

// LogConf структура конфигурации.
type LogConf struct {
	Level string `toml:"log-level"` // Level - уровень логирования.
}

// OSCConf структура конфигурации.
type OSCConf struct {
	ReceivePort int  `toml:"receive-port"` // ReceivePort - UDP порт приема OSC.
	SendPort    int  `toml:"send-port"`    // SendPort - UDP порт, куда пересылаются принятые пакеты.
	Forward     bool `toml:"forward"`      // Forward - включает пересылку.
}

// TrueGearConf структура конфигурации.
type TrueGearConf struct {
	URL                 string `toml:"ws-url"`               // URL - адрес WebSocket сервиса TrueGear.
	ShakeIntensity      int    `toml:"shake-intensity"`      // ShakeIntensity - базовая интенсивность вибрации.
	ElectricalIntensity int    `toml:"electrical-intensity"` // ElectricalIntensity - базовая интенсивность электростимуляции.
	ElectricalInterval  int    `toml:"electrical-interval"`  // ElectricalInterval - интервал электростимуляции.
	FeedbackMode        string `toml:"feedback-mode"`        // FeedbackMode - continuous или once.
	TickMillis          int    `toml:"tick-ms"`              // TickMillis - период построения эффектов.
	HandshakeMillis     int    `toml:"handshake-timeout-ms"` // HandshakeMillis - таймаут рукопожатия WebSocket.
}

// MQTTConf структура конфигурации.
type MQTTConf struct {
	Enabled     bool   `toml:"enabled"`      // Enabled - включает MQTT канал.
	ClientID    string `toml:"clientID"`     // ClientID - имя клиента.
	Host        string `toml:"server"`       // Host - адрес MQTT сервера.
	Port        string `toml:"port"`         // Port - порт MQTT сервера.
	User        string `toml:"user"`         // User - логин для подключения к MQTT серверу.
	Password    string `toml:"password"`     // Password - пароль для подключения к MQTT серверу.
	Qos         byte   `toml:"qos"`          // Qos - качество обслуживания.
	TopicPrefix string `toml:"topic-prefix"` // TopicPrefix - префикс топиков.
}

// MetricsConf структура конфигурации.
type MetricsConf struct {
	Addr string `toml:"addr"` // Addr - адрес HTTP сервера метрик, пустая строка отключает сервер.
}

// Default returns the configuration used when no file and no flags are given.
func Default() Config {
	return Config{
		Logger: LogConf{Level: "info"},
		OSC: OSCConf{
			ReceivePort: 9001,
			SendPort:    9002,
		},
		TrueGear: TrueGearConf{
			URL:                 "ws://127.0.0.1:18233/v1/tact/",
			ShakeIntensity:      50,
			ElectricalIntensity: 30,
			ElectricalInterval:  10,
			FeedbackMode:        "continuous",
			TickMillis:          100,
			HandshakeMillis:     5000,
		},
		MQTT: MQTTConf{
			Host:        "127.0.0.1",
			Port:        "1883",
			TopicPrefix: "truegear",
		},
	}
}

// NewConfig конструктор. Пустой путь означает конфигурацию по умолчанию.
func NewConfig(path string) (*Config, error) {
	// default values
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}

// Validate проверяет конфигурацию до открытия сокетов.
func (c *Config) Validate() error {
	if err := checkPort("receive-port", c.OSC.ReceivePort); err != nil {
		return err
	}
	if c.OSC.Forward {
		if err := checkPort("send-port", c.OSC.SendPort); err != nil {
			return err
		}
		if c.OSC.ReceivePort == c.OSC.SendPort {
			return ErrSamePorts
		}
	}

	tg := c.TrueGear
	if tg.URL == "" {
		return errors.New("truegear ws-url is empty")
	}
	if tg.ShakeIntensity < 0 || tg.ShakeIntensity > 0xFFFF {
		return fmt.Errorf("shake-intensity %d out of range", tg.ShakeIntensity)
	}
	if tg.ElectricalIntensity < 0 || tg.ElectricalIntensity > 0xFFFF {
		return fmt.Errorf("electrical-intensity %d out of range", tg.ElectricalIntensity)
	}
	if tg.ElectricalInterval < 0 || tg.ElectricalInterval > 0xFF {
		return fmt.Errorf("electrical-interval %d out of range", tg.ElectricalInterval)
	}
	switch strings.ToLower(tg.FeedbackMode) {
	case "continuous", "once":
	default:
		return fmt.Errorf("unknown feedback-mode %q", tg.FeedbackMode)
	}
	if tg.TickMillis <= 0 {
		return fmt.Errorf("tick-ms must be positive, got %d", tg.TickMillis)
	}

	if c.MQTT.Enabled && c.MQTT.Host == "" {
		return errors.New("mqtt enabled but server is empty")
	}
	return nil
}

func checkPort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s %d out of range", name, port)
	}
	return nil
}
