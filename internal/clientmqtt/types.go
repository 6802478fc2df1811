package clientmqtt

import "time"

type MQTTConf struct {
	ClientID       string        // ClientID - уникальное имя клиента для брокеров.
	Schema         string        // Schema - тип подключения.
	Host           string        // Host - адрес MQTT сервера.
	Port           string        // Port - порт MQTT сервера.
	User           string        // User - логин для подключения к MQTT серверу.
	Password       string        // Password - пароль для подключения к MQTT серверу.
	Qos            byte          // Qos - качество обслуживания.
	TopicPrefix    string        // TopicPrefix - префикс всех топиков моста.
	ConnectTimeout time.Duration // ConnectTimeout - сколько ждать первого подключения при старте.
}

// DataCh is one channel value received over MQTT.
type DataCh struct {
	Channel string
	Value   float32
}

// ValueSink receives channel values, see mapping.Mapper.SetChannel.
type ValueSink interface {
	SetChannel(key string, v float32) bool
}

const (
	topicStatus = "status"
	topicLink   = "link"

	payloadOnline       = "online"
	payloadOffline      = "offline"
	payloadConnected    = "connected"
	payloadDisconnected = "disconnected"
)
