package clientmqtt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"osc2truegear/internal/logger"
	"osc2truegear/internal/metrics"
)

// ClientMQTT структура клиента MQTT.
// Принимает значения каналов из топиков <prefix>/<канал> и публикует состояние моста.
type ClientMQTT struct {
	ctx       context.Context
	log       logger.Logger
	cfgClient MQTTConf
	client    mqtt.Client
	opts      *mqtt.ClientOptions
	dataCh    chan<- DataCh
	metrics   *metrics.Metrics
}

// NewClient конструктор.
func NewClient(log logger.Logger, cfgClient MQTTConf, m *metrics.Metrics) *ClientMQTT {
	if cfgClient.ClientID == "" {
		cfgClient.ClientID = "osc2truegear-" + uuid.NewString()[:8]
	}
	if cfgClient.Schema == "" {
		cfgClient.Schema = "tcp"
	}
	if cfgClient.TopicPrefix == "" {
		cfgClient.TopicPrefix = "truegear"
	}
	if cfgClient.ConnectTimeout <= 0 {
		cfgClient.ConnectTimeout = 5 * time.Second
	}
	return &ClientMQTT{
		log:       log,
		cfgClient: cfgClient,
		metrics:   m,
	}
}

func (c *ClientMQTT) Start(ctx context.Context, dataCh chan<- DataCh) error {
	if c.log.GetLevel() == "debug" || c.log.GetLevel() == "trace" {
		mqtt.ERROR = log.New(os.Stdout, "[ERROR] ", 0)
		mqtt.CRITICAL = log.New(os.Stdout, "[CRIT] ", 0)
		mqtt.WARN = log.New(os.Stdout, "[WARN]  ", 0)
	}

	c.ctx = ctx
	c.dataCh = dataCh

	c.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%s", c.cfgClient.Schema, c.cfgClient.Host, c.cfgClient.Port)).
		SetUsername(c.cfgClient.User).
		SetPassword(c.cfgClient.Password).
		SetDefaultPublishHandler(c.messageHandler).
		SetOnConnectHandler(c.connectHandler).
		SetConnectionLostHandler(c.connectLostHandler).
		SetClientID(c.cfgClient.ClientID).
		SetBinaryWill(c.topic(topicStatus), []byte(payloadOffline), c.cfgClient.Qos, true).
		SetOrderMatters(false).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	c.client = mqtt.NewClient(c.opts)

	token := c.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return token.Error()
		}
	case <-time.After(c.cfgClient.ConnectTimeout):
		// Клиент продолжает попытки подключения в фоне.
		c.log.With(logger.Fields{"module": "mqtt"}).Warnf("broker not reachable after %v, retrying in background", c.cfgClient.ConnectTimeout)
		return nil
	case <-c.ctx.Done():
		return errors.New("context canceled")
	}

	c.log.With(logger.Fields{"module": "mqtt"}).Infof("Status: %v", c.client.IsConnected())
	return nil
}

func (c *ClientMQTT) Stop() error {
	if c.client == nil {
		return nil
	}
	if c.client.IsConnected() {
		token := c.client.Publish(c.topic(topicStatus), c.cfgClient.Qos, true, payloadOffline)
		token.WaitTimeout(500 * time.Millisecond)
	}
	c.client.Disconnect(500)
	return nil
}

// PublishLink публикует состояние соединения с TrueGear. Не блокирует вызывающего.
func (c *ClientMQTT) PublishLink(connected bool) {
	if c.client == nil {
		return
	}
	payload := payloadDisconnected
	if connected {
		payload = payloadConnected
	}
	go c.publish(c.topic(topicLink), payload)
}

func (c *ClientMQTT) publish(topic, payload string) {
	token := c.client.Publish(topic, c.cfgClient.Qos, true, payload)
	select {
	case <-c.ctx.Done():
		return
	case <-token.Done():
		if token.Error() != nil {
			c.log.With(logger.Fields{"module": "mqtt"}).Errorf("error publish topic %s. %v", topic, token.Error())
		}
	}
}

func (c *ClientMQTT) connectHandler(_ mqtt.Client) {
	c.log.With(logger.Fields{"module": "mqtt"}).Info("client connected to server")
	go c.publish(c.topic(topicStatus), payloadOnline)
	c.sub(c.topic("+"))
}

func (c *ClientMQTT) connectLostHandler(_ mqtt.Client, err error) {
	c.log.With(logger.Fields{"module": "mqtt"}).Errorf("server connect lost: %v", err)
}

func (c *ClientMQTT) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	c.log.With(logger.Fields{"module": "mqtt"}).Debugf("received message: %s from topic: %s", msg.Payload(), msg.Topic())

	key := channelKey(msg.Topic())
	if key == "" || key == topicStatus || key == topicLink {
		return
	}
	v, err := ParseValue(msg.Payload())
	if err != nil {
		c.log.With(logger.Fields{"module": "mqtt"}).Debugf("message could not be parsed (%s): %v", msg.Payload(), err)
		return
	}
	c.metrics.MQTTValue()

	select {
	case c.dataCh <- DataCh{Channel: key, Value: v}:
	case <-c.ctx.Done():
	}
}

func (c *ClientMQTT) sub(topic string) {
	token := c.client.Subscribe(topic, c.cfgClient.Qos, nil)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.With(logger.Fields{"module": "mqtt"}).Errorf("topic %s subscription error. %v", topic, token.Error())
				return
			}
		}
		c.log.With(logger.Fields{"module": "mqtt"}).Debugf("topic %s subscribed", topic)
	}()
}

func (c *ClientMQTT) topic(name string) string {
	return c.cfgClient.TopicPrefix + "/" + name
}

// Forward передает значения из канала в sink до отмены контекста или закрытия канала.
func Forward(ctx context.Context, dataCh <-chan DataCh, sink ValueSink) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-dataCh:
			if !ok {
				return
			}
			sink.SetChannel(d.Channel, d.Value)
		}
	}
}

// ParseValue accepts a decimal number or true/false.
func ParseValue(payload []byte) (float32, error) {
	s := strings.TrimSpace(string(payload))
	switch strings.ToLower(s) {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}

func channelKey(topic string) string {
	return topic[strings.LastIndexByte(topic, '/')+1:]
}
