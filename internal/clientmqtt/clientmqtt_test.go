package clientmqtt

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"osc2truegear/internal/logger"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type recordingSink struct {
	mu     sync.Mutex
	values map[string]float32
}

func (s *recordingSink) SetChannel(key string, v float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = v
	return true
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(logger.Discard(), MQTTConf{Host: "localhost", Port: "1883"}, nil)
	assert.True(t, strings.HasPrefix(c.cfgClient.ClientID, "osc2truegear-"))
	assert.Len(t, c.cfgClient.ClientID, len("osc2truegear-")+8)
	assert.Equal(t, "tcp", c.cfgClient.Schema)
	assert.Equal(t, "truegear", c.cfgClient.TopicPrefix)
	assert.Equal(t, "truegear/status", c.topic(topicStatus))
	assert.Equal(t, 5*time.Second, c.cfgClient.ConnectTimeout)

	named := NewClient(logger.Discard(), MQTTConf{ClientID: "bridge", TopicPrefix: "vest"}, nil)
	assert.Equal(t, "bridge", named.cfgClient.ClientID)
	assert.Equal(t, "vest/link", named.topic(topicLink))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in      string
		want    float32
		wantErr bool
	}{
		{"0.5", 0.5, false},
		{" 1 \n", 1, false},
		{"0", 0, false},
		{"-2.5", -2.5, false},
		{"true", 1, false},
		{"False", 0, false},
		{"", 0, true},
		{"half", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseValue([]byte(tt.in))
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMessageHandler(t *testing.T) {
	ch := make(chan DataCh, 4)
	c := NewClient(logger.Discard(), MQTTConf{}, nil)
	c.ctx = context.Background()
	c.dataCh = ch

	c.messageHandler(nil, fakeMessage{topic: "truegear/TrueGearA1", payload: []byte("0.7")})
	c.messageHandler(nil, fakeMessage{topic: "truegear/status", payload: []byte("1")})
	c.messageHandler(nil, fakeMessage{topic: "truegear/link", payload: []byte("1")})
	c.messageHandler(nil, fakeMessage{topic: "truegear/TrueGearA2", payload: []byte("loud")})
	c.messageHandler(nil, fakeMessage{topic: "truegear/TrueGearArmL", payload: []byte("true")})

	require.Len(t, ch, 2)
	assert.Equal(t, DataCh{Channel: "TrueGearA1", Value: 0.7}, <-ch)
	assert.Equal(t, DataCh{Channel: "TrueGearArmL", Value: 1}, <-ch)
}

func TestMessageHandlerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(logger.Discard(), MQTTConf{}, nil)
	c.ctx = ctx
	c.dataCh = make(chan DataCh)

	done := make(chan struct{})
	go func() {
		c.messageHandler(nil, fakeMessage{topic: "truegear/TrueGearA1", payload: []byte("1")})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler blocked after cancel")
	}
}

func TestForward(t *testing.T) {
	ch := make(chan DataCh, 2)
	sink := &recordingSink{values: map[string]float32{}}
	ch <- DataCh{Channel: "TrueGearB3", Value: 0.25}
	ch <- DataCh{Channel: "TrueGearB4", Value: 0}
	close(ch)

	Forward(context.Background(), ch, sink)

	assert.Equal(t, map[string]float32{"TrueGearB3": 0.25, "TrueGearB4": 0}, sink.values)
}

func TestStopAndPublishWithoutStart(t *testing.T) {
	c := NewClient(logger.Discard(), MQTTConf{}, nil)
	assert.NoError(t, c.Stop())
	assert.NotPanics(t, func() { c.PublishLink(true) })
}
