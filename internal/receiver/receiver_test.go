package receiver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"osc2truegear/internal/logger"
	"osc2truegear/internal/mapping"
)

type recordingConsumer struct {
	messages chan *osc.Message
}

func (c *recordingConsumer) ConsumeMessage(msg *osc.Message) bool {
	c.messages <- msg
	return true
}

func newRecordingConsumer() *recordingConsumer {
	return &recordingConsumer{messages: make(chan *osc.Message, 4)}
}

func startReceiver(t *testing.T, forward string, consumer MessageConsumer) *Receiver {
	t.Helper()
	r, err := NewReceiver(logger.Discard(), Conf{ListenAddr: "127.0.0.1:0", ForwardAddr: forward}, consumer, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Start(ctx))
	t.Cleanup(func() {
		cancel()
		r.Stop()
	})
	return r
}

func sendDatagram(t *testing.T, to net.Addr, data []byte) {
	t.Helper()
	conn, err := net.Dial("udp", to.String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write(data)
	require.NoError(t, err)
}

func marshal(t *testing.T, msg *osc.Message) []byte {
	t.Helper()
	data, err := msg.MarshalBinary()
	require.NoError(t, err)
	return data
}

func TestReceiveMessage(t *testing.T) {
	c := newRecordingConsumer()
	r := startReceiver(t, "", c)

	sendDatagram(t, r.Addr(), marshal(t, osc.NewMessage("/avatar/parameters/TrueGearA1", float32(0.5))))

	select {
	case msg := <-c.messages:
		assert.Equal(t, "/avatar/parameters/TrueGearA1", msg.Address)
		assert.Equal(t, []interface{}{float32(0.5)}, msg.Arguments)
	case <-time.After(2 * time.Second):
		t.Fatal("packet not consumed")
	}
}

func TestForwardRawDatagram(t *testing.T) {
	sink, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer sink.Close()

	c := newRecordingConsumer()
	r := startReceiver(t, sink.LocalAddr().String(), c)

	// Unknown channels are still forwarded untouched.
	data := marshal(t, osc.NewMessage("/avatar/parameters/SomethingElse", int32(7)))
	sendDatagram(t, r.Addr(), data)

	require.NoError(t, sink.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1024)
	n, _, err := sink.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, data, buf[:n])
	<-c.messages
}

func TestInvalidDatagramDropped(t *testing.T) {
	sink, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer sink.Close()

	c := newRecordingConsumer()
	r := startReceiver(t, sink.LocalAddr().String(), c)

	sendDatagram(t, r.Addr(), []byte("not osc"))
	valid := marshal(t, osc.NewMessage("/x/TrueGearA1", float32(1)))
	sendDatagram(t, r.Addr(), valid)

	require.NoError(t, sink.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1024)
	n, _, err := sink.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, valid, buf[:n], "only the decodable datagram is forwarded")

	select {
	case msg := <-c.messages:
		assert.Equal(t, "/x/TrueGearA1", msg.Address)
	case <-time.After(2 * time.Second):
		t.Fatal("packet not consumed")
	}
	assert.Len(t, c.messages, 0)
}

func TestReceiveIntoMapper(t *testing.T) {
	m := mapping.NewMapper(logger.Discard(), mapping.Continuous, nil)
	r := startReceiver(t, "", m)

	b := osc.NewBundle(time.Now())
	require.NoError(t, b.Append(osc.NewMessage("/avatar/parameters/TrueGearA1", float32(1))))
	require.NoError(t, b.Append(osc.NewMessage("/avatar/parameters/TrueGearArmL", true)))
	data, err := b.MarshalBinary()
	require.NoError(t, err)
	sendDatagram(t, r.Addr(), data)

	params := mapping.Params{ShakeIntensity: 50, ElectricalIntensity: 30, ElectricalInterval: 10}
	require.Eventually(t, func() bool {
		e := m.BuildEffect(params)
		return e != nil && len(e.Tracks) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReceiveBundleLargerThanDecoderBuffer(t *testing.T) {
	m := mapping.NewMapper(logger.Discard(), mapping.Continuous, nil)
	r := startReceiver(t, "", m)

	elems := make([][]byte, 0, 201)
	for i := 0; i < 200; i++ {
		elems = append(elems, marshal(t, osc.NewMessage("/avatar/parameters/Filler", float32(0.1))))
	}
	elems = append(elems, marshal(t, osc.NewMessage("/avatar/parameters/TrueGearH5", float32(1))))
	data := bundle(elems...)
	require.Greater(t, len(data), 4096)

	sendDatagram(t, r.Addr(), data)

	idx, ok := mapping.Resolve("TrueGearH5")
	require.True(t, ok)
	require.Eventually(t, func() bool {
		return m.Table().Active()[idx]
	}, 2*time.Second, 10*time.Millisecond, "last message of the bundle must be applied")
}

func TestBindFailure(t *testing.T) {
	taken, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer taken.Close()

	r, err := NewReceiver(logger.Discard(), Conf{ListenAddr: taken.LocalAddr().String()}, &recordingConsumer{}, nil)
	require.NoError(t, err)
	assert.Error(t, r.Start(context.Background()))
	r.Stop()
}

func TestBadForwardAddress(t *testing.T) {
	_, err := NewReceiver(logger.Discard(), Conf{ListenAddr: "127.0.0.1:0", ForwardAddr: "no-port"}, &recordingConsumer{}, nil)
	assert.Error(t, err)
}

func TestStopOnContextCancel(t *testing.T) {
	r, err := NewReceiver(logger.Discard(), Conf{ListenAddr: "127.0.0.1:0"}, &recordingConsumer{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Start(ctx))
	cancel()

	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not exit")
	}
	r.Stop()
}

func TestLocalIPv4s(t *testing.T) {
	ips, err := LocalIPv4s()
	require.NoError(t, err)
	for _, ip := range ips {
		assert.NotNil(t, ip.To4())
		assert.False(t, ip.IsLoopback())
	}
}

func TestIsWildcard(t *testing.T) {
	assert.True(t, isWildcard(&net.UDPAddr{Port: 9001}))
	assert.True(t, isWildcard(&net.UDPAddr{IP: net.IPv4zero, Port: 9001}))
	assert.False(t, isWildcard(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9001}))
}
