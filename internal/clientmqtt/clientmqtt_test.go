package clientmqtt

import (
	"context"
	"testing"

	"artnetsync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*ClientMQTT, chan DataCh) {
	t.Helper()
	c := NewClient(logger.Discard(), MQTTConf{ClientID: "test"})
	ch := make(chan DataCh, 1)
	c.ctx = context.Background()
	c.dmxDataCh = ch
	return c, ch
}

func TestSetTopicForwardsCommands(t *testing.T) {
	c, ch := newTestClient(t)
	c.AddGroup(3)

	c.sendDataToArtNet("artnet/3/set", []byte(`[{"Channel":1,"Value":255},{"Channel":2,"Value":7}]`))

	require.Len(t, ch, 1)
	got := <-ch
	assert.Equal(t, uint16(3), got.Addr)
	assert.Equal(t, Payload{{Channel: 1, Value: 255}, {Channel: 2, Value: 7}}, got.Data)
}

func TestUnknownTopicAndBadPayloadDropped(t *testing.T) {
	c, ch := newTestClient(t)
	c.AddGroup(3)

	c.sendDataToArtNet("artnet/4/set", []byte(`[]`))
	c.sendDataToArtNet("artnet/3/set", []byte(`{not json`))
	assert.Len(t, ch, 0)
}

func TestTopicPrefix(t *testing.T) {
	c := NewClient(logger.Discard(), MQTTConf{TopicPrefix: "hall"})
	assert.Equal(t, "hall/12/set", c.setTopic(12))
	assert.Equal(t, "hall/12/state", c.stateTopic(12))
	assert.Equal(t, "tcp", c.cfgClient.Schema)
}

func TestChangedOnlyOnNewPayload(t *testing.T) {
	c, _ := newTestClient(t)

	assert.True(t, c.changed(1, []byte{1, 2, 3}))
	assert.False(t, c.changed(1, []byte{1, 2, 3}))
	assert.True(t, c.changed(2, []byte{1, 2, 3}))
	assert.True(t, c.changed(1, []byte{1, 2, 4}))
}

func TestHandleGroupDataWithoutConnection(t *testing.T) {
	c, _ := newTestClient(t)
	assert.NotPanics(t, func() { c.HandleGroupData(1, []byte{1}) })
}
