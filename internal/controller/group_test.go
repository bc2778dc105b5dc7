package controller

import (
	"net"
	"testing"

	"artnetsync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGroup(t *testing.T) {
	g, err := NewGroup(0x0103, net.ParseIP("10.0.1.10"), 360)
	require.NoError(t, err)
	assert.Len(t, g.Address, 4)
	assert.Len(t, g.Payload(), 512)

	a := g.PortAddress()
	assert.Equal(t, uint8(0x01), a.Net)
	assert.Equal(t, uint8(0x03), a.SubUni)

	_, err = NewGroup(1, nil, 513)
	assert.Error(t, err)
	_, err = NewGroup(1, net.ParseIP("::1"), 4)
	assert.Error(t, err)
}

func TestGroupsFromConfig(t *testing.T) {
	groups, err := GroupsFromConfig([]config.GroupConf{
		{ID: 0, Address: "10.0.1.10", Channels: 360},
		{ID: 1, Channels: 120},
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.True(t, groups[0].Address.Equal(net.ParseIP("10.0.1.10")))
	assert.Nil(t, groups[1].Address)

	_, err = GroupsFromConfig([]config.GroupConf{{ID: 0, Address: "nope"}})
	assert.Error(t, err)
}

func TestReceiveMap(t *testing.T) {
	m := NewReceiveMap()
	m.Register(3)

	dst := make([]byte, 512)
	assert.False(t, m.Store(4, []byte{1}))
	assert.False(t, m.Load(4, dst))

	require.True(t, m.Store(3, []byte{1, 2, 3, 4}))
	require.True(t, m.Store(3, []byte{9, 9}))
	require.True(t, m.Load(3, dst))
	assert.Equal(t, []byte{9, 9, 3, 4, 0}, dst[:5])

	m.Reset()
	require.True(t, m.Load(3, dst))
	assert.Equal(t, make([]byte, 512), dst)
}
