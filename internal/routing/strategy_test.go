package routing

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressFor(t *testing.T) {
	direct := net.ParseIP("10.0.1.10")

	for _, s := range []Strategy{Loopback, Broadcast, Direct} {
		ip, ok := AddressFor(direct, s)
		require.True(t, ok, s.String())
		switch s {
		case Loopback:
			assert.True(t, ip.Equal(LoopbackIP))
		case Broadcast:
			assert.True(t, ip.Equal(BroadcastIP))
		case Direct:
			assert.True(t, ip.Equal(direct))
		}
	}

	_, ok := AddressFor(direct, Disabled)
	assert.False(t, ok)
	_, ok = AddressFor(nil, Direct)
	assert.False(t, ok)
}

func TestLoopbackIgnoresDirectAddress(t *testing.T) {
	for _, a := range []string{"10.0.0.1", "192.168.6.20", "255.255.255.255"} {
		ip, ok := AddressFor(net.ParseIP(a), Loopback)
		require.True(t, ok)
		assert.Equal(t, LoopbackClass, Classify(ip), a)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, LoopbackClass, Classify(net.ParseIP("127.0.0.1")))
	assert.Equal(t, LoopbackClass, Classify(net.ParseIP("127.1.2.3")))
	assert.Equal(t, BroadcastClass, Classify(net.ParseIP("255.255.255.255")))
	assert.Equal(t, Unicast, Classify(net.ParseIP("10.0.1.10")))
}

func TestAccepts(t *testing.T) {
	tests := []struct {
		s    Strategy
		c    Class
		want bool
	}{
		{Loopback, LoopbackClass, true},
		{Loopback, BroadcastClass, false},
		{Loopback, Unicast, false},
		{Broadcast, BroadcastClass, true},
		{Broadcast, Unicast, false},
		{Direct, Unicast, true},
		{Direct, BroadcastClass, false},
		{Direct, LoopbackClass, false},
		{Disabled, Unicast, false},
		{Disabled, LoopbackClass, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Accepts(tt.s, tt.c), "%s/%s", tt.s, tt.c)
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []Strategy{Disabled, Direct, Loopback, Broadcast} {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseStrategy(" Broadcast ")
	require.NoError(t, err)
	assert.Equal(t, Broadcast, got)

	got, err = ParseStrategy("none")
	require.NoError(t, err)
	assert.Equal(t, Disabled, got)

	_, err = ParseStrategy("multicast")
	assert.Error(t, err)
}

func TestSelfFilter(t *testing.T) {
	assert.False(t, SelfFilter(Loopback))
	assert.True(t, SelfFilter(Direct))
	assert.True(t, SelfFilter(Broadcast))
}
