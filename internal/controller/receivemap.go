package controller

import (
	"sync"

	"artnetsync/internal/artnet"
)

// ReceiveMap keeps the last payload received for each registered group.
// The receive loop writes, the tick goroutine reads; last write wins.
type ReceiveMap struct {
	mu   sync.RWMutex
	data map[uint16][artnet.MaxChannels]byte
}

func NewReceiveMap() *ReceiveMap {
	return &ReceiveMap{data: make(map[uint16][artnet.MaxChannels]byte)}
}

// Register creates a zeroed slot for id.
func (m *ReceiveMap) Register(id uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = [artnet.MaxChannels]byte{}
}

// Reset zeroes every slot.
func (m *ReceiveMap) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.data {
		m.data[id] = [artnet.MaxChannels]byte{}
	}
}

// Store copies payload over the start of id's slot. It returns false for an unknown group.
func (m *ReceiveMap) Store(id uint16, payload []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[id]
	if !ok {
		return false
	}
	copy(v[:], payload)
	m.data[id] = v
	return true
}

// Load copies id's slot into dst.
func (m *ReceiveMap) Load(id uint16, dst []byte) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[id]
	if !ok {
		return false
	}
	copy(dst, v[:])
	return true
}
