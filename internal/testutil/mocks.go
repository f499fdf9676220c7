package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/devaloi/namechat/internal/kv"
	"github.com/devaloi/namechat/internal/registry"
)

// MockClient implements hub.Client for testing.
type MockClient struct {
	Addr     string
	messages [][]byte
	mu       sync.Mutex
}

// NewMockClient creates a new MockClient for the given owner.
func NewMockClient(owner string) *MockClient {
	return &MockClient{Addr: owner}
}

// Owner returns the mock client's owner identifier.
func (m *MockClient) Owner() string { return m.Addr }

// Send records a frame sent to the mock client.
func (m *MockClient) Send(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.messages = append(m.messages, cp)
}

// GetMessages returns a copy of all frames received by the mock client.
func (m *MockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]byte, len(m.messages))
	copy(cp, m.messages)
	return cp
}

// FramesOfType returns the received frames whose "type" field equals typ.
func (m *MockClient) FramesOfType(typ string) []map[string]any {
	var out []map[string]any
	for _, data := range m.GetMessages() {
		var frame map[string]any
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame["type"] == typ {
			out = append(out, frame)
		}
	}
	return out
}

// NewStore opens a registry store over fresh in-memory storage.
func NewStore(opts ...registry.Option) (*registry.Store, *kv.Memory) {
	mem := kv.NewMemory()
	return registry.Open(context.Background(), mem, opts...), mem
}
