package cache

import (
	"sync"

	"github.com/penwyp/go-calltime/internal/core/model"
)

// MemoryStore keeps channel histories in process memory. Nothing survives
// the process, so every run against it refetches the whole channel.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]model.Message
	saves   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]model.Message),
	}
}

func (ms *MemoryStore) Load(channelId string) ([]model.Message, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	messages := ms.entries[channelId]
	out := make([]model.Message, len(messages))
	copy(out, messages)
	return out, nil
}

func (ms *MemoryStore) Save(channelId string, messages []model.Message) error {
	stored := make([]model.Message, len(messages))
	copy(stored, messages)

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.entries[channelId] = stored
	ms.saves++
	return nil
}

func (ms *MemoryStore) Clear(channelId string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.entries, channelId)
	return nil
}

// Saves reports how many times Save has been called.
func (ms *MemoryStore) Saves() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.saves
}
