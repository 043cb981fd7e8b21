package device

import (
	"fmt"
	"sync"

	"github.com/mjoret/emovi/apimodel"
)

// Board is the registry of named board devices. The display controller
// acquires its hardware through it instead of constructing drivers itself,
// which keeps the bring-up mockable.
type Board struct {
	lock    sync.RWMutex
	handles map[string]interface{}
	configs map[string]interface{}
}

func NewBoard() *Board {
	return &Board{
		handles: make(map[string]interface{}),
		configs: make(map[string]interface{}),
	}
}

func (b *Board) RegisterDevice(name string, handle interface{}, config interface{}) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.handles[name] = handle
	b.configs[name] = config
}

func (b *Board) Handle(name string) (interface{}, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	handle, ok := b.handles[name]
	if !ok {
		return nil, fmt.Errorf("device %q: %w", name, apimodel.ErrNotFound)
	}
	return handle, nil
}

func (b *Board) Config(name string) (interface{}, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	config, ok := b.configs[name]
	if !ok {
		return nil, fmt.Errorf("device config %q: %w", name, apimodel.ErrNotFound)
	}
	return config, nil
}
