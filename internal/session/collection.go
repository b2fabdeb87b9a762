package session

import (
	"slices"
	"sync"

	"github.com/casualjim/scriptbridge/pkg/stdx"
)

// DataAddedHandler is called after an item is appended to a Collection.
// sender is the collection and index the position of the new item.
type DataAddedHandler func(sender any, index int)

// Collection is an engine delivery collection. The engine appends records to
// it and subscribers are notified synchronously on the appending goroutine.
// Items stay in the collection until a subscriber removes them.
type Collection[T any] struct {
	mu        sync.Mutex
	items     []T
	handlers  []DataAddedHandler
	completed bool
}

// NewCollection creates an empty, open collection.
func NewCollection[T any]() *Collection[T] {
	return &Collection[T]{}
}

// OnDataAdded subscribes h to new items.
func (c *Collection[T]) OnDataAdded(h DataAddedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
}

// Add appends item and notifies subscribers. It reports false when the
// collection is already complete.
func (c *Collection[T]) Add(item T) bool {
	c.mu.Lock()
	if c.completed {
		c.mu.Unlock()
		return false
	}
	c.items = append(c.items, item)
	index := len(c.items) - 1
	handlers := slices.Clone(c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(c, index)
	}
	return true
}

// At returns the item at index.
func (c *Collection[T]) At(index int) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.items) {
		return stdx.Zero[T](), false
	}
	return c.items[index], true
}

// RemoveAt removes the item at index, shifting later items down.
func (c *Collection[T]) RemoveAt(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.items) {
		return false
	}
	c.items = slices.Delete(c.items, index, index+1)
	return true
}

// Len returns the number of items not yet removed.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Items returns a copy of the items not yet removed.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Complete closes the collection for writing and drops every subscriber.
func (c *Collection[T]) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = true
	c.handlers = nil
}

// IsCompleted reports whether Complete has been called.
func (c *Collection[T]) IsCompleted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}
