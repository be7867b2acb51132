package capture

// Buffer is a bounded FIFO. Pushing onto a full buffer drops the oldest item.
type Buffer[T any] struct {
	items    []T
	capacity int
}

// NewBuffer creates a buffer holding at most capacity items. A capacity
// below one is raised to one.
func NewBuffer[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push appends v, evicting the oldest item when full.
func (b *Buffer[T]) Push(v T) {
	if len(b.items) >= b.capacity {
		// Shift left by 1, removing oldest item
		copy(b.items, b.items[1:])
		b.items = b.items[:b.capacity-1]
	}
	b.items = append(b.items, v)
}

// Items returns a copy of the buffered items, oldest first.
func (b *Buffer[T]) Items() []T {
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	return len(b.items)
}

// Cap returns the buffer capacity.
func (b *Buffer[T]) Cap() int {
	return b.capacity
}

// Clear empties the buffer and keeps its storage.
func (b *Buffer[T]) Clear() {
	clear(b.items)
	b.items = b.items[:0]
}
