package secret

import (
	"runtime"
	"sync"
)

// Buffer holds sensitive bytes in memory that is locked when the platform
// allows it and zeroed on Destroy.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// Take copies src into a new Buffer and zeroes src.
func Take(src []byte) *Buffer {
	b := &Buffer{data: make([]byte, len(src))}
	b.locked = mlock(b.data)
	copy(b.data, src)
	Zero(src)

	runtime.SetFinalizer(b, func(b *Buffer) { b.Destroy() })
	return b
}

// Bytes returns the held bytes, or nil after Destroy.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// String returns the held bytes as a string. The copy is not zeroed.
func (b *Buffer) String() string {
	return string(b.Bytes())
}

// Len returns the number of held bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Locked reports whether the memory is pinned.
func (b *Buffer) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Destroy zeroes and releases the buffer. Safe to call more than once.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return
	}
	Zero(b.data)
	if b.locked {
		munlock(b.data)
		b.locked = false
	}
	b.data = nil
	runtime.SetFinalizer(b, nil)
}

// Zero overwrites p with zeros.
func Zero(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
