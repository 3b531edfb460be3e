package router

import "sync"

// History is the browser history as the controller sees it.
type History interface {
	// Push adds a new entry.
	Push(url string)

	// Replace overwrites the current entry.
	Replace(url string)

	// Current returns the current entry's URL.
	Current() string
}

// MemoryHistory is an in-process history stack with back/forward support.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []string
	index   int
}

// NewMemoryHistory creates a history whose only entry is initial.
func NewMemoryHistory(initial string) *MemoryHistory {
	return &MemoryHistory{entries: []string{initial}}
}

// Push drops any forward entries and appends url.
func (h *MemoryHistory) Push(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], url)
	h.index = len(h.entries) - 1
}

// Replace overwrites the current entry.
func (h *MemoryHistory) Replace(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = url
}

// Current returns the current entry.
func (h *MemoryHistory) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Back moves one entry back and returns it. It returns false at the start.
func (h *MemoryHistory) Back() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index == 0 {
		return "", false
	}
	h.index--
	return h.entries[h.index], true
}

// Forward moves one entry forward and returns it. It returns false at the end.
func (h *MemoryHistory) Forward() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= len(h.entries)-1 {
		return "", false
	}
	h.index++
	return h.entries[h.index], true
}

// Entries returns a copy of all entries.
func (h *MemoryHistory) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Outlet is the content region that committed navigations write into.
type Outlet interface {
	Swap(content []byte)
}

// BufferOutlet keeps the last swapped content in memory.
type BufferOutlet struct {
	mu      sync.Mutex
	content []byte
	swaps   int
}

// Swap replaces the content.
func (o *BufferOutlet) Swap(content []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.content = append(o.content[:0:0], content...)
	o.swaps++
}

// Content returns a copy of the current content.
func (o *BufferOutlet) Content() []byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]byte(nil), o.content...)
}

// Swaps returns how many times content was replaced.
func (o *BufferOutlet) Swaps() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.swaps
}
