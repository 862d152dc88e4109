package urlsync

import "sync"

// History is the address bar of a page: a stack of URLs with a cursor.
type History interface {
	Current() string
	Push(u string)
	Replace(u string)
	Back() (string, bool)
	Forward() (string, bool)
}

// MemoryHistory is an in-process History. Push discards forward entries.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []string
	idx     int
}

func NewMemoryHistory(initial string) *MemoryHistory {
	return &MemoryHistory{entries: []string{initial}}
}

func (h *MemoryHistory) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.idx]
}

func (h *MemoryHistory) Push(u string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.idx+1], u)
	h.idx++
}

func (h *MemoryHistory) Replace(u string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.idx] = u
}

func (h *MemoryHistory) Back() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.idx == 0 {
		return h.entries[0], false
	}
	h.idx--
	return h.entries[h.idx], true
}

func (h *MemoryHistory) Forward() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.idx == len(h.entries)-1 {
		return h.entries[h.idx], false
	}
	h.idx++
	return h.entries[h.idx], true
}

// Len is the number of entries, including forward ones.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
