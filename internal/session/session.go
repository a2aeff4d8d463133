// Package session holds the identity of the owner currently signed in.
//
// A Holder has a single writer (the login path calls Set and Clear) and any
// number of concurrent readers. Subscribers are told about every change and
// can detach with the function Subscribe returns.
package session

import (
	"sync"

	"github.com/dmitrijs2005/bizsync/internal/common"
)

// Owner identifies the signed-in user.
type Owner struct {
	ID   string
	Name string
}

type Holder struct {
	mu      sync.RWMutex
	current *Owner
	nextID  int
	subs    map[int]func(*Owner)
}

func NewHolder() *Holder {
	return &Holder{subs: make(map[int]func(*Owner))}
}

// Current returns the signed-in owner or common.ErrNoSession.
func (h *Holder) Current() (Owner, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return Owner{}, common.ErrNoSession
	}
	return *h.current, nil
}

func (h *Holder) Set(o Owner) {
	h.mu.Lock()
	cp := o
	h.current = &cp
	subs := h.snapshot()
	h.mu.Unlock()

	for _, fn := range subs {
		v := cp
		fn(&v)
	}
}

func (h *Holder) Clear() {
	h.mu.Lock()
	if h.current == nil {
		h.mu.Unlock()
		return
	}
	h.current = nil
	subs := h.snapshot()
	h.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
}

// Subscribe registers fn for changes. fn receives nil on sign-out.
func (h *Holder) Subscribe(fn func(*Owner)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// callers hold h.mu
func (h *Holder) snapshot() []func(*Owner) {
	out := make([]func(*Owner), 0, len(h.subs))
	for i := 0; i < h.nextID; i++ {
		if fn, ok := h.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}
