// Package page wires the stores, URL synchronizer and reconcilers of one
// storefront page to its view and to the browser-side collaborators.
package page

import (
	"slices"
	"sync"

	"storefront.GO/core/errs"
)

// Login and cart locations the pages navigate to.
const (
	LoginURL = "/login.html"
	CartURL  = "/cart.html"
)

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(msg string) bool
}

// Level of a notification.
type Level string

const (
	Info  Level = "info"
	Error Level = "error"
)

// Notifier shows transient messages (toasts).
type Notifier interface {
	Notify(level Level, msg string)
}

// Navigator leaves the current page.
type Navigator interface {
	Navigate(url string)
}

// EventCartCountChanged is published after an item was added to the cart.
const EventCartCountChanged = "cartCountChanged"

// Bus carries cross-page events. Handlers run synchronously in
// subscription order.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]func())}
}

// Subscribe registers fn for event and returns its cancel function.
func (b *Bus) Subscribe(event string, fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[event] == nil {
		b.subs[event] = make(map[int]func())
	}
	id := b.next
	b.next++
	b.subs[event][id] = fn
	return func() {
		b.mu.Lock()
		delete(b.subs[event], id)
		b.mu.Unlock()
	}
}

func (b *Bus) Publish(event string) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.subs[event]))
	for id := range b.subs[event] {
		ids = append(ids, id)
	}
	fns := make([]func(), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, b.subs[event][id])
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// report shows err to the user. Auth failures send the user to log in;
// stale responses are silent.
func report(n Notifier, nav Navigator, err error) {
	switch {
	case err == nil, errs.IsStale(err):
	case errs.IsAuthRequired(err):
		if nav != nil {
			nav.Navigate(LoginURL)
		}
	default:
		if n != nil {
			n.Notify(Error, errs.MessageOf(err))
		}
	}
}

func notify(n Notifier, level Level, msg string) {
	if n != nil {
		n.Notify(level, msg)
	}
}
