package store

import (
	"context"
	"log"
	"sync"
)

// feed fans out "something changed" signals to observers.
// Each subscriber channel has a buffer of one, so bursts of writes
// coalesce into a single pending signal.
type feed struct {
	mu     sync.Mutex
	subs   map[int]chan struct{}
	nextID int
	done   chan struct{}
	closed bool
}

func newFeed() *feed {
	return &feed{
		subs: make(map[int]chan struct{}),
		done: make(chan struct{}),
	}
}

func (f *feed) subscribe() (<-chan struct{}, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan struct{}, 1)
	id := f.nextID
	f.nextID++
	if !f.closed {
		f.subs[id] = ch
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

func (f *feed) publish() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (f *feed) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	f.subs = make(map[int]chan struct{})
	close(f.done)
}

// observe runs query once on subscribe and again after every change
// signal, sending each result on the returned channel. The channel is
// closed when ctx is done or the store is closed.
func observe[T any](ctx context.Context, f *feed, query func(context.Context) (T, error)) <-chan T {
	out := make(chan T)
	changed, unsubscribe := f.subscribe()

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			v, err := query(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("store: observe query failed: %v", err)
			} else {
				select {
				case out <- v:
				case <-ctx.Done():
					return
				case <-f.done:
					return
				}
			}

			select {
			case <-changed:
			case <-ctx.Done():
				return
			case <-f.done:
				return
			}
		}
	}()

	return out
}
