// Package events provides a typed in-process bus for monitor reports.
package events

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
)

// Bus fans reports out to typed subscribers inside one process.
//
// Subscribing to an interface type receives every published value implementing it.
// Publish waits for slow subscribers; TryPublish never waits and drops instead, which
// is what the tick path uses.
type Bus struct {
	mu        sync.RWMutex
	subs      map[reflect.Type]map[uint64]*subscriber
	nextID    atomic.Uint64
	dropped   atomic.Uint64
	isClosed  atomic.Bool
	closeOnce sync.Once
}

type subscriber struct {
	send    func(ctx context.Context, evt any) error
	trySend func(evt any) bool
	close   func()
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[reflect.Type]map[uint64]*subscriber),
	}
}

// Subscribe opens a feed of reports of type T: a single kind such as report.Anomaly,
// or report.Event to follow everything. Each SSE client holds one feed; its cancel
// func, or closing the bus, ends the feed by closing the channel.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	eventType := reflect.TypeFor[T]()
	ch := make(chan T, buffer)

	if b.isClosed.Load() {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID.Add(1)

	// chMu guards sends against a concurrent close of ch.
	var chMu sync.RWMutex
	closed := false
	closeChannel := func() {
		chMu.Lock()
		defer chMu.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}

	var unsubOnce sync.Once
	unsubscribe := func() {
		unsubOnce.Do(func() {
			b.mu.Lock()
			if typeSubs, ok := b.subs[eventType]; ok {
				delete(typeSubs, id)
				if len(typeSubs) == 0 {
					delete(b.subs, eventType)
				}
			}
			b.mu.Unlock()

			closeChannel()
		})
	}

	sub := &subscriber{
		send: func(ctx context.Context, evt any) error {
			v, ok := evt.(T)
			if !ok {
				return ferrors.InternalError("event type mismatch").
					WithContext("expected", eventType.String()).
					WithContext("actual", reflect.TypeOf(evt).String()).
					Build()
			}

			chMu.RLock()
			defer chMu.RUnlock()
			if closed {
				return nil
			}
			select {
			case ch <- v:
				return nil
			case <-ctx.Done():
				return ferrors.WrapError(ctx.Err(), ferrors.CategoryRuntime, "event publish canceled").
					WithContext("event_type", eventType.String()).
					Build()
			}
		},
		trySend: func(evt any) bool {
			v, ok := evt.(T)
			if !ok {
				return false
			}
			chMu.RLock()
			defer chMu.RUnlock()
			if closed {
				return false
			}
			select {
			case ch <- v:
				return true
			default:
				return false
			}
		},
		close: closeChannel,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed.Load() {
		closeChannel()
		return ch, func() {}
	}

	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[uint64]*subscriber)
	}
	b.subs[eventType][id] = sub

	return ch, unsubscribe
}

// SubscriberCount is the number of open feeds registered under T exactly. /healthz
// reports it for report.Event as the number of attached stream clients.
func SubscriberCount[T any](b *Bus) int {
	if b == nil {
		return 0
	}

	eventType := reflect.TypeFor[T]()

	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[eventType])
}

func (b *Bus) targets(evt any) []*subscriber {
	evtType := reflect.TypeOf(evt)

	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*subscriber
	for subType, typeSubs := range b.subs {
		match := subType == evtType
		if !match && subType.Kind() == reflect.Interface {
			match = evtType.Implements(subType)
		}
		if !match {
			continue
		}
		for _, s := range typeSubs {
			out = append(out, s)
		}
	}
	return out
}

// Publish delivers evt to all matching subscribers, blocking until each accepted
// it or ctx is canceled.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if evt == nil {
		return ferrors.ValidationError("event cannot be nil").Build()
	}
	if ctx == nil {
		return ferrors.ValidationError("context cannot be nil").Build()
	}
	if b.isClosed.Load() {
		return ferrors.DaemonError("event bus is closed").Build()
	}

	for _, s := range b.targets(evt) {
		if err := s.send(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// TryPublish delivers evt to every subscriber with room in its buffer and returns
// how many subscribers missed it.
func (b *Bus) TryPublish(evt any) int {
	if evt == nil || b.isClosed.Load() {
		return 0
	}

	missed := 0
	for _, s := range b.targets(evt) {
		if !s.trySend(evt) {
			missed++
		}
	}
	if missed > 0 {
		b.dropped.Add(uint64(missed))
	}
	return missed
}

// Dropped returns the number of deliveries TryPublish gave up on.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close ends every feed. Later publishes are refused and later subscribers get a
// closed channel.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.isClosed.Store(true)

		b.mu.Lock()
		var toClose []*subscriber
		for _, typeSubs := range b.subs {
			for _, s := range typeSubs {
				toClose = append(toClose, s)
			}
		}
		b.subs = make(map[reflect.Type]map[uint64]*subscriber)
		b.mu.Unlock()

		for _, s := range toClose {
			s.close()
		}
	})
}
