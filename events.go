package collide

import (
	"cmp"
	"slices"
	"unsafe"
)

const (
	OVERLAP_ENTER EventType = iota
	OVERLAP_STAY
	OVERLAP_EXIT
)

type pairKey struct {
	bodyA *Body
	bodyB *Body
}

// makePairKey orders the two bodies by address so (a, b) and (b, a) share a key.
func makePairKey(bodyA, bodyB *Body) pairKey {
	ptrA := uintptr(unsafe.Pointer(bodyA))
	ptrB := uintptr(unsafe.Pointer(bodyB))

	if ptrB < ptrA {
		bodyA, bodyB = bodyB, bodyA
	}

	return pairKey{bodyA: bodyA, bodyB: bodyB}
}

type EventType uint8

func (t EventType) String() string {
	switch t {
	case OVERLAP_ENTER:
		return "enter"
	case OVERLAP_STAY:
		return "stay"
	case OVERLAP_EXIT:
		return "exit"
	default:
		return "unknown"
	}
}

// Event is delivered to the listeners subscribed to its Type.
type Event interface {
	Type() EventType
}

type OverlapEnterEvent struct {
	BodyA *Body
	BodyB *Body
}

func (e OverlapEnterEvent) Type() EventType { return OVERLAP_ENTER }

type OverlapStayEvent struct {
	BodyA *Body
	BodyB *Body
}

func (e OverlapStayEvent) Type() EventType { return OVERLAP_STAY }

type OverlapExitEvent struct {
	BodyA *Body
	BodyB *Body
}

func (e OverlapExitEvent) Type() EventType { return OVERLAP_EXIT }

type EventListener func(event Event)

// Events turns the pairs found by successive Scene.Update calls into
// enter, stay and exit notifications.
type Events struct {
	listeners map[EventType][]EventListener

	// events waiting for dispatch
	buffer []Event

	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 64),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
	}
}

// Subscribe adds a listener for an event type.
// Listeners must be registered before the scene is updated concurrently.
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordPairs buffers enter and stay events in pair order, then exit events
// sorted by the position of their bodies in order.
func (e *Events) recordPairs(pairs []Pair, order map[*Body]int) {
	if e.currentActivePairs == nil {
		e.currentActivePairs = make(map[pairKey]bool)
	}
	if e.previousActivePairs == nil {
		e.previousActivePairs = make(map[pairKey]bool)
	}

	for _, p := range pairs {
		key := makePairKey(p.BodyA, p.BodyB)
		if e.currentActivePairs[key] {
			continue
		}
		e.currentActivePairs[key] = true

		if e.previousActivePairs[key] {
			e.buffer = append(e.buffer, OverlapStayEvent{BodyA: p.BodyA, BodyB: p.BodyB})
		} else {
			e.buffer = append(e.buffer, OverlapEnterEvent{BodyA: p.BodyA, BodyB: p.BodyB})
		}
	}

	var exits []Pair
	for pair := range e.previousActivePairs {
		if e.currentActivePairs[pair] {
			continue
		}
		a, b := pair.bodyA, pair.bodyB
		if order[b] < order[a] {
			a, b = b, a
		}
		exits = append(exits, Pair{BodyA: a, BodyB: b})
	}
	slices.SortFunc(exits, func(x, y Pair) int {
		if c := cmp.Compare(order[x.BodyA], order[y.BodyA]); c != 0 {
			return c
		}
		return cmp.Compare(order[x.BodyB], order[y.BodyB])
	})
	for _, p := range exits {
		e.buffer = append(e.buffer, OverlapExitEvent{BodyA: p.BodyA, BodyB: p.BodyB})
	}

	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// forget drops the overlap history of a removed body without emitting exits.
func (e *Events) forget(body *Body) {
	for pair := range e.previousActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.previousActivePairs, pair)
		}
	}
}

// drain returns the buffered events and empties the buffer.
func (e *Events) drain() []Event {
	if len(e.buffer) == 0 {
		return nil
	}
	events := make([]Event, len(e.buffer))
	copy(events, e.buffer)
	e.buffer = e.buffer[:0]
	return events
}

func (e *Events) dispatch(events []Event) {
	for _, event := range events {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
}
