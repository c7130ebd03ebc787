package traits

import (
	"reflect"
	"sync"
)

// Anything that carries trait data, such as a world
type TraitHolder interface {
	TraitData() *TraitData
}

type listener struct {
	trait reflect.Type
	fn    any
}

// Traits attached to a holder and the event listeners they declared. Every
// method of a trait taking exactly one pointer to a supported event type is
// registered as a listener for that event. Safe for concurrent use.
type TraitData struct {
	mu     sync.RWMutex
	traits map[reflect.Type]any
	// Listeners per event type, in the order their traits were set
	listeners map[reflect.Type][]listener
	events    map[reflect.Type]bool
}

func NewData(supportedEvents ...reflect.Type) *TraitData {
	events := make(map[reflect.Type]bool, len(supportedEvents))
	for _, event := range supportedEvents {
		events[event] = true
	}

	return &TraitData{
		traits:    make(map[reflect.Type]any),
		listeners: make(map[reflect.Type][]listener),
		events:    events,
	}
}

// Attaches a trait, replacing any trait of the same type
func Set(target TraitHolder, trait any) {
	data := target.TraitData()
	val := reflect.ValueOf(trait)
	ty := val.Type()

	data.mu.Lock()
	defer data.mu.Unlock()

	data.removeListeners(ty)

	for i := 0; i < val.NumMethod(); i++ {
		method := val.Method(i)
		methodTy := method.Type()
		if methodTy.NumIn() != 1 || methodTy.NumOut() != 0 {
			continue
		}

		eventTy := methodTy.In(0)
		if !data.events[eventTy] {
			continue
		}

		data.listeners[eventTy] = append(data.listeners[eventTy], listener{
			trait: ty,
			fn:    method.Interface(),
		})
	}

	data.traits[ty] = trait
}

// Detaches the trait of type *T and its listeners
func Unset[T any](target TraitHolder) {
	data := target.TraitData()
	ty := reflect.TypeOf((*T)(nil))

	data.mu.Lock()
	defer data.mu.Unlock()

	data.removeListeners(ty)
	delete(data.traits, ty)
}

func (data *TraitData) removeListeners(ty reflect.Type) {
	for eventTy, listeners := range data.listeners {
		kept := listeners[:0]
		for _, l := range listeners {
			if l.trait != ty {
				kept = append(kept, l)
			}
		}
		data.listeners[eventTy] = kept
	}
}

func Get[T any](target TraitHolder) *T {
	data := target.TraitData()

	data.mu.RLock()
	defer data.mu.RUnlock()

	trait, ok := data.traits[reflect.TypeOf((*T)(nil))]
	if !ok {
		return nil
	}
	return trait.(*T)
}

// Invokes every listener of the event's type and returns how many ran.
// Listeners run on the calling goroutine without the lock held, so they may
// set or unset traits.
func CallEvent[T any](data *TraitData, event *T) int {
	data.mu.RLock()
	listeners := append([]listener(nil), data.listeners[reflect.TypeOf(event)]...)
	data.mu.RUnlock()

	for _, l := range listeners {
		l.fn.(func(*T))(event)
	}
	return len(listeners)
}
