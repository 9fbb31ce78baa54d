package farm

// Loadable holds a value that may not have been fetched yet. The zero value
// is unloaded.
type Loadable[T any] struct {
	value  T
	loaded bool
}

// Loaded wraps a fetched value.
func Loaded[T any](v T) Loadable[T] {
	return Loadable[T]{value: v, loaded: true}
}

// Unloaded returns the empty state.
func Unloaded[T any]() Loadable[T] {
	return Loadable[T]{}
}

func (l Loadable[T]) IsLoaded() bool { return l.loaded }

// Get returns the value and whether it was loaded.
func (l Loadable[T]) Get() (T, bool) {
	return l.value, l.loaded
}

// Ptr returns a pointer to a copy of the value, or nil when unloaded.
func (l Loadable[T]) Ptr() *T {
	if !l.loaded {
		return nil
	}
	v := l.value
	return &v
}
