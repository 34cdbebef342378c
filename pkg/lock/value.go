package lock

// Value is a value of type T whose reads and writes go through a Section.
type Value[T any] struct {
	sec Section
	v   T
}

// NewValue returns a Value holding v
func NewValue[T any](v T) *Value[T] {
	return &Value[T]{v: v}
}

// Load returns the current value
func (g *Value[T]) Load() T {
	v, _ := Guarded(&g.sec, func() (T, error) {
		return g.v, nil
	})
	return v
}

// Store replaces the current value
func (g *Value[T]) Store(v T) {
	_ = g.sec.Protected(func() error {
		g.v = v
		return nil
	})
}

// Swap replaces the current value and returns the previous one
func (g *Value[T]) Swap(v T) T {
	old, _ := Guarded(&g.sec, func() (T, error) {
		old := g.v
		g.v = v
		return old, nil
	})
	return old
}

// Update calls fn with a pointer to the value while holding the section.
// The pointer must not be retained after fn returns. Changes made by fn
// are kept even when it returns an error.
func (g *Value[T]) Update(fn func(*T) error) error {
	return g.sec.Protected(func() error {
		return fn(&g.v)
	})
}
