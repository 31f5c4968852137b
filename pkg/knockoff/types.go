package knockoff

import "sync"

// DefaultProfileName is the profile every generated factory carries
const DefaultProfileName = "DefaultProfile"

// Profile is implemented by the marker type generated for each profile
type Profile interface {
	ProfileName() string
}

// DefaultProfile selects beans declared without an explicit profile
type DefaultProfile struct{}

// ProfileName implements Profile
func (DefaultProfile) ProfileName() string { return DefaultProfileName }

// Mutex holds a bean value that is shared for mutation.
// Dependencies declared as *Mutex[T] receive a lock-guarded instance.
type Mutex[T any] struct {
	mu    sync.Mutex
	value T
}

// NewMutex wraps v in a Mutex
func NewMutex[T any](v T) *Mutex[T] {
	return &Mutex[T]{value: v}
}

// Lock acquires the lock and returns the guarded value.
// Callers must call Unlock when done.
func (m *Mutex[T]) Lock() *T {
	m.mu.Lock()
	return &m.value
}

// Unlock releases the lock
func (m *Mutex[T]) Unlock() {
	m.mu.Unlock()
}

// With runs fn while holding the lock
func (m *Mutex[T]) With(fn func(v *T)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.value)
}

// Box holds an interface value as an explicit owned handle
type Box[T any] struct {
	Value T
}

// NewBox wraps v in a Box
func NewBox[T any](v T) Box[T] {
	return Box[T]{Value: v}
}

// Phantom marks a type parameter without holding a value. It is never injected.
type Phantom[T any] struct{}

// Proceed marks where advice hands control to the intercepted method.
// Weaving replaces the call; executed directly it returns nil.
func Proceed() any {
	return nil
}
