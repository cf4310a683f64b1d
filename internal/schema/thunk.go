package schema

import "sync"

type thunkState uint8

const (
	thunkPending thunkState = iota
	thunkBuilt
	thunkFailed
)

// Thunk is a value that is built on first use. A thunk is either pending,
// built, or failed; once it left the pending state it never changes again.
type Thunk[T any] struct {
	mu    sync.Mutex
	state thunkState
	build func() (T, error)
	value T
	err   error
}

// NewThunk returns a pending thunk.
func NewThunk[T any](build func() (T, error)) *Thunk[T] {
	return &Thunk[T]{build: build}
}

// Get builds the value if needed. The build function runs at most once, and a
// failure is remembered.
func (t *Thunk[T]) Get() (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == thunkPending {
		t.value, t.err = t.build()
		t.build = nil
		if t.err != nil {
			t.state = thunkFailed
		} else {
			t.state = thunkBuilt
		}
	}
	return t.value, t.err
}

// Pending reports whether the value has not been built yet.
func (t *Thunk[T]) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == thunkPending
}
