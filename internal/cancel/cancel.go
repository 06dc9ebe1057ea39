package cancel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrCancelled is returned by operations that stopped because their token
// was cancelled.
var ErrCancelled = errors.New("operation cancelled")

// Token is a one-way stop signal shared by everything working on a single
// scan or deletion. The zero value is not usable; call New.
type Token struct {
	cancelled atomic.Bool
	once      sync.Once
	done      chan struct{}
}

// New returns a fresh, uncancelled token.
func New() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel sets the token. Calling it more than once has no further effect.
func (t *Token) Cancel() {
	t.once.Do(func() {
		t.cancelled.Store(true)
		close(t.done)
	})
}

// IsCancelled reports whether Cancel has been called. It never blocks.
func (t *Token) IsCancelled() bool {
	return t.cancelled.Load()
}

// Done returns a channel that is closed once the token is cancelled.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Err returns ErrCancelled after cancellation and nil before.
func (t *Token) Err() error {
	if t.IsCancelled() {
		return ErrCancelled
	}
	return nil
}

// Sleep waits for d or until the token is cancelled, whichever comes
// first. It returns false if the wait was cut short by cancellation.
func (t *Token) Sleep(d time.Duration) bool {
	if t.IsCancelled() {
		return false
	}
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return !t.IsCancelled()
	case <-t.done:
		return false
	}
}

// Bind cancels the token when ctx is done. The returned stop function
// releases the watcher goroutine without cancelling the token.
func (t *Token) Bind(ctx context.Context) (stop func()) {
	if ctx.Err() != nil {
		t.Cancel()
		return func() {}
	}
	quit := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			t.Cancel()
		case <-quit:
		case <-t.done:
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(quit) }) }
}
