package lib

import (
	"context"
	"fmt"
	"sync"
)

// An Interceptor lets you call generated, type-safe Create functions without
// touching a live network. It records each call and answers with a fake
// digest.
type Interceptor struct {
	lock  sync.Mutex
	calls []Call

	// Digest, if set, produces the digest returned for the nth call.
	Digest func(n int, call Call) (string, error)
}

func (i *Interceptor) MoveCall(ctx context.Context, call Call) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	i.lock.Lock()
	n := len(i.calls)
	recorded := call
	recorded.Args = append([]any(nil), call.Args...)
	i.calls = append(i.calls, recorded)
	i.lock.Unlock()

	if i.Digest != nil {
		return i.Digest(n, call)
	}
	return fmt.Sprintf("intercepted-%d", n), nil
}

// Calls returns a copy of everything recorded so far.
func (i *Interceptor) Calls() []Call {
	i.lock.Lock()
	defer i.lock.Unlock()
	return append([]Call(nil), i.calls...)
}

// Intercept runs cb and returns every call recorded while it ran. That
// includes calls cb makes from goroutines it starts, and calls other
// goroutines make on the same Interceptor in the meantime; give each
// concurrent batch its own Interceptor.
func (i *Interceptor) Intercept(cb func() error) ([]Call, error) {
	i.lock.Lock()
	start := len(i.calls)
	i.lock.Unlock()

	if err := cb(); err != nil {
		return nil, err
	}

	i.lock.Lock()
	defer i.lock.Unlock()
	return append([]Call(nil), i.calls[start:]...), nil
}

// Replay submits recorded calls through caller in order and returns their
// digests. It stops at the first failure, returning the digests so far.
func Replay(ctx context.Context, caller Caller, calls []Call) ([]string, error) {
	digests := make([]string, 0, len(calls))
	for i, call := range calls {
		digest, err := caller.MoveCall(ctx, call)
		if err != nil {
			return digests, fmt.Errorf("replaying call %d (%s::%s): %w", i, call.Module, call.Function, err)
		}
		digests = append(digests, digest)
	}
	return digests, nil
}
