package lib_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jshufro/protoc-gen-suibox/lib"
)

type fakeBinding struct {
	id     string
	caller lib.Caller
}

func (f *fakeBinding) ObjectID() string { return f.id }

func newFake(objectID string, caller lib.Caller) (lib.Binding, error) {
	return &fakeBinding{id: objectID, caller: caller}, nil
}

func TestRegistry_Instantiate(t *testing.T) {
	reg := lib.NewRegistry(map[string]lib.Constructor{"Bar": newFake})
	caller := &lib.Interceptor{}

	b, err := reg.Instantiate("Bar", "0xabc", caller)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", b.ObjectID())
	assert.Same(t, caller, b.(*fakeBinding).caller)
}

func TestRegistry_UnknownStruct(t *testing.T) {
	reg := lib.NewRegistry(nil)

	_, err := reg.Resolve("Missing")
	assert.ErrorIs(t, err, lib.ErrUnknownStruct)

	_, err = reg.Instantiate("Missing", "0x1", nil)
	assert.ErrorIs(t, err, lib.ErrUnknownStruct)
	var ie *lib.InstantiationError
	assert.False(t, errors.As(err, &ie))
}

func TestRegistry_ConstructionFailures(t *testing.T) {
	boom := errors.New("boom")
	reg := lib.NewRegistry(map[string]lib.Constructor{
		"Nil":      nil,
		"Failing":  func(string, lib.Caller) (lib.Binding, error) { return nil, boom },
		"Empty":    func(string, lib.Caller) (lib.Binding, error) { return nil, nil },
		"Panicker": func(string, lib.Caller) (lib.Binding, error) { panic("bad constructor") },
	})

	for _, name := range []string{"Nil", "Failing", "Empty", "Panicker"} {
		t.Run(name, func(t *testing.T) {
			b, err := reg.Instantiate(name, "0x1", nil)
			assert.Nil(t, b)
			var ie *lib.InstantiationError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, name, ie.Struct)
			assert.Contains(t, err.Error(), name)
		})
	}

	_, err := reg.Instantiate("Failing", "0x1", nil)
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_Register(t *testing.T) {
	reg := lib.NewRegistry(nil)
	reg.Register("Zed", newFake)
	reg.Register("Bar", newFake)
	assert.Equal(t, []string{"Bar", "Zed"}, reg.Structs())
}

func TestInterceptor(t *testing.T) {
	i := &lib.Interceptor{}
	calls, err := i.Intercept(func() error {
		_, err := i.MoveCall(context.Background(), lib.Call{Module: "Bar", Function: "create", Args: []any{"Alice", 25}})
		return err
	})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "create", calls[0].Function)
	assert.Equal(t, []any{"Alice", 25}, calls[0].Args)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = i.MoveCall(ctx, lib.Call{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInterceptor_ConcurrentBatches(t *testing.T) {
	var a, b lib.Interceptor
	ctx := context.Background()

	// Seed b so its batch starts at a non-zero offset.
	_, err := b.MoveCall(ctx, lib.Call{Module: "Seed", Function: "create"})
	require.NoError(t, err)

	record := func(i *lib.Interceptor, module string, n int) func() error {
		return func() error {
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := i.MoveCall(ctx, lib.Call{Module: module, Function: "create"})
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				if err != nil {
					return err
				}
			}
			return nil
		}
	}

	var (
		wg             sync.WaitGroup
		callsA, callsB []lib.Call
		errA, errB     error
	)
	wg.Add(2)
	go func() { defer wg.Done(); callsA, errA = a.Intercept(record(&a, "A", 20)) }()
	go func() { defer wg.Done(); callsB, errB = b.Intercept(record(&b, "B", 30)) }()
	wg.Wait()

	require.NoError(t, errA)
	require.NoError(t, errB)
	require.Len(t, callsA, 20)
	require.Len(t, callsB, 30)
	for _, c := range callsA {
		assert.Equal(t, "A", c.Module)
	}
	for _, c := range callsB {
		assert.Equal(t, "B", c.Module)
	}
	assert.Len(t, b.Calls(), 31)
}

func TestReplay(t *testing.T) {
	calls := []lib.Call{
		{Module: "Bar", Function: "create", Args: []any{"a"}},
		{Module: "Bar", Function: "create", Args: []any{"b"}},
		{Module: "Bar", Function: "create", Args: []any{"c"}},
	}
	target := &lib.Interceptor{Digest: func(n int, call lib.Call) (string, error) {
		if n == 2 {
			return "", errors.New("out of gas")
		}
		return call.Args[0].(string), nil
	}}

	digests, err := lib.Replay(context.Background(), target, calls)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replaying call 2 (Bar::create)")
	assert.Equal(t, []string{"a", "b"}, digests)
	assert.Len(t, target.Calls(), 3)
}
