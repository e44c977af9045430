package ctxcomp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gburgyan/go-timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type suffixKey struct{}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(opts ...RegistryOption) *Registry {
	return NewRegistry(append([]RegistryOption{WithLogger(discardLogger())}, opts...)...)
}

func suffixFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(suffixKey{}).(string)
	return s
}

func TestResolve_NotRegistered(t *testing.T) {
	reg := newTestRegistry()
	key := NewKeyWithID[string]("missing")

	for _, ctx := range []context.Context{nil, context.Background()} {
		v, err := Resolve(ctx, reg, key)
		assert.Empty(t, v)
		assert.ErrorIs(t, err, ErrComponentNotFound)

		var cerr *ComponentError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "missing", cerr.KeyID)
		assert.Equal(t, key.Type(), cerr.ReferencedType)
		assert.Equal(t, "no component resolver registered: missing (component not found)", err.Error())
	}
}

func TestRegister_Value(t *testing.T) {
	reg := newTestRegistry()
	key := NewKey[*testWidget]()
	widget := &testWidget{val: 42}
	Register(reg, key, widget)

	for _, ctx := range []context.Context{nil, context.Background(), context.WithValue(context.Background(), suffixKey{}, "x")} {
		v, err := Resolve(ctx, reg, key)
		require.NoError(t, err)
		assert.Same(t, widget, v)
	}
}

func TestRegisterResolver_NoCaching(t *testing.T) {
	reg := newTestRegistry()
	key := NewKeyWithID[string]("greeting")

	var calls int64
	RegisterResolver(reg, key, func(ctx context.Context) (string, error) {
		atomic.AddInt64(&calls, 1)
		return "hello" + suffixFrom(ctx), nil
	})

	ctx1 := context.WithValue(context.Background(), suffixKey{}, " one")
	ctx2 := context.WithValue(context.Background(), suffixKey{}, " two")

	v1, err := Resolve(ctx1, reg, key)
	require.NoError(t, err)
	v2, err := Resolve(ctx2, reg, key)
	require.NoError(t, err)
	v3, err := Resolve(ctx1, reg, key)
	require.NoError(t, err)

	assert.Equal(t, "hello one", v1)
	assert.Equal(t, "hello two", v2)
	assert.Equal(t, "hello one", v3)
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

func TestRegister_LastWriteWins(t *testing.T) {
	reg := newTestRegistry()
	key := NewKeyWithID[string]("name")

	Register(reg, key, "v1")
	Register(reg, key, "v2")
	assert.Equal(t, "v2", MustResolve(context.Background(), reg, key))

	RegisterResolver(reg, key, func(ctx context.Context) (string, error) {
		return "resolved", nil
	})
	assert.Equal(t, "resolved", MustResolve(context.Background(), reg, key))

	Register(reg, key, "v3")
	assert.Equal(t, "v3", MustResolve(context.Background(), reg, key))
	assert.Equal(t, 1, reg.Len())
}

func TestRegisterDefault(t *testing.T) {
	t.Run("installs when absent", func(t *testing.T) {
		reg := newTestRegistry()
		key := NewKeyWithID[string]("name")

		assert.True(t, RegisterDefault(reg, key, "default"))
		assert.Equal(t, "default", MustResolve(context.Background(), reg, key))
	})

	t.Run("never overwrites", func(t *testing.T) {
		reg := newTestRegistry()
		key := NewKeyWithID[string]("name")

		Register(reg, key, "user")
		assert.False(t, RegisterDefault(reg, key, "default"))
		assert.False(t, RegisterDefaultResolver(reg, key, func(ctx context.Context) (string, error) {
			return "default resolver", nil
		}))
		assert.Equal(t, "user", MustResolve(context.Background(), reg, key))
	})

	t.Run("first default wins", func(t *testing.T) {
		reg := newTestRegistry()
		key := NewKeyWithID[string]("name")

		assert.True(t, RegisterDefault(reg, key, "first"))
		assert.False(t, RegisterDefault(reg, key, "second"))
		assert.Equal(t, "first", MustResolve(context.Background(), reg, key))
	})

	t.Run("explicit registration replaces a default", func(t *testing.T) {
		reg := newTestRegistry()
		key := NewKeyWithID[string]("name")

		RegisterDefault(reg, key, "default")
		Register(reg, key, "user")
		assert.Equal(t, "user", MustResolve(context.Background(), reg, key))
	})
}

func TestRenderer_StubScenario(t *testing.T) {
	reg := newTestRegistry()
	renderer := NewKeyWithID[string]("Renderer")

	RegisterResolver(reg, renderer, func(ctx context.Context) (string, error) {
		return "stub", nil
	})
	assert.Equal(t, "stub", MustResolve(context.Background(), reg, renderer))
	assert.Equal(t, "stub", MustResolve(nil, reg, renderer))

	assert.False(t, RegisterDefault(reg, renderer, "default renderer"))
	assert.Equal(t, "stub", MustResolve(context.Background(), reg, renderer))
}

func TestResolve_ResolverErrorUnchanged(t *testing.T) {
	reg := newTestRegistry()
	key := NewKey[*testWidget]()
	expected := fmt.Errorf("database down")

	RegisterResolver(reg, key, func(ctx context.Context) (*testWidget, error) {
		return nil, expected
	})

	v, err := Resolve(context.Background(), reg, key)
	assert.Nil(t, v)
	assert.Same(t, expected, err)
}

func TestResolve_ResolverPanicPropagates(t *testing.T) {
	reg := newTestRegistry()
	key := NewKey[*testWidget]()
	RegisterResolver(reg, key, func(ctx context.Context) (*testWidget, error) {
		panic("expected panic")
	})

	assert.PanicsWithValue(t, "expected panic", func() {
		_, _ = Resolve(context.Background(), reg, key)
	})
}

func TestResolve_NilContext(t *testing.T) {
	reg := newTestRegistry()

	t.Run("resolver that ignores the context", func(t *testing.T) {
		key := NewKeyWithID[string]("static")
		RegisterResolver(reg, key, func(ctx context.Context) (string, error) {
			return "ok", nil
		})
		v, err := Resolve(nil, reg, key)
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
	})

	t.Run("resolver that requires the context", func(t *testing.T) {
		key := NewKeyWithID[string]("scoped")
		RegisterResolver(reg, key, RequireContext(func(ctx context.Context) (string, error) {
			return suffixFrom(ctx), nil
		}))

		_, err := Resolve(nil, reg, key)
		assert.ErrorIs(t, err, ErrMissingContext)

		v, err := Resolve(context.WithValue(context.Background(), suffixKey{}, "present"), reg, key)
		require.NoError(t, err)
		assert.Equal(t, "present", v)
	})
}

func TestResolve_NilComponent(t *testing.T) {
	reg := newTestRegistry()
	key := NewKey[testRenderer]()
	Register(reg, key, nil)

	v, err := Resolve(context.Background(), reg, key)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.True(t, reg.Has(key))
}

func TestMustResolve_Panics(t *testing.T) {
	reg := newTestRegistry()
	assert.Panics(t, func() {
		MustResolve(context.Background(), reg, NewKeyWithID[string]("missing"))
	})
}

func TestResolveOptional(t *testing.T) {
	reg := newTestRegistry()

	t.Run("missing", func(t *testing.T) {
		v, found, err := ResolveOptional(context.Background(), reg, NewKeyWithID[string]("missing"))
		assert.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, v)
	})

	t.Run("found", func(t *testing.T) {
		key := NewKeyWithID[string]("present")
		Register(reg, key, "here")
		v, found, err := ResolveOptional(context.Background(), reg, key)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "here", v)
	})

	t.Run("resolver error is not hidden", func(t *testing.T) {
		key := NewKeyWithID[string]("failing")
		RegisterResolver(reg, key, func(ctx context.Context) (string, error) {
			return "", errors.New("expected error")
		})
		_, found, err := ResolveOptional(context.Background(), reg, key)
		assert.Error(t, err)
		assert.False(t, found)
	})
}

func TestRegisterResolver_NilPanics(t *testing.T) {
	reg := newTestRegistry()
	assert.PanicsWithValue(t, "resolver cannot be nil", func() {
		RegisterResolver[string](reg, NewKeyWithID[string]("x"), nil)
	})
	assert.PanicsWithValue(t, "resolver cannot be nil", func() {
		RegisterDefaultResolver[string](reg, NewKeyWithID[string]("x"), nil)
	})
}

func TestRegistry_SameIDDifferentTypes(t *testing.T) {
	reg := newTestRegistry()
	Register(reg, NewKeyWithID[int]("port"), 8080)
	Register(reg, NewKeyWithID[string]("port"), "http")

	assert.Equal(t, 8080, MustResolve(context.Background(), reg, NewKeyWithID[int]("port")))
	assert.Equal(t, "http", MustResolve(context.Background(), reg, NewKeyWithID[string]("port")))
	assert.Equal(t, 2, reg.Len())
}

func TestResolve_Concurrent(t *testing.T) {
	reg := newTestRegistry()
	valueKey := NewKey[*testWidget]()
	resolverKey := NewKeyWithID[string]("scoped")
	widget := &testWidget{val: 7}

	Register(reg, valueKey, widget)
	RegisterResolver(reg, resolverKey, func(ctx context.Context) (string, error) {
		return suffixFrom(ctx), nil
	})

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := context.WithValue(context.Background(), suffixKey{}, fmt.Sprint(i))
			w, err := Resolve(ctx, reg, valueKey)
			if err != nil || w != widget {
				errs <- fmt.Errorf("unexpected widget %v: %v", w, err)
				return
			}
			s, err := Resolve(ctx, reg, resolverKey)
			if err != nil || s != fmt.Sprint(i) {
				errs <- fmt.Errorf("unexpected value %q: %v", s, err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestResolve_Timing(t *testing.T) {
	reg := newTestRegistry(WithTiming(TimingResolvers))
	key := NewKeyWithID[string]("timed")

	var seen context.Context
	RegisterResolver(reg, key, func(ctx context.Context) (string, error) {
		seen = ctx
		return suffixFrom(ctx), nil
	})

	root := timing.Root(context.WithValue(context.Background(), suffixKey{}, "value"))
	v, err := Resolve(root, reg, key)
	require.NoError(t, err)

	// The resolver gets the request context itself, not a timing child.
	assert.Equal(t, "value", v)
	assert.True(t, seen == context.Context(root), "resolver should receive the request context unchanged")

	// A nil context is passed through without timing.
	v, err = Resolve(nil, reg, key)
	require.NoError(t, err)
	assert.Equal(t, "", v)
	assert.Nil(t, seen)
}

type modelEntry struct {
	value    string
	resolver bool
}

func TestRegistry_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reg := newTestRegistry()
		keys := []Key[string]{
			NewKeyWithID[string]("a"),
			NewKeyWithID[string]("b"),
			NewKeyWithID[string]("c"),
			NewKeyWithID[string]("d"),
		}
		model := map[int]modelEntry{}

		numOps := rapid.IntRange(1, 60).Draw(t, "numOps")
		for i := 0; i < numOps; i++ {
			idx := rapid.IntRange(0, len(keys)-1).Draw(t, "key")
			val := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "value")
			resolver := func(ctx context.Context) (string, error) {
				return val + suffixFrom(ctx), nil
			}
			_, exists := model[idx]

			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				Register(reg, keys[idx], val)
				model[idx] = modelEntry{value: val}
			case 1:
				RegisterResolver(reg, keys[idx], resolver)
				model[idx] = modelEntry{value: val, resolver: true}
			case 2:
				if installed := RegisterDefault(reg, keys[idx], val); installed == exists {
					t.Fatalf("RegisterDefault installed=%v with existing=%v", installed, exists)
				}
				if !exists {
					model[idx] = modelEntry{value: val}
				}
			case 3:
				if installed := RegisterDefaultResolver(reg, keys[idx], resolver); installed == exists {
					t.Fatalf("RegisterDefaultResolver installed=%v with existing=%v", installed, exists)
				}
				if !exists {
					model[idx] = modelEntry{value: val, resolver: true}
				}
			}
		}

		if reg.Len() != len(model) {
			t.Fatalf("registry has %d entries, model has %d", reg.Len(), len(model))
		}

		suffix := rapid.StringMatching(`[A-Z]{1,4}`).Draw(t, "suffix")
		ctx := context.WithValue(context.Background(), suffixKey{}, suffix)
		for idx, key := range keys {
			expected, ok := model[idx]
			v, err := Resolve(ctx, reg, key)
			if !ok {
				if !errors.Is(err, ErrComponentNotFound) {
					t.Fatalf("key %s: expected not found, got %q, %v", key.ID(), v, err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("key %s: unexpected error %v", key.ID(), err)
			}
			want := expected.value
			if expected.resolver {
				want += suffix
			}
			if v != want {
				t.Fatalf("key %s: got %q, want %q", key.ID(), v, want)
			}

			// Values ignore the context entirely, including a nil one.
			v, err = Resolve(nil, reg, key)
			if err != nil || v != expected.value {
				t.Fatalf("key %s with nil context: got %q, %v", key.ID(), v, err)
			}
		}
	})
}
