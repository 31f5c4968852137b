package knockoff

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testGreeter interface {
	Greet() string
}

type testOne struct {
	Name string
}

func (o *testOne) Greet() string { return "hello " + o.Name }

type testFour struct {
	one     *testOne
	greeter testGreeter
}

func TestListableBeanFactory_SingletonsAreEager(t *testing.T) {
	f := NewListableBeanFactory("")
	built := 0

	require.NoError(t, ProvideSingleton(f, "", func(*ListableBeanFactory) (*testOne, error) {
		built++
		return &testOne{Name: "one"}, nil
	}))

	assert.Equal(t, 0, built)
	require.NoError(t, f.Refresh())
	assert.Equal(t, 1, built)

	first := Bean[*testOne](f)
	second := Bean[*testOne](f)
	assert.Same(t, first, second)
	assert.Equal(t, 1, built)
	assert.Equal(t, DefaultProfileName, f.Profile())
	late := ProvideSingleton(f, "late", func(*ListableBeanFactory) (*testOne, error) { return &testOne{}, nil })
	assert.ErrorIs(t, late, ErrFactoryRefreshed)
}

func TestListableBeanFactory_DependenciesResolveBeforeOwner(t *testing.T) {
	f := NewListableBeanFactory("DefaultProfile")

	require.NoError(t, ProvideSingleton(f, "", func(f *ListableBeanFactory) (*testFour, error) {
		b := &testFour{}
		if err := Inject(f, "", &b.one); err != nil {
			return nil, err
		}
		if err := Inject(f, "", &b.greeter); err != nil {
			return nil, err
		}
		return b, nil
	}))
	require.NoError(t, ProvideSingleton(f, "", func(*ListableBeanFactory) (*testOne, error) {
		return &testOne{Name: "one"}, nil
	}))
	require.NoError(t, ProvideSingleton(f, "", func(f *ListableBeanFactory) (testGreeter, error) {
		return Resolve[*testOne](f, "")
	}))

	require.NoError(t, f.Refresh())

	four := MustBean[*testFour](f)
	assert.Same(t, Bean[*testOne](f), four.one)
	assert.Equal(t, "hello one", four.greeter.Greet())
	assert.Equal(t, []string{"*knockoff.testFour", "*knockoff.testOne", "knockoff.testGreeter"}, f.Names())
}

func TestListableBeanFactory_Prototypes(t *testing.T) {
	f := NewListableBeanFactory("")
	built := 0

	require.NoError(t, ProvidePrototype(f, "", func(*ListableBeanFactory) (*testOne, error) {
		built++
		return &testOne{}, nil
	}))
	require.NoError(t, f.Refresh())
	assert.Equal(t, 0, built)

	a := Bean[*testOne](f)
	b := Bean[*testOne](f)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, built)

	var next func() *testOne
	require.NoError(t, InjectProvider(f, "", &next))
	require.NotNil(t, next)
	assert.NotSame(t, next(), next())
}

func TestListableBeanFactory_NamedFallsBackToDefault(t *testing.T) {
	f := NewListableBeanFactory("")
	require.NoError(t, ProvideSingleton(f, "", func(*ListableBeanFactory) (*testOne, error) {
		return &testOne{Name: "default"}, nil
	}))
	require.NoError(t, ProvideSingleton(f, "primary", func(*ListableBeanFactory) (*testOne, error) {
		return &testOne{Name: "primary"}, nil
	}))
	require.NoError(t, f.Refresh())

	primary, ok := Lookup[*testOne](f, "primary")
	require.True(t, ok)
	assert.Equal(t, "primary", primary.Name)

	other, ok := Lookup[*testOne](f, "secondary")
	require.True(t, ok)
	assert.Equal(t, "default", other.Name)
}

func TestListableBeanFactory_MissingBeanLeavesFieldUnset(t *testing.T) {
	f := NewListableBeanFactory("")
	require.NoError(t, f.Refresh())

	b := testFour{}
	require.NoError(t, Inject(f, "", &b.one))
	assert.Nil(t, b.one)

	var value testOne
	require.NoError(t, InjectValue(f, "", &value))
	assert.Equal(t, testOne{}, value)

	_, err := Resolve[*testOne](f, "")
	assert.True(t, errors.Is(err, ErrNoSuchBean))
	assert.False(t, Contains[*testOne](f, ""))
	assert.Panics(t, func() { MustBean[*testOne](f) })
}

func TestListableBeanFactory_InjectValueCopies(t *testing.T) {
	f := NewListableBeanFactory("")
	require.NoError(t, ProvideSingleton(f, "", func(*ListableBeanFactory) (*testOne, error) {
		return &testOne{Name: "copy"}, nil
	}))

	var value testOne
	require.NoError(t, InjectValue(f, "", &value))
	assert.Equal(t, "copy", value.Name)
}

func TestListableBeanFactory_Errors(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		f := NewListableBeanFactory("")
		build := func(*ListableBeanFactory) (*testOne, error) { return &testOne{}, nil }
		require.NoError(t, ProvideSingleton(f, "", build))

		err := ProvideSingleton(f, "", build)
		var dup *DuplicateBeanError
		assert.True(t, errors.As(err, &dup))
	})

	t.Run("frozen after refresh", func(t *testing.T) {
		f := NewListableBeanFactory("")
		require.NoError(t, f.Refresh())
		err := ProvideSingleton(f, "", func(*ListableBeanFactory) (*testOne, error) { return nil, nil })
		assert.ErrorIs(t, err, ErrFactoryRefreshed)
	})

	t.Run("creation failure", func(t *testing.T) {
		f := NewListableBeanFactory("")
		cause := errors.New("boom")
		require.NoError(t, ProvideSingleton(f, "", func(*ListableBeanFactory) (*testOne, error) {
			return nil, cause
		}))

		err := f.Refresh()
		var creation *BeanCreationError
		require.True(t, errors.As(err, &creation))
		assert.ErrorIs(t, err, cause)
		assert.NoError(t, ProvideSingleton(f, "retry", func(*ListableBeanFactory) (*testOne, error) { return &testOne{}, nil }),
			"a failed refresh leaves the factory open")
	})

	t.Run("cycle", func(t *testing.T) {
		f := NewListableBeanFactory("")
		require.NoError(t, ProvideSingleton(f, "", func(f *ListableBeanFactory) (*testOne, error) {
			_, err := Resolve[*testFour](f, "")
			return &testOne{}, err
		}))
		require.NoError(t, ProvideSingleton(f, "", func(f *ListableBeanFactory) (*testFour, error) {
			_, err := Resolve[*testOne](f, "")
			return &testFour{}, err
		}))

		err := f.Refresh()
		var cycle *CircularDependencyError
		assert.True(t, errors.As(err, &cycle))
	})
}

func TestListableBeanFactory_DerivedProviders(t *testing.T) {
	f := NewListableBeanFactory("")
	require.NoError(t, ProvideSingleton(f, "", func(*ListableBeanFactory) (*testOne, error) {
		return &testOne{Name: "one"}, nil
	}))
	require.NoError(t, ProvideSingleton(f, "", Alias[testGreeter, *testOne]("")))
	require.NoError(t, ProvideSingleton(f, "friendly", Alias[testGreeter, *testOne]("")))
	require.NoError(t, ProvideSingleton(f, "", BoxOf[testGreeter]("")))
	require.NoError(t, ProvideSingleton(f, "", MutexOf[testOne]("")))
	require.NoError(t, ProvideSingleton(f, "", MutexOf[Box[testGreeter]]("")))
	require.NoError(t, f.Refresh())

	one := MustBean[*testOne](f)
	greeter := MustBean[testGreeter](f)
	assert.Same(t, one, greeter.(*testOne))

	friendly, err := Resolve[testGreeter](f, "friendly")
	require.NoError(t, err)
	assert.Same(t, one, friendly.(*testOne))

	assert.Equal(t, "hello one", MustBean[Box[testGreeter]](f).Value.Greet())

	guarded := MustBean[*Mutex[testOne]](f)
	assert.Same(t, guarded, MustBean[*Mutex[testOne]](f), "mutable beans are shared")
	guarded.With(func(v *testOne) { v.Name = "changed" })
	assert.Equal(t, "one", one.Name, "the lock guards its own instance")

	boxed := MustBean[*Mutex[Box[testGreeter]]](f)
	v := boxed.Lock()
	assert.Equal(t, "hello one", v.Value.Greet())
	boxed.Unlock()

	value, err := ResolveValue[testOne](f, "")
	require.NoError(t, err)
	assert.Equal(t, "one", value.Name)

	var next func() testOne
	require.NoError(t, InjectProvider(f, "", &next))
	require.NotNil(t, next)
	assert.Equal(t, "one", next().Name)
}

func TestAlias_TypeMismatch(t *testing.T) {
	f := NewListableBeanFactory("")
	require.NoError(t, ProvideSingleton(f, "", func(*ListableBeanFactory) (*testFour, error) {
		return &testFour{}, nil
	}))
	require.NoError(t, ProvideSingleton(f, "", Alias[testGreeter, *testFour]("")))

	err := f.Refresh()
	var creation *BeanCreationError
	require.True(t, errors.As(err, &creation))
	assert.Contains(t, err.Error(), "does not implement")
}

type testCounter struct {
	mu    sync.Mutex
	Count int
}

func TestMutexOf_BuildsItsOwnInstance(t *testing.T) {
	f := NewListableBeanFactory("")
	built := 0
	require.NoError(t, ProvideSingleton(f, "", func(*ListableBeanFactory) (*testCounter, error) {
		built++
		return &testCounter{Count: 10}, nil
	}))
	require.NoError(t, ProvideSingleton(f, "", MutexOf[testCounter]("")))

	shared := MustBean[*testCounter](f)
	shared.mu.Lock()
	defer shared.mu.Unlock()
	shared.Count++

	guarded := MustBean[*Mutex[testCounter]](f)
	assert.Equal(t, 2, built, "the lock gets an instance of its own")

	v := guarded.Lock()
	require.True(t, v.mu.TryLock(), "the held lock of the shared bean is not carried over")
	v.mu.Unlock()
	assert.Equal(t, 10, v.Count)
	guarded.Unlock()
	assert.Equal(t, 11, shared.Count)
}

func TestResolveValue_Missing(t *testing.T) {
	f := NewListableBeanFactory("")
	require.NoError(t, f.Refresh())

	_, err := ResolveValue[testOne](f, "")
	assert.ErrorIs(t, err, ErrNoSuchBean)

	_, err = MutexOf[testOne]("")(f)
	assert.ErrorIs(t, err, ErrNoSuchBean)
}

func TestMutex(t *testing.T) {
	m := NewMutex(testOne{Name: "a"})

	m.With(func(v *testOne) { v.Name = "b" })

	v := m.Lock()
	assert.Equal(t, "b", v.Name)
	m.Unlock()

	box := NewBox[testGreeter](&testOne{Name: "x"})
	assert.Equal(t, "hello x", box.Value.Greet())
	assert.Nil(t, Proceed())
	assert.Equal(t, "DefaultProfile", DefaultProfile{}.ProfileName())
}
