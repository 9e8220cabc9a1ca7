package authflow

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Run("KeyWindowAtNormalLevel", func(t *testing.T) {
		key := &Window{ID: "key", Level: LevelNormal}
		other := &Window{ID: "other", Level: LevelNormal, HasContentRoot: true}
		r := NewAnchorResolver(&fakeWindows{key: key, windows: []*Window{other, key}})

		anchor, err := r.Resolve(true)
		require.NoError(t, err)
		assert.Same(t, key, anchor.Window())
		runtime.KeepAlive(key)
	})

	t.Run("KeyWindowAboveNormalIsSkipped", func(t *testing.T) {
		key := &Window{ID: "alert", Level: LevelAlert, HasContentRoot: true}
		status := &Window{ID: "status", Level: LevelStatusBar, HasContentRoot: true}
		bare := &Window{ID: "bare", Level: LevelNormal}
		main := &Window{ID: "main", Level: LevelNormal, HasContentRoot: true}
		second := &Window{ID: "second", Level: LevelNormal, HasContentRoot: true}
		r := NewAnchorResolver(&fakeWindows{key: key, windows: []*Window{bare, status, main, key, second}})

		anchor, err := r.Resolve(true)
		require.NoError(t, err)
		assert.Same(t, main, anchor.Window())
		runtime.KeepAlive([]*Window{key, status, bare, main, second})
	})

	t.Run("NoKeyWindow", func(t *testing.T) {
		main := &Window{ID: "main", Level: LevelNormal, HasContentRoot: true}
		r := NewAnchorResolver(&fakeWindows{windows: []*Window{nil, main}})

		anchor, err := r.Resolve(true)
		require.NoError(t, err)
		assert.Equal(t, "main", anchor.Window().ID)
		runtime.KeepAlive(main)
	})

	t.Run("NoneFoundRequired", func(t *testing.T) {
		r := NewAnchorResolver(&fakeWindows{windows: []*Window{{ID: "bare", Level: LevelNormal}}})

		anchor, err := r.Resolve(true)
		assert.ErrorIs(t, err, ErrNoHostSurface)
		assert.True(t, anchor.IsZero())
	})

	t.Run("NoneFoundOptional", func(t *testing.T) {
		r := NewAnchorResolver(&fakeWindows{})

		anchor, err := r.Resolve(false)
		require.NoError(t, err)
		assert.True(t, anchor.IsZero())
	})

	t.Run("NilSource", func(t *testing.T) {
		_, err := NewAnchorResolver(nil).Resolve(true)
		assert.ErrorIs(t, err, ErrNoHostSurface)
	})
}

func TestAnchorIsFreshPerResolve(t *testing.T) {
	src := &fakeWindows{key: &Window{ID: "first", Level: LevelNormal}}
	r := NewAnchorResolver(src)

	first, err := r.Resolve(true)
	require.NoError(t, err)
	assert.Equal(t, "first", first.Window().ID)

	// The host recreates its window between sessions
	src.key = &Window{ID: "second", Level: LevelNormal}
	second, err := r.Resolve(true)
	require.NoError(t, err)
	assert.Equal(t, "second", second.Window().ID)
}

func TestEmptyAnchor(t *testing.T) {
	assert.True(t, NewAnchor(nil).IsZero())
	assert.Nil(t, Anchor{}.Window())
}
