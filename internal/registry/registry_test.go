package registry

import (
	"strconv"
	"testing"

	"github.com/rocketscienceinc/pictionary-server/internal/apperror"
	"github.com/rocketscienceinc/pictionary-server/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeCounter struct {
	closed int
}

func (that *closeCounter) Send([]byte) error { return nil }

func (that *closeCounter) Close() error {
	that.closed++
	return nil
}

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + strconv.Itoa(n)
	}
}

func TestRegistry_Register(t *testing.T) {
	t.Run("New session starts with zero score and no role", func(t *testing.T) {
		// Given: an empty registry
		reg := New()

		// When: registering a transport
		transport := &closeCounter{}
		session := reg.Register(transport)

		// Then: the session is fresh and counted
		assert.NotEmpty(t, session.ID)
		assert.Regexp(t, `^Player_\d{4}$`, session.Name)
		assert.Zero(t, session.Score)
		assert.False(t, session.IsDrawer)
		assert.Same(t, transport, session.Transport)
		assert.Equal(t, 1, reg.Count())
		assert.True(t, reg.Has(session))
	})

	t.Run("Colliding names are regenerated", func(t *testing.T) {
		// Given: a name source that repeats itself twice before moving on
		names := []string{"Player_1111", "Player_1111", "Player_1111", "Player_2222"}
		i := 0
		reg := NewWithGenerators(sequence("id-"), func() string {
			name := names[i]
			i++
			return name
		})

		// When: registering two sessions
		first := reg.Register(nil)
		second := reg.Register(nil)

		// Then: the second gets the next free name
		assert.Equal(t, "Player_1111", first.Name)
		assert.Equal(t, "Player_2222", second.Name)
	})

	t.Run("Exhausted name source falls back to a suffix", func(t *testing.T) {
		// Given: a name source that always returns the same name
		reg := NewWithGenerators(sequence("id-"), func() string { return "Player_1234" })

		// When: registering three sessions
		a := reg.Register(nil)
		b := reg.Register(nil)
		c := reg.Register(nil)

		// Then: all names are distinct
		assert.Equal(t, "Player_1234", a.Name)
		assert.Equal(t, "Player_1234_2", b.Name)
		assert.Equal(t, "Player_1234_3", c.Name)
	})
}

func TestRegistry_Unregister(t *testing.T) {
	t.Run("Removes the session and closes its transport", func(t *testing.T) {
		// Given: a registry with two sessions
		reg := NewWithGenerators(sequence("id-"), sequence("Player_"))
		transport := &closeCounter{}
		first := reg.Register(transport)
		second := reg.Register(&closeCounter{})

		// When: removing the first
		wasDrawer, err := reg.Unregister(first)

		// Then: it is gone, its transport closed, the other remains
		require.NoError(t, err)
		assert.False(t, wasDrawer)
		assert.Equal(t, 1, transport.closed)
		assert.False(t, reg.Has(first))
		assert.Equal(t, []*entity.Session{second}, reg.Sessions())
	})

	t.Run("Reports when the drawer left", func(t *testing.T) {
		// Given: a registered drawer
		reg := New()
		drawer := reg.Register(&closeCounter{})
		drawer.IsDrawer = true

		// When: removing the drawer
		wasDrawer, err := reg.Unregister(drawer)

		// Then: the caller learns it was the drawer
		require.NoError(t, err)
		assert.True(t, wasDrawer)
	})

	t.Run("Unknown session returns ErrSessionNotFound", func(t *testing.T) {
		// Given: a session that was already removed
		reg := New()
		session := reg.Register(&closeCounter{})
		_, err := reg.Unregister(session)
		require.NoError(t, err)

		// When: removing it again
		_, err = reg.Unregister(session)

		// Then: an ErrSessionNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrSessionNotFound)

		_, err = reg.Unregister(nil)
		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})

	t.Run("Freed name can be reused", func(t *testing.T) {
		// Given: a constant name source and a removed session
		reg := NewWithGenerators(sequence("id-"), func() string { return "Player_5555" })
		session := reg.Register(nil)
		_, err := reg.Unregister(session)
		require.NoError(t, err)

		// When: registering again
		again := reg.Register(nil)

		// Then: the plain name is available again
		assert.Equal(t, "Player_5555", again.Name)
	})
}

func TestRegistry_List(t *testing.T) {
	// Given: three sessions, one of them drawing with some score
	reg := NewWithGenerators(sequence("id-"), sequence("Player_"))
	a := reg.Register(nil)
	b := reg.Register(nil)
	c := reg.Register(nil)
	b.IsDrawer = true
	b.Score = 5

	// When: listing
	views := reg.List()

	// Then: the views follow join order and copy the values
	assert.Equal(t, []entity.PlayerView{
		{Name: a.Name},
		{Name: b.Name, Score: 5, IsDrawer: true},
		{Name: c.Name},
	}, views)

	// When: a session changes after the snapshot
	c.Score = 10

	// Then: the snapshot does not move
	assert.Zero(t, views[2].Score)

	// When: removing the middle session
	_, err := reg.Unregister(b)
	require.NoError(t, err)

	// Then: the remaining order is kept
	assert.Equal(t, []string{a.Name, c.Name}, []string{reg.List()[0].Name, reg.List()[1].Name})
}

func TestRegistry_Get(t *testing.T) {
	reg := New()
	session := reg.Register(nil)

	found, ok := reg.Get(session.ID)
	require.True(t, ok)
	assert.Same(t, session, found)

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_EmptyList(t *testing.T) {
	// An empty roster still encodes as a list, never null.
	views := New().List()

	require.NotNil(t, views)
	assert.Empty(t, views)
}
