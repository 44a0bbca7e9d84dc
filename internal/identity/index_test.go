package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindAndResolve(t *testing.T) {
	x := NewIndex()
	x.Bind("room-1", "device-a", "conn-1")

	id, ok := x.Resolve("room-1", "device-a")
	require.True(t, ok)
	assert.Equal(t, "conn-1", string(id))
}

func TestResolveIsScopedToRoom(t *testing.T) {
	x := NewIndex()
	x.Bind("room-1", "device-a", "conn-1")

	_, ok := x.Resolve("room-2", "device-a")
	assert.False(t, ok)
}

func TestBindOverwritesPreviousPlayer(t *testing.T) {
	x := NewIndex()
	x.Bind("room-1", "device-a", "conn-1")
	x.Bind("room-1", "device-a", "conn-2")

	id, ok := x.Resolve("room-1", "device-a")
	require.True(t, ok)
	assert.Equal(t, "conn-2", string(id))
	assert.Equal(t, 1, x.Len())
}

func TestEmptyTokenIsIgnored(t *testing.T) {
	x := NewIndex()
	x.Bind("room-1", "", "conn-1")

	_, ok := x.Resolve("room-1", "")
	assert.False(t, ok)
	assert.Equal(t, 0, x.Len())
}

func TestUnbind(t *testing.T) {
	x := NewIndex()
	x.Bind("room-1", "device-a", "conn-1")
	x.Bind("room-1", "device-b", "conn-2")

	x.Unbind("room-1", "device-a")

	_, ok := x.Resolve("room-1", "device-a")
	assert.False(t, ok)
	_, ok = x.Resolve("room-1", "device-b")
	assert.True(t, ok)
}

func TestDropRoom(t *testing.T) {
	x := NewIndex()
	x.Bind("room-1", "device-a", "conn-1")
	x.Bind("room-2", "device-a", "conn-9")

	x.DropRoom("room-1")

	_, ok := x.Resolve("room-1", "device-a")
	assert.False(t, ok)
	_, ok = x.Resolve("room-2", "device-a")
	assert.True(t, ok)
}

func TestDigestIsStableAndDistinct(t *testing.T) {
	assert.Equal(t, DigestOf("abc"), DigestOf("abc"))
	assert.NotEqual(t, DigestOf("abc"), DigestOf("abd"))
	assert.Len(t, DigestOf("abc").String(), 12)
}
