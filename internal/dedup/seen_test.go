package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasSeenBeforeAndAfterMark(t *testing.T) {
	idx := NewSeenIndex()

	require.False(t, idx.HasSeen("hi", "u1", "r1"))

	idx.MarkSeen("hi", "u1", "r1")
	assert.True(t, idx.HasSeen("hi", "u1", "r1"))

	// Repeated marks keep the answer stable.
	idx.MarkSeen("hi", "u1", "r1")
	idx.MarkSeen("hi", "u1", "r1")
	assert.True(t, idx.HasSeen("hi", "u1", "r1"))
	assert.Equal(t, 1, idx.Len())
}

func TestSeenIsScopedPerRoomAndSender(t *testing.T) {
	idx := NewSeenIndex()
	idx.MarkSeen("hi", "u1", "r1")

	assert.False(t, idx.HasSeen("hi", "u1", "r2"), "same fingerprint, different room")
	assert.False(t, idx.HasSeen("hi", "u2", "r1"), "same content, different sender")
	assert.False(t, idx.HasSeen("yo", "u1", "r1"), "different content, same sender")
}

func TestSeenMarksIfNew(t *testing.T) {
	idx := NewSeenIndex()

	require.False(t, idx.Seen("hi", "u1", "r1"))
	assert.True(t, idx.Seen("hi", "u1", "r1"))
	assert.True(t, idx.HasSeen("hi", "u1", "r1"))
}

func TestResetClearsEverything(t *testing.T) {
	idx := NewSeenIndex()
	idx.MarkSeen("a", "u1", "r1")
	idx.MarkSeen("b", "u2", "r2")
	require.Equal(t, 2, idx.Len())

	idx.Reset()

	assert.Equal(t, 0, idx.Len())
	assert.False(t, idx.HasSeen("a", "u1", "r1"))
}
