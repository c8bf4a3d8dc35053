package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubBuffersFramesPerSession(t *testing.T) {
	h := NewHub()
	_, ok := h.Append("missing", []byte("x"), 0)
	assert.False(t, ok)

	h.Add("a", nil)
	h.Add("b", nil)
	assert.Equal(t, 2, h.Len())

	for _, f := range []string{"1", "2", "3"} {
		h.Append("a", []byte(f), 2)
	}
	h.Append("b", []byte("z"), 0)

	assert.Equal(t, [][]byte{[]byte("1"), []byte("2")}, h.Take("a"))
	assert.Nil(t, h.Take("a"))
	assert.Equal(t, [][]byte{[]byte("z")}, h.Take("b"))

	conn, ok := h.Get("a")
	assert.True(t, ok)
	assert.Nil(t, conn)

	h.Remove("a")
	_, ok = h.Get("a")
	assert.False(t, ok)
	assert.Nil(t, h.Take("a"))
	assert.Equal(t, 1, h.Len())
}
