package sandbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_BoundedBuffer(t *testing.T) {
	t.Parallel()

	b := newBoundedBuffer(10)
	n, err := b.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", b.String())

	// writes past the cap report full length but drop the excess
	n, err = b.Write([]byte(" world, this is long"))
	assert.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, "hello worl"+TruncationMarker, b.String())

	n, err = b.Write([]byte("more"))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "hello worl"+TruncationMarker, b.String())

	// unlimited when the cap is zero
	b = newBoundedBuffer(0)
	_, _ = b.Write([]byte(strings.Repeat("x", 100)))
	assert.Equal(t, strings.Repeat("x", 100), b.String())
}
