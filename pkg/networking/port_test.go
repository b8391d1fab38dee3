package networking

import (
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAvailable(t *testing.T) {
	t.Parallel()

	port := FindAvailable()
	require.NotZero(t, port)
	assert.GreaterOrEqual(t, port, MinPort)
	assert.LessOrEqual(t, port, MaxPort)

	// The returned port must actually be bindable.
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	require.NoError(t, l.Close())
}

func TestFindOrUsePort(t *testing.T) {
	t.Parallel()

	t.Run("zero requests an ephemeral port", func(t *testing.T) {
		t.Parallel()
		port, err := FindOrUsePort(0)
		require.NoError(t, err)
		assert.NotZero(t, port)
	})

	t.Run("available port is used as-is", func(t *testing.T) {
		t.Parallel()
		free := FindAvailable()
		require.NotZero(t, free)

		port, err := FindOrUsePort(free)
		require.NoError(t, err)
		assert.Equal(t, free, port)
	})

	t.Run("busy port falls back to an alternative", func(t *testing.T) {
		t.Parallel()
		// Occupy a port so the requested one is not available.
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer l.Close()
		busy := l.Addr().(*net.TCPAddr).Port

		port, err := FindOrUsePort(busy)
		require.NoError(t, err)
		assert.NotEqual(t, busy, port)
	})
}

func TestIsAvailable(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	busy := l.Addr().(*net.TCPAddr).Port

	assert.False(t, IsAvailable(busy))
}
