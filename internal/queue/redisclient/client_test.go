package redisclient

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PingAndClose(t *testing.T) {
	mr := miniredis.RunT(t)

	c := New(Config{Addr: mr.Addr()})
	require.NoError(t, c.Ping(context.Background()))
	assert.NotNil(t, c.Raw())

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}
