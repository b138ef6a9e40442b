package client_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightgate/dvtree/attr"
	"github.com/brightgate/dvtree/client"
	"github.com/brightgate/dvtree/ctree"
)

func TestRegisterModuleAndTypedAccessors(t *testing.T) {
	tree := ctree.NewTree()

	c, err := client.RegisterModule(tree, "/svc/net/",
		client.WithInt("port", 8080, 0, 65535, attr.Normal, "listen port"),
		client.WithBool("tls", false, attr.Normal, "enable tls"),
		client.WithString("host", "0.0.0.0", 0, 255, attr.Normal, "bind host"),
	)
	require.NoError(t, err)
	defer c.Close()

	port, err := c.GetInt("port")
	require.NoError(t, err)
	assert.Equal(t, int32(8080), port)

	changed, err := c.PutBool("tls", true)
	require.NoError(t, err)
	assert.True(t, changed)

	tlsVal, err := c.GetBool("tls")
	require.NoError(t, err)
	assert.True(t, tlsVal)

	assert.Equal(t, "0.0.0.0", c.GetStringOr("host", "fallback"))
	assert.Equal(t, "fallback", c.GetStringOr("ghost", "fallback"))
}

func TestRegisterModuleIsIdempotent(t *testing.T) {
	tree := ctree.NewTree()

	opt := client.WithInt("retries", 3, 0, 10, attr.Normal, "retry count")
	c1, err := client.RegisterModule(tree, "/svc/", opt)
	require.NoError(t, err)
	defer c1.Close()

	_, err = c1.PutInt("retries", 7)
	require.NoError(t, err)

	c2, err := client.RegisterModule(tree, "/svc/", opt)
	require.NoError(t, err)
	defer c2.Close()

	v, err := c2.GetInt("retries")
	require.NoError(t, err)
	assert.Equal(t, int32(7), v, "re-registering must not reset an already-modified value")
}

func TestRegisterModuleConflictingRangeIsRejected(t *testing.T) {
	tree := ctree.NewTree()

	_, err := client.RegisterModule(tree, "/svc/", client.WithInt("n", 0, 0, 10, attr.Normal, ""))
	require.NoError(t, err)

	_, err = client.RegisterModule(tree, "/svc/", client.WithInt("n", 0, 0, 99, attr.Normal, ""))
	assert.ErrorIs(t, err, attr.ErrConflict)
}
