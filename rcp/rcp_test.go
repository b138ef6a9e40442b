package rcp_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightgate/dvtree/attr"
	"github.com/brightgate/dvtree/ctree"
	"github.com/brightgate/dvtree/rcp"
)

func startTestServer(t *testing.T, tree *ctree.Tree) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := rcp.NewServer(tree, rcp.WithIdleTimeout(5*time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Serve(ctx, ln)

	return ln.Addr().String(), func() {
		cancel()
		_ = srv.Close()
	}
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	nc, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	return nc
}

func TestGetPutRoundTrip(t *testing.T) {
	tree := ctree.NewTree()
	n, err := tree.GetNode("/svc/net/")
	require.NoError(t, err)
	defer n.Release()
	require.NoError(t, n.CreateAttribute("port", attr.Int, attr.IntValue(0),
		attr.NewRange(attr.Int, attr.IntValue(0), attr.IntValue(65535)), attr.Normal, "listen port"))

	addr, stop := startTestServer(t, tree)
	defer stop()
	nc := dial(t, addr)
	defer nc.Close()

	require.NoError(t, rcp.WriteFrame(nc, rcp.Frame{
		Action: rcp.ActionPut, Node: "/svc/net/", Key: "port", Type: attr.Int, Value: "8080",
	}))
	resp, err := rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, rcp.ActionPut, resp.Action)

	require.NoError(t, rcp.WriteFrame(nc, rcp.Frame{
		Action: rcp.ActionGet, Node: "/svc/net/", Key: "port", Type: attr.Int,
	}))
	resp, err = rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, "8080", resp.Value)

	v, err := n.GetAttribute("port", attr.Int)
	require.NoError(t, err)
	assert.Equal(t, int32(8080), v.Int())
}

func TestGetUnknownAttributeReturnsError(t *testing.T) {
	tree := ctree.NewTree()
	n, err := tree.GetNode("/svc/")
	require.NoError(t, err)
	defer n.Release()

	addr, stop := startTestServer(t, tree)
	defer stop()
	nc := dial(t, addr)
	defer nc.Close()

	require.NoError(t, rcp.WriteFrame(nc, rcp.Frame{
		Action: rcp.ActionGet, Node: "/svc/", Key: "ghost", Type: attr.Int,
	}))
	resp, err := rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, rcp.ActionError, resp.Action)
}

func TestAddPushClientDumpsThenStreamsAttrEvents(t *testing.T) {
	tree := ctree.NewTree()
	n, err := tree.GetNode("/svc/net/")
	require.NoError(t, err)
	defer n.Release()
	require.NoError(t, n.CreateAttribute("port", attr.Int, attr.IntValue(80),
		attr.NewRange(attr.Int, attr.IntValue(0), attr.IntValue(65535)), attr.Normal, ""))

	addr, stop := startTestServer(t, tree)
	defer stop()
	nc := dial(t, addr)
	defer nc.Close()

	require.NoError(t, rcp.WriteFrame(nc, rcp.Frame{
		Action: rcp.ActionAddPushClient, Node: "/svc/net/",
	}))
	ack, err := rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, rcp.ActionAddPushClient, ack.Action)
	assert.NotEmpty(t, ack.Value)

	dumpNode, err := rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, rcp.ActionDumpTreeNode, dumpNode.Action)
	assert.Equal(t, "/svc/net/", dumpNode.Node)

	dumpAttr, err := rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, rcp.ActionDumpTreeAttr, dumpAttr.Action)
	assert.Equal(t, "port", dumpAttr.Key)
	assert.Equal(t, "80", dumpAttr.Value)

	_, err = n.PutAttribute("port", attr.Int, attr.IntValue(443))
	require.NoError(t, err)

	_ = nc.SetReadDeadline(time.Now().Add(2 * time.Second))
	push, err := rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, rcp.ActionPushMessageAttr, push.Action)
	assert.Equal(t, "port", push.Key)
	assert.Equal(t, "443", push.Value)
}

func TestGetMetadataPopulatesDedicatedFields(t *testing.T) {
	tree := ctree.NewTree()
	n, err := tree.GetNode("/svc/net/")
	require.NoError(t, err)
	defer n.Release()
	require.NoError(t, n.CreateAttribute("port", attr.Int, attr.IntValue(80),
		attr.NewRange(attr.Int, attr.IntValue(0), attr.IntValue(65535)), attr.ReadOnly, "listen port"))

	addr, stop := startTestServer(t, tree)
	defer stop()
	nc := dial(t, addr)
	defer nc.Close()

	// GET_TYPE is probed without knowing the attribute's type (here the
	// request's Type is left at its zero value); the reply must carry the
	// discovered type in the Type field, not Value.
	require.NoError(t, rcp.WriteFrame(nc, rcp.Frame{Action: rcp.ActionGetType, Node: "/svc/net/", Key: "port"}))
	resp, err := rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, attr.Int, resp.Type)
	assert.Empty(t, resp.Value)

	require.NoError(t, rcp.WriteFrame(nc, rcp.Frame{Action: rcp.ActionGetRanges, Node: "/svc/net/", Key: "port", Type: attr.Int}))
	resp, err = rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, "0,65535", resp.Ranges)
	assert.Empty(t, resp.Value)

	require.NoError(t, rcp.WriteFrame(nc, rcp.Frame{Action: rcp.ActionGetFlags, Node: "/svc/net/", Key: "port", Type: attr.Int}))
	resp, err = rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, int32(attr.ReadOnly), resp.Flags)
	assert.Empty(t, resp.Value)

	require.NoError(t, rcp.WriteFrame(nc, rcp.Frame{Action: rcp.ActionGetDescription, Node: "/svc/net/", Key: "port", Type: attr.Int}))
	resp, err = rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, "listen port", resp.Description)
	assert.Empty(t, resp.Value)
}

func TestGetChildrenAndAttributesUsePipeSeparator(t *testing.T) {
	tree := ctree.NewTree()
	n, err := tree.GetNode("/svc/")
	require.NoError(t, err)
	defer n.Release()
	_, err = tree.GetNode("/svc/a/")
	require.NoError(t, err)
	_, err = tree.GetNode("/svc/b/")
	require.NoError(t, err)
	require.NoError(t, n.CreateAttribute("x", attr.Int, attr.IntValue(0),
		attr.NewRange(attr.Int, attr.IntValue(0), attr.IntValue(1)), attr.Normal, ""))
	require.NoError(t, n.CreateAttribute("y", attr.Bool, attr.BoolValue(false), attr.BoolRange(), attr.Normal, ""))

	addr, stop := startTestServer(t, tree)
	defer stop()
	nc := dial(t, addr)
	defer nc.Close()

	require.NoError(t, rcp.WriteFrame(nc, rcp.Frame{Action: rcp.ActionGetChildren, Node: "/svc/"}))
	resp, err := rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, "a|b", resp.Value)

	require.NoError(t, rcp.WriteFrame(nc, rcp.Frame{Action: rcp.ActionGetAttributes, Node: "/svc/"}))
	resp, err = rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, "x:int|y:bool", resp.Value)
}

func TestPushClientOverflowDisconnectsConnection(t *testing.T) {
	tree := ctree.NewTree()
	n, err := tree.GetNode("/svc/net/")
	require.NoError(t, err)
	defer n.Release()
	require.NoError(t, n.CreateAttribute("port", attr.Int, attr.IntValue(0),
		attr.NewRange(attr.Int, attr.IntValue(0), attr.IntValue(1<<30)), attr.Normal, ""))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := rcp.NewServer(tree, rcp.WithHighWaterMark(1))
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Serve(ctx, ln)
	defer func() { cancel(); _ = srv.Close() }()

	nc := dial(t, ln.Addr().String())
	defer nc.Close()

	require.NoError(t, rcp.WriteFrame(nc, rcp.Frame{Action: rcp.ActionAddPushClient, Node: "/svc/net/"}))
	_, err = rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize) // ack
	require.NoError(t, err)
	_, err = rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize) // dump node
	require.NoError(t, err)
	_, err = rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize) // dump attr
	require.NoError(t, err)

	// Flood past the high-water mark of 1 without draining the socket, so
	// the server's push queue overflows and disconnects this connection.
	for i := 0; i < 10; i++ {
		_, err = n.PutAttribute("port", attr.Int, attr.IntValue(int32(i+1)))
		require.NoError(t, err)
	}

	_ = nc.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	deadline := time.Now().Add(2 * time.Second)
	sawClose := false
	for time.Now().Before(deadline) {
		_, err = nc.Read(buf)
		if err != nil {
			sawClose = true
			break
		}
	}
	assert.True(t, sawClose, "expected connection to be closed after push queue overflow")
}

func TestNodeExists(t *testing.T) {
	tree := ctree.NewTree()
	n, err := tree.GetNode("/a/b/")
	require.NoError(t, err)
	defer n.Release()

	addr, stop := startTestServer(t, tree)
	defer stop()
	nc := dial(t, addr)
	defer nc.Close()

	require.NoError(t, rcp.WriteFrame(nc, rcp.Frame{Action: rcp.ActionNodeExists, Node: "/a/b/"}))
	resp, err := rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, "true", resp.Value)

	require.NoError(t, rcp.WriteFrame(nc, rcp.Frame{Action: rcp.ActionNodeExists, Node: "/a/c/"}))
	resp, err = rcp.ReadFrame(nc, rcp.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, "false", resp.Value)
}
