// Package client is a typed façade over a ctree.Tree: one create/put/get
// method per attribute type instead of the tagged attr.Value union, plus a
// functional-options module registration builder (spec §4.F), grounded on
// tigerwill90-fox's options.go.
package client

import (
	"github.com/brightgate/dvtree/attr"
	"github.com/brightgate/dvtree/ctree"
)

// Client wraps a single node, exposing the typed convenience API a module
// author reaches for instead of the tree's raw key/type/value calls.
type Client struct {
	tree *ctree.Tree
	node *ctree.Node
}

// Open resolves path against tree and returns a Client bound to that node.
// Callers must call Close when done with it.
func Open(tree *ctree.Tree, path string) (*Client, error) {
	n, err := tree.GetNode(path)
	if err != nil {
		return nil, err
	}
	return &Client{tree: tree, node: n}, nil
}

// Close releases the underlying node reference.
func (c *Client) Close() { c.node.Release() }

// Node returns the node this client is bound to.
func (c *Client) Node() *ctree.Node { return c.node }

// CreateBool declares a BOOL attribute on the client's node.
func (c *Client) CreateBool(key string, def bool, flags attr.Flags, description string) error {
	return c.node.CreateAttribute(key, attr.Bool, attr.BoolValue(def), attr.BoolRange(), flags, description)
}

// CreateInt declares an INT attribute bounded by [min, max].
func (c *Client) CreateInt(key string, def, min, max int32, flags attr.Flags, description string) error {
	return c.node.CreateAttribute(key, attr.Int, attr.IntValue(def),
		attr.NewRange(attr.Int, attr.IntValue(min), attr.IntValue(max)), flags, description)
}

// CreateLong declares a LONG attribute bounded by [min, max].
func (c *Client) CreateLong(key string, def, min, max int64, flags attr.Flags, description string) error {
	return c.node.CreateAttribute(key, attr.Long, attr.LongValue(def),
		attr.NewRange(attr.Long, attr.LongValue(min), attr.LongValue(max)), flags, description)
}

// CreateFloat declares a FLOAT attribute bounded by [min, max].
func (c *Client) CreateFloat(key string, def, min, max float32, flags attr.Flags, description string) error {
	return c.node.CreateAttribute(key, attr.Float, attr.FloatValue(def),
		attr.NewRange(attr.Float, attr.FloatValue(min), attr.FloatValue(max)), flags, description)
}

// CreateDouble declares a DOUBLE attribute bounded by [min, max].
func (c *Client) CreateDouble(key string, def, min, max float64, flags attr.Flags, description string) error {
	return c.node.CreateAttribute(key, attr.Double, attr.DoubleValue(def),
		attr.NewRange(attr.Double, attr.DoubleValue(min), attr.DoubleValue(max)), flags, description)
}

// CreateString declares a STRING attribute whose byte length must fall in
// [minLen, maxLen].
func (c *Client) CreateString(key, def string, minLen, maxLen int64, flags attr.Flags, description string) error {
	return c.node.CreateAttribute(key, attr.String, attr.StringValue(def),
		attr.NewRange(attr.String, attr.LongValue(minLen), attr.LongValue(maxLen)), flags, description)
}

// PutBool stores a new BOOL value, returning whether it actually changed.
func (c *Client) PutBool(key string, v bool) (bool, error) {
	return c.node.PutAttribute(key, attr.Bool, attr.BoolValue(v))
}

// PutInt stores a new INT value.
func (c *Client) PutInt(key string, v int32) (bool, error) {
	return c.node.PutAttribute(key, attr.Int, attr.IntValue(v))
}

// PutLong stores a new LONG value.
func (c *Client) PutLong(key string, v int64) (bool, error) {
	return c.node.PutAttribute(key, attr.Long, attr.LongValue(v))
}

// PutFloat stores a new FLOAT value.
func (c *Client) PutFloat(key string, v float32) (bool, error) {
	return c.node.PutAttribute(key, attr.Float, attr.FloatValue(v))
}

// PutDouble stores a new DOUBLE value.
func (c *Client) PutDouble(key string, v float64) (bool, error) {
	return c.node.PutAttribute(key, attr.Double, attr.DoubleValue(v))
}

// PutString stores a new STRING value.
func (c *Client) PutString(key string, v string) (bool, error) {
	return c.node.PutAttribute(key, attr.String, attr.StringValue(v))
}

// GetBool returns the current BOOL value of key.
func (c *Client) GetBool(key string) (bool, error) {
	v, err := c.node.GetAttribute(key, attr.Bool)
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

// GetInt returns the current INT value of key.
func (c *Client) GetInt(key string) (int32, error) {
	v, err := c.node.GetAttribute(key, attr.Int)
	if err != nil {
		return 0, err
	}
	return v.Int(), nil
}

// GetLong returns the current LONG value of key.
func (c *Client) GetLong(key string) (int64, error) {
	v, err := c.node.GetAttribute(key, attr.Long)
	if err != nil {
		return 0, err
	}
	return v.Long(), nil
}

// GetFloat returns the current FLOAT value of key.
func (c *Client) GetFloat(key string) (float32, error) {
	v, err := c.node.GetAttribute(key, attr.Float)
	if err != nil {
		return 0, err
	}
	return v.Float(), nil
}

// GetDouble returns the current DOUBLE value of key.
func (c *Client) GetDouble(key string) (float64, error) {
	v, err := c.node.GetAttribute(key, attr.Double)
	if err != nil {
		return 0, err
	}
	return v.Double(), nil
}

// GetString returns the current STRING value of key.
func (c *Client) GetString(key string) (string, error) {
	v, err := c.node.GetAttribute(key, attr.String)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// GetBoolOr returns key's value, or def if the attribute does not exist.
// [EXPANSION] modeled on the original SSHS client's get-with-fallback
// convenience family (SPEC_FULL.md §9).
func (c *Client) GetBoolOr(key string, def bool) bool {
	v, err := c.GetBool(key)
	if err != nil {
		return def
	}
	return v
}

// GetIntOr returns key's value, or def if the attribute does not exist.
func (c *Client) GetIntOr(key string, def int32) int32 {
	v, err := c.GetInt(key)
	if err != nil {
		return def
	}
	return v
}

// GetLongOr returns key's value, or def if the attribute does not exist.
func (c *Client) GetLongOr(key string, def int64) int64 {
	v, err := c.GetLong(key)
	if err != nil {
		return def
	}
	return v
}

// GetFloatOr returns key's value, or def if the attribute does not exist.
func (c *Client) GetFloatOr(key string, def float32) float32 {
	v, err := c.GetFloat(key)
	if err != nil {
		return def
	}
	return v
}

// GetDoubleOr returns key's value, or def if the attribute does not exist.
func (c *Client) GetDoubleOr(key string, def float64) float64 {
	v, err := c.GetDouble(key)
	if err != nil {
		return def
	}
	return v
}

// GetStringOr returns key's value, or def if the attribute does not exist.
func (c *Client) GetStringOr(key string, def string) string {
	v, err := c.GetString(key)
	if err != nil {
		return def
	}
	return v
}
