package client

import (
	"github.com/brightgate/dvtree/attr"
	"github.com/brightgate/dvtree/ctree"
)

// ModuleOption declares one attribute as part of a module's registration
// set (spec §4.F). Grounded on tigerwill90-fox's Option/GlobalOption split:
// a ModuleOption closes over an attrSpec and appends it to a moduleBuild;
// RegisterModule applies the options in order, then creates the collected
// attributes on a freshly opened Client, the same way fox's functional
// options are applied in order against a Router under construction.
type ModuleOption func(*moduleBuild)

type attrSpec struct {
	key         string
	typ         attr.Type
	def         attr.Value
	ranges      attr.Range
	flags       attr.Flags
	description string
}

type moduleBuild struct {
	attrs []attrSpec
}

// WithBool declares a BOOL attribute.
func WithBool(key string, def bool, flags attr.Flags, description string) ModuleOption {
	return func(b *moduleBuild) {
		b.attrs = append(b.attrs, attrSpec{key, attr.Bool, attr.BoolValue(def), attr.BoolRange(), flags, description})
	}
}

// WithInt declares an INT attribute bounded by [min, max].
func WithInt(key string, def, min, max int32, flags attr.Flags, description string) ModuleOption {
	return func(b *moduleBuild) {
		b.attrs = append(b.attrs, attrSpec{key, attr.Int, attr.IntValue(def),
			attr.NewRange(attr.Int, attr.IntValue(min), attr.IntValue(max)), flags, description})
	}
}

// WithLong declares a LONG attribute bounded by [min, max].
func WithLong(key string, def, min, max int64, flags attr.Flags, description string) ModuleOption {
	return func(b *moduleBuild) {
		b.attrs = append(b.attrs, attrSpec{key, attr.Long, attr.LongValue(def),
			attr.NewRange(attr.Long, attr.LongValue(min), attr.LongValue(max)), flags, description})
	}
}

// WithFloat declares a FLOAT attribute bounded by [min, max].
func WithFloat(key string, def, min, max float32, flags attr.Flags, description string) ModuleOption {
	return func(b *moduleBuild) {
		b.attrs = append(b.attrs, attrSpec{key, attr.Float, attr.FloatValue(def),
			attr.NewRange(attr.Float, attr.FloatValue(min), attr.FloatValue(max)), flags, description})
	}
}

// WithDouble declares a DOUBLE attribute bounded by [min, max].
func WithDouble(key string, def, min, max float64, flags attr.Flags, description string) ModuleOption {
	return func(b *moduleBuild) {
		b.attrs = append(b.attrs, attrSpec{key, attr.Double, attr.DoubleValue(def),
			attr.NewRange(attr.Double, attr.DoubleValue(min), attr.DoubleValue(max)), flags, description})
	}
}

// WithString declares a STRING attribute whose byte length must fall in
// [minLen, maxLen].
func WithString(key, def string, minLen, maxLen int64, flags attr.Flags, description string) ModuleOption {
	return func(b *moduleBuild) {
		b.attrs = append(b.attrs, attrSpec{key, attr.String, attr.StringValue(def),
			attr.NewRange(attr.String, attr.LongValue(minLen), attr.LongValue(maxLen)), flags, description})
	}
}

// RegisterModule opens path on tree and idempotently creates every
// attribute described by opts, in the order given. Re-registering an
// already-present module with the same declarations is a no-op per
// CreateAttribute's idempotency rule (spec §4.B); a declaration that
// conflicts with an existing attribute's ranges or flags surfaces
// attr.ErrConflict and registration stops partway through, with the
// partially-registered Client still returned so the caller can inspect or
// retry.
func RegisterModule(tree *ctree.Tree, path string, opts ...ModuleOption) (*Client, error) {
	c, err := Open(tree, path)
	if err != nil {
		return nil, err
	}

	var b moduleBuild
	for _, opt := range opts {
		opt(&b)
	}

	for _, a := range b.attrs {
		if err := c.node.CreateAttribute(a.key, a.typ, a.def, a.ranges, a.flags, a.description); err != nil {
			return c, err
		}
	}
	return c, nil
}
