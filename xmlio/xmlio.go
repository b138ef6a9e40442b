// Package xmlio implements the stable textual export/import form for a
// configuration subtree (spec §4.D):
//
//	<dv>
//	  <node name="<basename>" path="<canonical>">
//	    <attr key="K" type="T">string-form</attr>
//	    <node>...</node>
//	  </node>
//	</dv>
package xmlio

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"

	"github.com/brightgate/dvtree/attr"
	"github.com/brightgate/dvtree/ctree"
)

type xmlDv struct {
	XMLName xml.Name `xml:"dv"`
	Node    xmlNode  `xml:"node"`
}

type xmlNode struct {
	Name  string    `xml:"name,attr"`
	Path  string    `xml:"path,attr"`
	Attrs []xmlAttr `xml:"attr"`
	Nodes []xmlNode `xml:"node"`
}

type xmlAttr struct {
	Key   string `xml:"key,attr"`
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// Export writes the subtree rooted at n to w in the canonical XML form.
// Attributes flagged NO_EXPORT, and NOTIFY_ONLY attributes (which have no
// stored value), are omitted. Children are written in lexicographic order
// by name for a stable, diffable export — see DESIGN.md's Open Question
// resolution; this differs from the tree's general insertion-order
// guarantee for GetChildNames.
func Export(w io.Writer, n *ctree.Node) error {
	doc := xmlDv{Node: buildXMLNode(n)}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("xmlio: export %s: %w", n.Path(), err)
	}
	return nil
}

func buildXMLNode(n *ctree.Node) xmlNode {
	out := xmlNode{Name: n.Name(), Path: n.Path()}

	for _, rec := range n.GetAttributeKeys() {
		if rec.Flags.Has(attr.NoExport) || rec.Flags.Has(attr.NotifyOnly) {
			continue
		}
		s, err := attr.ValueToString(rec.Typ, rec.Value)
		if err != nil {
			continue
		}
		out.Attrs = append(out.Attrs, xmlAttr{Key: rec.Key, Type: rec.Typ.String(), Value: s})
	}

	children := n.GetChildren()
	names := make([]string, 0, len(children))
	byName := make(map[string]*ctree.Node, len(children))
	for _, c := range children {
		names = append(names, c.Name())
		byName[c.Name()] = c
	}
	sort.Strings(names)
	for _, name := range names {
		out.Nodes = append(out.Nodes, buildXMLNode(byName[name]))
	}
	for _, c := range children {
		c.Release()
	}

	return out
}

// ImportOptions controls strict vs lenient import semantics.
type ImportOptions struct {
	// Strict rejects on the first unknown attribute, type mismatch or
	// out-of-range value. Non-strict skips the offender, logs it via
	// Logf if set, and continues, returning an aggregate Result.
	Strict bool
	Logf   func(format string, args ...any)
}

// Result reports the outcome of a lenient import. Strict imports return
// as soon as the first error is hit, so Result is only meaningful when
// ImportOptions.Strict is false.
type Result struct {
	Applied int
	Skipped []SkipReason
}

// SkipReason records one attribute that a lenient import declined to
// apply.
type SkipReason struct {
	Path string
	Key  string
	Type attr.Type
	Err  error
}

// Import reads the canonical XML form from r and applies attribute values
// onto the tree rooted at root. Import is additive: existing attributes
// retain their creation metadata (ranges, flags, description); only their
// values are PUT. Nodes present in the XML but absent from the tree are
// materialized via Tree.GetRelativeNode. Attributes are not: import never
// calls CreateAttribute, since it has no range/flags/description to create
// with, so an attribute present only in the XML with no matching
// pre-created attribute on the tree is always a skip/error.
func Import(r io.Reader, root *ctree.Node, opts ImportOptions) (Result, error) {
	var doc xmlDv
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return Result{}, fmt.Errorf("xmlio: decode: %w", err)
	}

	var res Result
	err := importNode(root, doc.Node, opts, &res)
	return res, err
}

func importNode(n *ctree.Node, x xmlNode, opts ImportOptions, res *Result) error {
	for _, a := range x.Attrs {
		typ, err := attr.ParseType(a.Type)
		if err != nil {
			if err := fail(opts, res, n.Path(), a.Key, attr.Unknown, err); err != nil {
				return err
			}
			continue
		}
		if !n.Exists(a.Key, typ) {
			if err := fail(opts, res, n.Path(), a.Key, typ, attr.ErrNotFound); err != nil {
				return err
			}
			continue
		}
		val, err := attr.StringToValue(typ, a.Value)
		if err != nil {
			if err := fail(opts, res, n.Path(), a.Key, typ, err); err != nil {
				return err
			}
			continue
		}
		if _, err := n.PutAttribute(a.Key, typ, val); err != nil {
			if err2 := fail(opts, res, n.Path(), a.Key, typ, err); err2 != nil {
				return err2
			}
			continue
		}
		res.Applied++
	}

	for _, childX := range x.Nodes {
		child, err := n.Tree().GetRelativeNode(n, childX.Name+"/")
		if err != nil {
			return err
		}
		err = importNode(child, childX, opts, res)
		child.Release()
		if err != nil {
			return err
		}
	}

	return nil
}

func fail(opts ImportOptions, res *Result, path, key string, typ attr.Type, cause error) error {
	if opts.Strict {
		return fmt.Errorf("xmlio: import %s%s (%s): %w", path, key, typ, cause)
	}
	res.Skipped = append(res.Skipped, SkipReason{Path: path, Key: key, Type: typ, Err: cause})
	if opts.Logf != nil {
		opts.Logf("xmlio: skipping %s%s (%s): %v", path, key, typ, cause)
	}
	return nil
}
