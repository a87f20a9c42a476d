package query

import (
	"fmt"
	"strings"
)

// Dump renders n as an indented tree, one node per line.
func Dump(n Node) (string, error) {
	d := &dumper{}
	if _, err := n.Accept(d, 0); err != nil {
		return "", err
	}
	return d.sb.String(), nil
}

type dumper struct {
	sb strings.Builder
}

var _ Visitor = (*dumper)(nil)

func (d *dumper) line(depth any, format string, args ...any) int {
	level, _ := depth.(int)
	d.sb.WriteString(strings.Repeat("  ", level))
	fmt.Fprintf(&d.sb, format, args...)
	d.sb.WriteByte('\n')
	return level + 1
}

func (d *dumper) children(depth int, nodes ...Node) (any, error) {
	for _, c := range nodes {
		if c == nil {
			continue
		}
		if _, err := c.Accept(d, depth); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (d *dumper) VisitRoot(n *Root, depth any) (any, error) {
	next := d.line(depth, "Root columns=%v", n.Columns)
	if n.Location != nil {
		if _, err := n.Location.Accept(d, next); err != nil {
			return nil, err
		}
	}
	if n.Order != nil {
		return n.Order.Accept(d, next)
	}
	return nil, nil
}

func (d *dumper) VisitOr(n *Or, depth any) (any, error) {
	return d.children(d.line(depth, "Or"), n.Operands...)
}

func (d *dumper) VisitAnd(n *And, depth any) (any, error) {
	return d.children(d.line(depth, "And"), n.Operands...)
}

func (d *dumper) VisitNot(n *Not, depth any) (any, error) {
	return d.children(d.line(depth, "Not"), n.Operand)
}

func (d *dumper) VisitExact(n *Exact, depth any) (any, error) {
	d.line(depth, "Exact @%s = %q", n.Property, n.Value)
	return nil, nil
}

func (d *dumper) VisitNodeType(n *NodeType, depth any) (any, error) {
	d.line(depth, "NodeType %s", n.Type)
	return nil, nil
}

func (d *dumper) VisitTextSearch(n *TextSearch, depth any) (any, error) {
	prop := "."
	if n.Property != "" {
		prop = "@" + n.Property
	}
	d.line(depth, "TextSearch %s %q", prop, n.Text)
	return nil, nil
}

func (d *dumper) VisitPath(n *Path, depth any) (any, error) {
	next := d.line(depth, "Path")
	for _, s := range n.Steps {
		if _, err := s.Accept(d, next); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (d *dumper) VisitLocationStep(n *LocationStep, depth any) (any, error) {
	axis := "child"
	if n.Descendants {
		axis = "descendant"
	}
	return d.children(d.line(depth, "LocationStep %s::%s", axis, nameOrAny(n.NameTest)), n.Predicates...)
}

func (d *dumper) VisitDeref(n *Deref, depth any) (any, error) {
	return d.children(d.line(depth, "Deref @%s -> %s", n.Property, nameOrAny(n.NameTest)), n.Predicates...)
}

func (d *dumper) VisitRelation(n *Relation, depth any) (any, error) {
	var next int
	if n.Op.Unary() {
		next = d.line(depth, "Relation @%s %s", n.Property, n.Op)
	} else {
		next = d.line(depth, "Relation @%s %s %s(%q)", n.Property, n.Op, n.Type, n.Value)
	}
	for _, f := range n.Functions {
		if _, err := f.Accept(d, next); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (d *dumper) VisitPropertyFunction(n *PropertyFunction, depth any) (any, error) {
	d.line(depth, "PropertyFunction %s", n.Name)
	return nil, nil
}

func (d *dumper) VisitOrder(n *Order, depth any) (any, error) {
	specs := make([]string, len(n.Specs))
	for i, s := range n.Specs {
		dir := "asc"
		if s.Descending {
			dir = "desc"
		}
		specs[i] = s.Property + " " + dir
	}
	d.line(depth, "Order %s", strings.Join(specs, ", "))
	return nil, nil
}

func nameOrAny(name string) string {
	if name == "" {
		return "*"
	}
	return name
}
