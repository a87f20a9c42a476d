package query

import (
	"errors"
	"fmt"
)

// ErrUnsupportedNode is matched by every UnsupportedNodeError.
var ErrUnsupportedNode = errors.New("unsupported query node")

// UnsupportedNodeError reports a node kind a visitor does not handle.
type UnsupportedNodeError struct {
	Kind    string
	Visitor string
}

func (e *UnsupportedNodeError) Error() string {
	if e.Visitor == "" {
		return fmt.Sprintf("unsupported query node %q", e.Kind)
	}
	return fmt.Sprintf("%s: unsupported query node %q", e.Visitor, e.Kind)
}

func (e *UnsupportedNodeError) Is(target error) bool {
	return target == ErrUnsupportedNode
}

// Visitor interprets query nodes. data carries pass-specific context from
// parent to child; the returned value is the pass's result for the node.
type Visitor interface {
	VisitRoot(n *Root, data any) (any, error)
	VisitOr(n *Or, data any) (any, error)
	VisitAnd(n *And, data any) (any, error)
	VisitNot(n *Not, data any) (any, error)
	VisitExact(n *Exact, data any) (any, error)
	VisitNodeType(n *NodeType, data any) (any, error)
	VisitTextSearch(n *TextSearch, data any) (any, error)
	VisitPath(n *Path, data any) (any, error)
	VisitLocationStep(n *LocationStep, data any) (any, error)
	VisitRelation(n *Relation, data any) (any, error)
	VisitOrder(n *Order, data any) (any, error)
	VisitDeref(n *Deref, data any) (any, error)
	VisitPropertyFunction(n *PropertyFunction, data any) (any, error)
}

func (n *Root) Accept(v Visitor, data any) (any, error)         { return v.VisitRoot(n, data) }
func (n *Or) Accept(v Visitor, data any) (any, error)           { return v.VisitOr(n, data) }
func (n *And) Accept(v Visitor, data any) (any, error)          { return v.VisitAnd(n, data) }
func (n *Not) Accept(v Visitor, data any) (any, error)          { return v.VisitNot(n, data) }
func (n *Exact) Accept(v Visitor, data any) (any, error)        { return v.VisitExact(n, data) }
func (n *NodeType) Accept(v Visitor, data any) (any, error)     { return v.VisitNodeType(n, data) }
func (n *TextSearch) Accept(v Visitor, data any) (any, error)   { return v.VisitTextSearch(n, data) }
func (n *Path) Accept(v Visitor, data any) (any, error)         { return v.VisitPath(n, data) }
func (n *LocationStep) Accept(v Visitor, data any) (any, error) { return v.VisitLocationStep(n, data) }
func (n *Relation) Accept(v Visitor, data any) (any, error)     { return v.VisitRelation(n, data) }
func (n *Order) Accept(v Visitor, data any) (any, error)        { return v.VisitOrder(n, data) }
func (n *Deref) Accept(v Visitor, data any) (any, error)        { return v.VisitDeref(n, data) }
func (n *PropertyFunction) Accept(v Visitor, data any) (any, error) {
	return v.VisitPropertyFunction(n, data)
}

// UnsupportedVisitor fails every visit with an UnsupportedNodeError.
// Embed it in visitors that handle only part of the tree; Name labels the
// errors.
type UnsupportedVisitor struct {
	Name string
}

func (u UnsupportedVisitor) unsupported(n Node) (any, error) {
	return nil, &UnsupportedNodeError{Kind: n.Kind(), Visitor: u.Name}
}

func (u UnsupportedVisitor) VisitRoot(n *Root, _ any) (any, error)         { return u.unsupported(n) }
func (u UnsupportedVisitor) VisitOr(n *Or, _ any) (any, error)             { return u.unsupported(n) }
func (u UnsupportedVisitor) VisitAnd(n *And, _ any) (any, error)           { return u.unsupported(n) }
func (u UnsupportedVisitor) VisitNot(n *Not, _ any) (any, error)           { return u.unsupported(n) }
func (u UnsupportedVisitor) VisitExact(n *Exact, _ any) (any, error)       { return u.unsupported(n) }
func (u UnsupportedVisitor) VisitNodeType(n *NodeType, _ any) (any, error) { return u.unsupported(n) }
func (u UnsupportedVisitor) VisitTextSearch(n *TextSearch, _ any) (any, error) {
	return u.unsupported(n)
}
func (u UnsupportedVisitor) VisitPath(n *Path, _ any) (any, error) { return u.unsupported(n) }
func (u UnsupportedVisitor) VisitLocationStep(n *LocationStep, _ any) (any, error) {
	return u.unsupported(n)
}
func (u UnsupportedVisitor) VisitRelation(n *Relation, _ any) (any, error) { return u.unsupported(n) }
func (u UnsupportedVisitor) VisitOrder(n *Order, _ any) (any, error)       { return u.unsupported(n) }
func (u UnsupportedVisitor) VisitDeref(n *Deref, _ any) (any, error)       { return u.unsupported(n) }
func (u UnsupportedVisitor) VisitPropertyFunction(n *PropertyFunction, _ any) (any, error) {
	return u.unsupported(n)
}

var _ Visitor = UnsupportedVisitor{}

// Walk visits n and every descendant depth first, calling fn before the
// children. Returning false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Children returns the direct children of n.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Root:
		var out []Node
		if n.Location != nil {
			out = append(out, n.Location)
		}
		if n.Order != nil {
			out = append(out, n.Order)
		}
		return out
	case *Or:
		return n.Operands
	case *And:
		return n.Operands
	case *Not:
		if n.Operand == nil {
			return nil
		}
		return []Node{n.Operand}
	case *Path:
		out := make([]Node, len(n.Steps))
		for i, s := range n.Steps {
			out[i] = s
		}
		return out
	case *LocationStep:
		return n.Predicates
	case *Deref:
		return n.Predicates
	case *Relation:
		out := make([]Node, len(n.Functions))
		for i, f := range n.Functions {
			out[i] = f
		}
		return out
	}
	return nil
}
