// Package translate compiles query syntax trees into search operator trees.
package translate

import (
	"fmt"

	"github.com/aidanlsb/corvid/internal/index"
	"github.com/aidanlsb/corvid/internal/query"
	"github.com/aidanlsb/corvid/internal/search"
)

// Plan is a compiled multi-column query.
type Plan struct {
	Query   search.Query
	Columns []string

	// OrderProperties and OrderDescending are parallel; empty keeps the
	// execution order.
	OrderProperties []string
	OrderDescending []bool
}

// Compile normalizes root and translates it into a Plan.
func Compile(root *query.Root) (*Plan, error) {
	n, err := query.Normalize(root)
	if err != nil {
		return nil, err
	}
	plan := &Plan{}
	p := &planner{UnsupportedVisitor: query.UnsupportedVisitor{Name: "planner"}, plan: plan}
	if _, err := n.Accept(p, nil); err != nil {
		return nil, err
	}
	return plan, nil
}

// Predicate translates a single predicate node.
func Predicate(n query.Node) (search.Query, error) {
	return translatePredicate(n)
}

// planner handles the structural part of the tree: root, path, steps and
// order. Predicates are delegated to predicateTranslator.
type planner struct {
	query.UnsupportedVisitor
	plan *Plan
}

func (p *planner) VisitRoot(n *query.Root, _ any) (any, error) {
	p.plan.Columns = append([]string(nil), n.Columns...)
	var q search.Query = search.NewMatchAllQuery()
	if n.Location != nil {
		out, err := n.Location.Accept(p, nil)
		if err != nil {
			return nil, err
		}
		q = out.(search.Query)
	}
	p.plan.Query = q
	if n.Order != nil {
		if _, err := n.Order.Accept(p, nil); err != nil {
			return nil, err
		}
	}
	return p.plan, nil
}

// VisitPath chains the steps; each step receives the previous step's query
// as its context.
func (p *planner) VisitPath(n *query.Path, _ any) (any, error) {
	if len(n.Steps) == 0 {
		return search.NewMatchAllQuery(), nil
	}
	var ctx search.Query
	for _, s := range n.Steps {
		out, err := s.Accept(p, ctx)
		if err != nil {
			return nil, err
		}
		ctx = out.(search.Query)
	}
	return ctx, nil
}

func (p *planner) VisitLocationStep(n *query.LocationStep, data any) (any, error) {
	ctx, _ := data.(search.Query)
	return filter(search.NewChildAxisQuery(ctx, n.NameTest, n.Descendants), n.Predicates)
}

func (p *planner) VisitDeref(n *query.Deref, data any) (any, error) {
	ctx, _ := data.(search.Query)
	if ctx == nil {
		ctx = search.NewMatchAllQuery()
	}
	return filter(search.NewDerefQuery(ctx, n.Property, n.NameTest), n.Predicates)
}

func (p *planner) VisitOrder(n *query.Order, _ any) (any, error) {
	for _, s := range n.Specs {
		p.plan.OrderProperties = append(p.plan.OrderProperties, s.Property)
		p.plan.OrderDescending = append(p.plan.OrderDescending, s.Descending)
	}
	return nil, nil
}

// filter restricts q to nodes matching every predicate.
func filter(q search.Query, preds []query.Node) (search.Query, error) {
	if len(preds) == 0 {
		return q, nil
	}
	clauses := []search.BooleanClause{{Query: q, Occur: search.Must}}
	for _, pred := range preds {
		pq, err := translatePredicate(pred)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, search.BooleanClause{Query: pq, Occur: search.Must})
	}
	return search.NewBooleanQuery(clauses...), nil
}

func translatePredicate(n query.Node) (search.Query, error) {
	out, err := n.Accept(predicateTranslator{query.UnsupportedVisitor{Name: "predicate"}}, nil)
	if err != nil {
		return nil, err
	}
	return out.(search.Query), nil
}

// predicateTranslator handles the boolean and comparison nodes that may
// appear inside step predicates.
type predicateTranslator struct {
	query.UnsupportedVisitor
}

func (v predicateTranslator) VisitAnd(n *query.And, _ any) (any, error) {
	return v.combine(n.Operands, search.Must)
}

func (v predicateTranslator) VisitOr(n *query.Or, _ any) (any, error) {
	return v.combine(n.Operands, search.Should)
}

func (v predicateTranslator) VisitNot(n *query.Not, _ any) (any, error) {
	q, err := translatePredicate(n.Operand)
	if err != nil {
		return nil, err
	}
	return search.NewBooleanQuery(search.BooleanClause{Query: q, Occur: search.MustNot}), nil
}

func (v predicateTranslator) combine(operands []query.Node, occur search.Occur) (any, error) {
	clauses := make([]search.BooleanClause, 0, len(operands))
	for _, op := range operands {
		q, err := translatePredicate(op)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, search.BooleanClause{Query: q, Occur: occur})
	}
	return search.NewBooleanQuery(clauses...), nil
}

func (v predicateTranslator) VisitExact(n *query.Exact, _ any) (any, error) {
	return search.NewTermQuery(index.FieldProperties, index.NamedValue(n.Property, n.Value)), nil
}

func (v predicateTranslator) VisitNodeType(n *query.NodeType, _ any) (any, error) {
	return search.NewTermQuery(index.FieldPrimaryType, n.Type), nil
}

func (v predicateTranslator) VisitTextSearch(n *query.TextSearch, _ any) (any, error) {
	return search.NewTextQuery(n.Property, n.Text), nil
}

func (v predicateTranslator) VisitPropertyFunction(n *query.PropertyFunction, _ any) (any, error) {
	switch n.Name {
	case query.FunctionLower:
		return search.TransformLower, nil
	case query.FunctionUpper:
		return search.TransformUpper, nil
	}
	return nil, fmt.Errorf("unknown property function %q", n.Name)
}

func (v predicateTranslator) VisitRelation(n *query.Relation, _ any) (any, error) {
	// functions apply innermost first, so the last one decides the case
	transform := search.TransformNone
	for _, f := range n.Functions {
		out, err := f.Accept(v, nil)
		if err != nil {
			return nil, err
		}
		transform = out.(search.Transform)
	}

	exists := search.NewTermQuery(index.FieldPropertiesSet, n.Property)
	term := n.Value
	if transform == search.TransformNone {
		term = index.PropertyTerm(n.Type, n.Value)
	}

	switch n.Op {
	case query.OpExists:
		return exists, nil
	case query.OpMissing:
		return search.NewBooleanQuery(search.BooleanClause{Query: exists, Occur: search.MustNot}), nil
	case query.OpEq:
		return equals(n.Property, term, transform), nil
	case query.OpNe:
		return search.NewBooleanQuery(
			search.BooleanClause{Query: exists, Occur: search.Must},
			search.BooleanClause{Query: equals(n.Property, term, transform), Occur: search.MustNot},
		), nil
	case query.OpLt:
		return search.NewRangeQuery(n.Property, nil, &term, false, false, transform), nil
	case query.OpLe:
		return search.NewRangeQuery(n.Property, nil, &term, false, true, transform), nil
	case query.OpGt:
		return search.NewRangeQuery(n.Property, &term, nil, false, false, transform), nil
	case query.OpGe:
		return search.NewRangeQuery(n.Property, &term, nil, true, false, transform), nil
	case query.OpLike:
		return search.NewWildcardQuery(n.Property, n.Value, transform), nil
	}
	return nil, fmt.Errorf("unknown relation operation %s", n.Op)
}

func equals(property, term string, transform search.Transform) search.Query {
	if transform == search.TransformNone {
		return search.NewTermQuery(index.FieldProperties, index.NamedValue(property, term))
	}
	return search.NewRangeQuery(property, &term, &term, true, true, transform)
}
