package query

// Normalize rewrites n into an equivalent, simpler tree: nested And/Or of
// the same kind are flattened, single-operand And/Or are unwrapped and
// double negations are removed. When nothing changes Normalize returns n
// itself, so callers can compare by identity to skip recompilation.
func Normalize(n Node) (Node, error) {
	out, err := n.Accept(normalizer{}, nil)
	if err != nil {
		return nil, err
	}
	return out.(Node), nil
}

type normalizer struct{}

var _ Visitor = normalizer{}

func (v normalizer) VisitRoot(n *Root, _ any) (any, error) {
	loc := n.Location
	if loc != nil {
		out, err := v.VisitPath(loc, nil)
		if err != nil {
			return nil, err
		}
		loc = out.(*Path)
	}
	if loc == n.Location {
		return n, nil
	}
	return &Root{Location: loc, Columns: n.Columns, Order: n.Order}, nil
}

func (v normalizer) VisitOr(n *Or, _ any) (any, error) {
	ops, changed, err := v.operands(n.Operands, func(c Node) []Node {
		if or, ok := c.(*Or); ok {
			return or.Operands
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(ops) == 1 {
		return ops[0], nil
	}
	if !changed {
		return n, nil
	}
	return &Or{Operands: ops}, nil
}

func (v normalizer) VisitAnd(n *And, _ any) (any, error) {
	ops, changed, err := v.operands(n.Operands, func(c Node) []Node {
		if and, ok := c.(*And); ok {
			return and.Operands
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(ops) == 1 {
		return ops[0], nil
	}
	if !changed {
		return n, nil
	}
	return &And{Operands: ops}, nil
}

func (v normalizer) VisitNot(n *Not, _ any) (any, error) {
	out, err := n.Operand.Accept(v, nil)
	if err != nil {
		return nil, err
	}
	op := out.(Node)
	if inner, ok := op.(*Not); ok {
		return inner.Operand, nil
	}
	if op == n.Operand {
		return n, nil
	}
	return &Not{Operand: op}, nil
}

func (v normalizer) VisitExact(n *Exact, _ any) (any, error)           { return n, nil }
func (v normalizer) VisitNodeType(n *NodeType, _ any) (any, error)     { return n, nil }
func (v normalizer) VisitTextSearch(n *TextSearch, _ any) (any, error) { return n, nil }
func (v normalizer) VisitRelation(n *Relation, _ any) (any, error)     { return n, nil }
func (v normalizer) VisitOrder(n *Order, _ any) (any, error)           { return n, nil }
func (v normalizer) VisitPropertyFunction(n *PropertyFunction, _ any) (any, error) {
	return n, nil
}

func (v normalizer) VisitPath(n *Path, _ any) (any, error) {
	var steps []Step
	for i, s := range n.Steps {
		out, err := s.Accept(v, nil)
		if err != nil {
			return nil, err
		}
		step := out.(Step)
		if step != s && steps == nil {
			steps = append(make([]Step, 0, len(n.Steps)), n.Steps[:i]...)
		}
		if steps != nil {
			steps = append(steps, step)
		}
	}
	if steps == nil {
		return n, nil
	}
	return &Path{Steps: steps}, nil
}

func (v normalizer) VisitLocationStep(n *LocationStep, _ any) (any, error) {
	preds, changed, err := v.predicates(n.Predicates)
	if err != nil {
		return nil, err
	}
	if !changed {
		return n, nil
	}
	return &LocationStep{NameTest: n.NameTest, Descendants: n.Descendants, Predicates: preds}, nil
}

func (v normalizer) VisitDeref(n *Deref, _ any) (any, error) {
	preds, changed, err := v.predicates(n.Predicates)
	if err != nil {
		return nil, err
	}
	if !changed {
		return n, nil
	}
	return &Deref{Property: n.Property, NameTest: n.NameTest, Predicates: preds}, nil
}

// predicates normalizes a step's predicate list; top-level And operands are
// spliced into the list since step predicates are conjunctive.
func (v normalizer) predicates(preds []Node) ([]Node, bool, error) {
	return v.operands(preds, func(c Node) []Node {
		if and, ok := c.(*And); ok {
			return and.Operands
		}
		return nil
	})
}

// operands normalizes nodes and splices in the operands of children for
// which flatten returns non-nil.
func (v normalizer) operands(nodes []Node, flatten func(Node) []Node) ([]Node, bool, error) {
	out := make([]Node, 0, len(nodes))
	changed := false
	for _, c := range nodes {
		res, err := c.Accept(v, nil)
		if err != nil {
			return nil, false, err
		}
		nc := res.(Node)
		if nc != c {
			changed = true
		}
		if inner := flatten(nc); inner != nil {
			out = append(out, inner...)
			changed = true
			continue
		}
		out = append(out, nc)
	}
	return out, changed, nil
}
