package query

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/corvid/internal/model"
)

// ErrInvalidQuery is returned for malformed query documents.
var ErrInvalidQuery = errors.New("invalid query")

// document is the YAML form of a query:
//
//	select: [title, "@score"]
//	from:
//	  - child: projects
//	  - descendant: "*"
//	    where: {type: page}
//	  - deref: {property: owner, name: "*"}
//	where:
//	  - gt: {property: rank, value: 3}
//	order:
//	  - {property: rank, descending: true}
//
// A top-level where applies to the last step; without steps it selects
// among all nodes.
type document struct {
	Select []string   `yaml:"select"`
	From   []stepDoc  `yaml:"from"`
	Where  yaml.Node  `yaml:"where"`
	Order  []orderDoc `yaml:"order"`
}

type stepDoc struct {
	Child      *string   `yaml:"child"`
	Descendant *string   `yaml:"descendant"`
	Deref      *derefDoc `yaml:"deref"`
	Where      yaml.Node `yaml:"where"`
}

type derefDoc struct {
	Property string `yaml:"property"`
	Name     string `yaml:"name"`
}

type orderDoc struct {
	Property   string `yaml:"property"`
	Descending bool   `yaml:"descending"`
}

type relationDoc struct {
	Property string    `yaml:"property"`
	Value    yaml.Node `yaml:"value"`
	Pattern  string    `yaml:"pattern"`
	Type     string    `yaml:"type"`
	Function yaml.Node `yaml:"function"`
}

// Decode reads a YAML query document.
func Decode(r io.Reader) (*Root, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidQuery)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return doc.root()
}

// DecodeString reads a YAML query document from s.
func DecodeString(s string) (*Root, error) {
	return Decode(strings.NewReader(s))
}

func (d *document) root() (*Root, error) {
	root := &Root{Columns: d.Select}

	path := &Path{}
	for i := range d.From {
		step, err := d.From[i].step()
		if err != nil {
			return nil, fmt.Errorf("from[%d]: %w", i, err)
		}
		path.Steps = append(path.Steps, step)
	}

	where, err := decodeWhere(&d.Where)
	if err != nil {
		return nil, err
	}
	if len(where) > 0 {
		if len(path.Steps) == 0 {
			path.Steps = append(path.Steps, &LocationStep{Descendants: true})
		}
		switch last := path.Steps[len(path.Steps)-1].(type) {
		case *LocationStep:
			last.Predicates = append(last.Predicates, where...)
		case *Deref:
			last.Predicates = append(last.Predicates, where...)
		}
	}
	if len(path.Steps) > 0 {
		root.Location = path
	}

	if len(d.Order) > 0 {
		root.Order = &Order{}
		for i, o := range d.Order {
			if o.Property == "" {
				return nil, fmt.Errorf("%w: order[%d]: missing property", ErrInvalidQuery, i)
			}
			root.Order.Specs = append(root.Order.Specs, OrderSpec{Property: o.Property, Descending: o.Descending})
		}
	}
	return root, nil
}

func (s *stepDoc) step() (Step, error) {
	set := 0
	for _, present := range []bool{s.Child != nil, s.Descendant != nil, s.Deref != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: a step needs exactly one of child, descendant or deref", ErrInvalidQuery)
	}
	preds, err := decodeWhere(&s.Where)
	if err != nil {
		return nil, err
	}
	switch {
	case s.Child != nil:
		return &LocationStep{NameTest: *s.Child, Predicates: preds}, nil
	case s.Descendant != nil:
		return &LocationStep{NameTest: *s.Descendant, Descendants: true, Predicates: preds}, nil
	default:
		if s.Deref.Property == "" {
			return nil, fmt.Errorf("%w: deref without property", ErrInvalidQuery)
		}
		return &Deref{Property: s.Deref.Property, NameTest: s.Deref.Name, Predicates: preds}, nil
	}
}

// decodeWhere accepts a single predicate or a list of predicates.
func decodeWhere(n *yaml.Node) ([]Node, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		out := make([]Node, 0, len(n.Content))
		for _, c := range n.Content {
			p, err := decodePredicate(c)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	default:
		p, err := decodePredicate(n)
		if err != nil {
			return nil, err
		}
		return []Node{p}, nil
	}
}

func invalid(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrInvalidQuery, n.Line, fmt.Sprintf(format, args...))
}

func decodePredicate(n *yaml.Node) (Node, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return nil, invalid(n, "predicate must be a mapping with one key")
	}
	key, val := n.Content[0].Value, n.Content[1]

	switch key {
	case "and", "or":
		if val.Kind != yaml.SequenceNode || len(val.Content) == 0 {
			return nil, invalid(val, "%s expects a non-empty list", key)
		}
		ops := make([]Node, 0, len(val.Content))
		for _, c := range val.Content {
			p, err := decodePredicate(c)
			if err != nil {
				return nil, err
			}
			ops = append(ops, p)
		}
		if key == "and" {
			return &And{Operands: ops}, nil
		}
		return &Or{Operands: ops}, nil

	case "not":
		p, err := decodePredicate(val)
		if err != nil {
			return nil, err
		}
		return &Not{Operand: p}, nil

	case "type":
		if val.Kind != yaml.ScalarNode || val.Value == "" {
			return nil, invalid(val, "type expects a name")
		}
		return &NodeType{Type: val.Value}, nil

	case "exact":
		var e struct {
			Property string `yaml:"property"`
			Value    string `yaml:"value"`
		}
		if err := val.Decode(&e); err != nil || e.Property == "" {
			return nil, invalid(val, "exact expects {property, value}")
		}
		return &Exact{Property: e.Property, Value: e.Value}, nil

	case "contains":
		if val.Kind == yaml.ScalarNode {
			return &TextSearch{Text: val.Value}, nil
		}
		var c struct {
			Property string `yaml:"property"`
			Text     string `yaml:"text"`
		}
		if err := val.Decode(&c); err != nil {
			return nil, invalid(val, "contains expects text or {property, text}")
		}
		return &TextSearch{Property: c.Property, Text: c.Text}, nil

	case "exists", "missing":
		if val.Kind != yaml.ScalarNode || val.Value == "" {
			return nil, invalid(val, "%s expects a property name", key)
		}
		op, _ := ParseOperation(key)
		return &Relation{Property: val.Value, Op: op}, nil
	}

	op, ok := ParseOperation(key)
	if !ok {
		return nil, invalid(n, "unknown predicate %q", key)
	}
	return decodeRelation(op, val)
}

func decodeRelation(op Operation, val *yaml.Node) (Node, error) {
	var rd relationDoc
	if err := val.Decode(&rd); err != nil {
		return nil, invalid(val, "%s expects a mapping: %v", op, err)
	}
	if rd.Property == "" {
		return nil, invalid(val, "%s: missing property", op)
	}
	rel := &Relation{Property: rd.Property, Op: op}

	if op == OpLike {
		if rd.Pattern == "" && rd.Value.Kind == yaml.ScalarNode {
			rd.Pattern = rd.Value.Value
		}
		if rd.Pattern == "" {
			return nil, invalid(val, "like: missing pattern")
		}
		rel.Value = rd.Pattern
	} else {
		if rd.Value.Kind != yaml.ScalarNode {
			return nil, invalid(val, "%s: value must be a scalar", op)
		}
		rel.Value = rd.Value.Value
		rel.Type = inferType(&rd.Value)
	}
	if rd.Type != "" {
		t, err := model.ParsePropertyType(rd.Type)
		if err != nil {
			return nil, invalid(val, "%v", err)
		}
		rel.Type = t
	}

	funcs, err := decodeFunctions(&rd.Function)
	if err != nil {
		return nil, err
	}
	rel.Functions = funcs
	return rel, nil
}

// inferType maps YAML scalar tags onto property types.
func inferType(n *yaml.Node) model.PropertyType {
	switch n.ShortTag() {
	case "!!int", "!!float":
		return model.PropertyNumber
	case "!!bool":
		return model.PropertyBoolean
	case "!!timestamp":
		return model.PropertyDate
	}
	return model.PropertyString
}

func decodeFunctions(n *yaml.Node) ([]*PropertyFunction, error) {
	var names []string
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		names = []string{n.Value}
	case yaml.SequenceNode:
		if err := n.Decode(&names); err != nil {
			return nil, invalid(n, "function expects a name or list of names")
		}
	default:
		return nil, invalid(n, "function expects a name or list of names")
	}
	out := make([]*PropertyFunction, 0, len(names))
	for _, name := range names {
		switch fn := FunctionName(strings.ToLower(name)); fn {
		case FunctionLower, FunctionUpper:
			out = append(out, &PropertyFunction{Name: fn})
		default:
			return nil, invalid(n, "unknown function %q", name)
		}
	}
	return out, nil
}
