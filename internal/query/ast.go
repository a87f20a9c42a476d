// Package query defines the abstract syntax tree of repository queries and
// the traversal contract that backend passes use to interpret it.
//
// The node kinds form a closed set. Every Visitor has one method per kind,
// so adding a kind is a breaking change for all visitors.
package query

import "github.com/aidanlsb/corvid/internal/model"

// Node is a query syntax tree node. Nodes are immutable once built.
type Node interface {
	// Accept dispatches to the visitor method for the node's kind.
	Accept(v Visitor, data any) (any, error)
	// Kind names the node kind.
	Kind() string
	queryNode()
}

// Step is a node that can appear in a Path: a LocationStep or a Deref.
type Step interface {
	Node
	step()
}

// Root is the top of a query: the location path, projected columns and order.
type Root struct {
	Location *Path   // nil selects every node
	Columns  []string // property names or special columns (@id, @name, @path, @type, @score)
	Order    *Order   // nil keeps the execution order
}

// Or matches nodes matched by any operand.
type Or struct {
	Operands []Node
}

// And matches nodes matched by every operand.
type And struct {
	Operands []Node
}

// Not matches nodes its operand does not match.
type Not struct {
	Operand Node
}

// Exact matches nodes whose property holds exactly Value as indexed.
type Exact struct {
	Property string
	Value    string
}

// NodeType matches nodes of a primary type.
type NodeType struct {
	Type string
}

// TextSearch is a full-text predicate over the node or one of its properties.
// Words prefixed with '-' exclude matches.
type TextSearch struct {
	Property string // empty searches the whole node
	Text     string
}

// Path is a sequence of steps evaluated from the repository root.
type Path struct {
	Steps []Step
}

// LocationStep selects children (or descendants) of the previous step by name.
type LocationStep struct {
	NameTest    string // "" or "*" matches any name
	Descendants bool
	Predicates  []Node
}

// Deref selects the nodes referenced through Property by the previous step.
type Deref struct {
	Property   string
	NameTest   string // "" or "*" matches any name
	Predicates []Node
}

// Operation is a relation operator.
type Operation int

const (
	OpEq Operation = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLike
	OpExists
	OpMissing
)

var operationNames = [...]string{"eq", "ne", "lt", "le", "gt", "ge", "like", "exists", "missing"}

func (op Operation) String() string {
	if int(op) < len(operationNames) {
		return operationNames[op]
	}
	return "unknown"
}

// ParseOperation parses an operation name as used in query documents.
func ParseOperation(s string) (Operation, bool) {
	for i, name := range operationNames {
		if name == s {
			return Operation(i), true
		}
	}
	return 0, false
}

// Unary reports whether the operation takes no value.
func (op Operation) Unary() bool { return op == OpExists || op == OpMissing }

// Relation compares a property against a typed value. Functions are applied
// to the property value, innermost first, before the comparison.
type Relation struct {
	Property  string
	Op        Operation
	Type      model.PropertyType
	Value     string
	Functions []*PropertyFunction
}

// FunctionName names a property function.
type FunctionName string

const (
	FunctionLower FunctionName = "lower"
	FunctionUpper FunctionName = "upper"
)

// PropertyFunction transforms a property value inside a Relation.
type PropertyFunction struct {
	Name FunctionName
}

// OrderSpec orders results by one property.
type OrderSpec struct {
	Property   string // "@score" orders by relevance
	Descending bool
}

// Order lists the order specs of a query, most significant first.
type Order struct {
	Specs []OrderSpec
}

func (*Root) queryNode()             {}
func (*Or) queryNode()               {}
func (*And) queryNode()              {}
func (*Not) queryNode()              {}
func (*Exact) queryNode()            {}
func (*NodeType) queryNode()         {}
func (*TextSearch) queryNode()       {}
func (*Path) queryNode()             {}
func (*LocationStep) queryNode()     {}
func (*Deref) queryNode()            {}
func (*Relation) queryNode()         {}
func (*PropertyFunction) queryNode() {}
func (*Order) queryNode()            {}

func (*LocationStep) step() {}
func (*Deref) step()        {}

func (*Root) Kind() string             { return "root" }
func (*Or) Kind() string               { return "or" }
func (*And) Kind() string              { return "and" }
func (*Not) Kind() string              { return "not" }
func (*Exact) Kind() string            { return "exact" }
func (*NodeType) Kind() string         { return "nodetype" }
func (*TextSearch) Kind() string       { return "textsearch" }
func (*Path) Kind() string             { return "path" }
func (*LocationStep) Kind() string     { return "locationstep" }
func (*Deref) Kind() string            { return "deref" }
func (*Relation) Kind() string         { return "relation" }
func (*PropertyFunction) Kind() string { return "propertyfunction" }
func (*Order) Kind() string            { return "order" }
