// Package index implements the immutable inverted index that queries run against.
//
// A Snapshot is built once from a node source and never changes afterwards.
// Document identifiers are dense ints that are only meaningful within the
// snapshot that assigned them.
package index

import "strings"

// Field names used in index documents.
const (
	// FieldUUID holds the node's stable identifier, indexed for exact lookup.
	FieldUUID = "_:UUID"
	// FieldLabel holds the node's name, one token per document.
	FieldLabel = "_:LABEL"
	// FieldPrimaryType holds the node type.
	FieldPrimaryType = "_:PRIMARYTYPE"
	// FieldParent holds the parent node's identifier ("" for top-level nodes).
	FieldParent = "_:PARENT"
	// FieldPath holds the node's repository path.
	FieldPath = "_:PATH"
	// FieldProperties holds NamedValue(property, value) entries for every property value.
	FieldProperties = "_:PROPERTIES"
	// FieldPropertiesSet holds the names of all properties present on the node.
	FieldPropertiesSet = "_:PROPERTIES_SET"
	// FieldReferences holds NamedValue(property, targetID) for reference properties only.
	FieldReferences = "_:REFERENCES"
	// FieldFulltext holds analysed tokens of the node's text, both bare and
	// scoped to their property as NamedValue(property, token).
	FieldFulltext = "_:FULLTEXT"
)

// NamedValueSeparator separates a property name from its value in named-value terms.
const NamedValueSeparator = '\uffff'

// NamedValue encodes a property name and value into a single term.
func NamedValue(name, value string) string {
	return name + string(NamedValueSeparator) + value
}

// NamedValuePrefix returns the term prefix shared by all values of a property.
func NamedValuePrefix(name string) string {
	return NamedValue(name, "")
}

// SplitNamedValue decodes a term produced by NamedValue.
func SplitNamedValue(term string) (name, value string, ok bool) {
	i := strings.IndexRune(term, NamedValueSeparator)
	if i < 0 {
		return "", "", false
	}
	return term[:i], term[i+len(string(NamedValueSeparator)):], true
}
