package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PropertyType is the value type of a node property.
type PropertyType int

const (
	PropertyString PropertyType = iota
	PropertyNumber
	PropertyDate
	PropertyBoolean
	PropertyReference
)

func (t PropertyType) String() string {
	switch t {
	case PropertyNumber:
		return "number"
	case PropertyDate:
		return "date"
	case PropertyBoolean:
		return "boolean"
	case PropertyReference:
		return "reference"
	default:
		return "string"
	}
}

// ParsePropertyType parses the textual form produced by String.
func ParsePropertyType(s string) (PropertyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string":
		return PropertyString, nil
	case "number":
		return PropertyNumber, nil
	case "date":
		return PropertyDate, nil
	case "boolean", "bool":
		return PropertyBoolean, nil
	case "reference", "ref":
		return PropertyReference, nil
	default:
		return PropertyString, fmt.Errorf("unknown property type %q", s)
	}
}

// MarshalJSON encodes the type by name so stored rows stay readable.
func (t PropertyType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a type name.
func (t *PropertyType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePropertyType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Property is a named, typed, possibly multi-valued node property.
// Reference values hold the target node's ID literal.
type Property struct {
	Name   string       `json:"name"`
	Type   PropertyType `json:"type"`
	Values []string     `json:"values"`
}

// First returns the first value, or "" for an empty property.
func (p Property) First() string {
	if len(p.Values) == 0 {
		return ""
	}
	return p.Values[0]
}
